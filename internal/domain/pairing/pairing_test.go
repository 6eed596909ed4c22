package pairing_test

import (
	"fmt"
	"math/rand"
	"testing"

	pairing "github.com/andli/cardartvoter/internal/domain/pairing"
	. "github.com/smartystreets/goconvey/convey"
)

// population builds n candidates with evenly spread ratings and varying
// comparison counts.
func population(n int) []pairing.Candidate {
	cards := make([]pairing.Candidate, n)
	for i := range cards {
		cards[i] = pairing.Candidate{
			ScryfallID:  fmt.Sprintf("card-%03d", i),
			Rating:      1000 + (1000*i)/max(n-1, 1),
			Comparisons: i % 40,
		}
	}
	return cards
}

func TestSelector_Select(t *testing.T) {
	Convey("Given a selector with a seeded source", t, func() {
		selector := pairing.New(pairing.WithRand(rand.New(rand.NewSource(42))))

		Convey("When the population has fewer than two cards", func() {
			_, _, err := selector.Select([]pairing.Candidate{{ScryfallID: "only"}})

			Convey("Then selection is refused", func() {
				So(err, ShouldEqual, pairing.ErrNotEnoughCards)
			})
		})

		Convey("When selecting repeatedly from a healthy population", func() {
			cards := population(50)

			Convey("Then the pair is always two distinct cards", func() {
				for i := 0; i < 500; i++ {
					a, b, err := selector.Select(cards)
					So(err, ShouldBeNil)
					So(a.ScryfallID, ShouldNotEqual, b.ScryfallID)
				}
			})
		})

		Convey("When the population is exactly two cards", func() {
			cards := population(2)

			Convey("Then those two cards are returned in some order", func() {
				a, b, err := selector.Select(cards)
				So(err, ShouldBeNil)
				ids := map[string]bool{a.ScryfallID: true, b.ScryfallID: true}
				So(ids, ShouldContainKey, "card-000")
				So(ids, ShouldContainKey, "card-001")
			})
		})
	})

	Convey("Given a selector with the under-compared band forced on", t, func() {
		// Bands of zero width leave only the under-compared strategy.
		selector := pairing.New(
			pairing.WithRand(rand.New(rand.NewSource(7))),
			pairing.WithBands(0, 0),
			pairing.WithBuckets([]int{6, 21, 51, 101}),
		)

		Convey("When one card has far fewer comparisons than the rest", func() {
			cards := []pairing.Candidate{
				{ScryfallID: "fresh", Rating: 1500, Comparisons: 1},
				{ScryfallID: "vet-a", Rating: 1520, Comparisons: 80},
				{ScryfallID: "vet-b", Rating: 1480, Comparisons: 90},
				{ScryfallID: "vet-c", Rating: 1510, Comparisons: 70},
			}

			Convey("Then the fresh card is always featured", func() {
				for i := 0; i < 100; i++ {
					a, b, err := selector.Select(cards)
					So(err, ShouldBeNil)
					So(a.ScryfallID, ShouldEqual, "fresh")
					So(b.ScryfallID, ShouldNotEqual, "fresh")
				}
			})
		})

		Convey("When no partner is inside the rating tolerance", func() {
			cards := []pairing.Candidate{
				{ScryfallID: "fresh", Rating: 1000, Comparisons: 0},
				{ScryfallID: "far", Rating: 2000, Comparisons: 60},
			}

			Convey("Then a partner is still found", func() {
				a, b, err := selector.Select(cards)
				So(err, ShouldBeNil)
				So(a.ScryfallID, ShouldEqual, "fresh")
				So(b.ScryfallID, ShouldEqual, "far")
			})
		})

		Convey("When partners exist inside the tolerance window", func() {
			cards := []pairing.Candidate{
				{ScryfallID: "fresh", Rating: 1500, Comparisons: 1},
				{ScryfallID: "near", Rating: 1600, Comparisons: 30},
				{ScryfallID: "far", Rating: 1950, Comparisons: 30},
			}

			Convey("Then the close partner wins over the distant one", func() {
				for i := 0; i < 100; i++ {
					a, b, err := selector.Select(cards)
					So(err, ShouldBeNil)
					So(a.ScryfallID, ShouldEqual, "fresh")
					So(b.ScryfallID, ShouldEqual, "near")
				}
			})
		})
	})

	Convey("Given a selector with the extreme band forced on", t, func() {
		selector := pairing.New(
			pairing.WithRand(rand.New(rand.NewSource(11))),
			pairing.WithBands(0, 1),
			pairing.WithExtremePoolSize(3),
			pairing.WithExtremeMinComparisons(5),
		)

		Convey("When most cards are too new for extreme pairing", func() {
			cards := []pairing.Candidate{
				{ScryfallID: "new-a", Rating: 1500, Comparisons: 0},
				{ScryfallID: "new-b", Rating: 1500, Comparisons: 1},
				{ScryfallID: "new-c", Rating: 1500, Comparisons: 2},
			}

			Convey("Then selection falls back to a random pair", func() {
				a, b, err := selector.Select(cards)
				So(err, ShouldBeNil)
				So(a.ScryfallID, ShouldNotEqual, b.ScryfallID)
			})
		})

		Convey("When enough established cards exist", func() {
			cards := population(30)
			for i := range cards {
				cards[i].Comparisons = 10 + i
			}

			Convey("Then every pair comes from the rating tails", func() {
				// Pool size 3 over 30 sorted cards: members must sit in
				// the top 3 or bottom 3 by rating.
				tails := map[string]bool{}
				for _, id := range []string{"card-000", "card-001", "card-002", "card-027", "card-028", "card-029"} {
					tails[id] = true
				}
				for i := 0; i < 200; i++ {
					a, b, err := selector.Select(cards)
					So(err, ShouldBeNil)
					So(tails[a.ScryfallID], ShouldBeTrue)
					So(tails[b.ScryfallID], ShouldBeTrue)
					So(a.ScryfallID, ShouldNotEqual, b.ScryfallID)
				}
			})
		})
	})
}

func TestSelector_SelectTargeted(t *testing.T) {
	Convey("Given a selector and a population", t, func() {
		selector := pairing.New(pairing.WithRand(rand.New(rand.NewSource(3))))
		cards := population(20)

		Convey("When targeting a known card", func() {
			Convey("Then that card is featured first with a distinct partner", func() {
				for i := 0; i < 100; i++ {
					a, b, err := selector.SelectTargeted(cards, "card-007")
					So(err, ShouldBeNil)
					So(a.ScryfallID, ShouldEqual, "card-007")
					So(b.ScryfallID, ShouldNotEqual, "card-007")
				}
			})
		})

		Convey("When targeting an unknown card", func() {
			a, b, err := selector.SelectTargeted(cards, "no-such-card")

			Convey("Then selection falls back to the mixed strategy", func() {
				So(err, ShouldBeNil)
				So(a.ScryfallID, ShouldNotEqual, b.ScryfallID)
			})
		})

		Convey("When the population has fewer than two cards", func() {
			_, _, err := selector.SelectTargeted(cards[:1], "card-000")

			Convey("Then selection is refused", func() {
				So(err, ShouldEqual, pairing.ErrNotEnoughCards)
			})
		})
	})
}
