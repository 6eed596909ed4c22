package catalog_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	catalog "github.com/andli/cardartvoter/internal/adapters/catalog"
	"github.com/andli/cardartvoter/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// recordingStore counts upserts and remembers what arrived.
type recordingStore struct {
	mu    sync.Mutex
	cards map[string]model.CardSeed
	fail  bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{cards: make(map[string]model.CardSeed)}
}

func (s *recordingStore) UpsertCard(ctx context.Context, seed model.CardSeed, initialRating int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false, fmt.Errorf("store unavailable")
	}
	_, known := s.cards[seed.ScryfallID]
	s.cards[seed.ScryfallID] = seed
	return !known, nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded queue", t, func() {
		queue := catalog.NewInMemoryQueue(catalog.WithCapacity(2))

		Convey("When enqueueing within capacity", func() {
			So(queue.Enqueue(ctx, model.CardSeed{ScryfallID: "a"}), ShouldBeTrue)
			So(queue.Enqueue(ctx, model.CardSeed{ScryfallID: "b"}), ShouldBeTrue)
			So(queue.Len(ctx), ShouldEqual, 2)

			Convey("And the queue is full", func() {
				Convey("Then further enqueues report backpressure", func() {
					So(queue.Enqueue(ctx, model.CardSeed{ScryfallID: "c"}), ShouldBeFalse)
				})
			})
		})

		Convey("When the queue is closed", func() {
			So(queue.Enqueue(ctx, model.CardSeed{ScryfallID: "a"}), ShouldBeTrue)
			So(queue.Close(), ShouldBeNil)

			Convey("Then enqueues are refused but queued records drain", func() {
				So(queue.Enqueue(ctx, model.CardSeed{ScryfallID: "b"}), ShouldBeFalse)

				seed, ok := <-queue.Dequeue(ctx)
				So(ok, ShouldBeTrue)
				So(seed.ScryfallID, ShouldEqual, "a")

				_, ok = <-queue.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})

			Convey("And closing twice is harmless", func() {
				So(queue.Close(), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool draining a queue into a store", t, func() {
		queue := catalog.NewInMemoryQueue(catalog.WithCapacity(100))
		store := newRecordingStore()
		pool := catalog.NewPool(queue, store, 1500, catalog.WithWorkerCount(3))

		Convey("When records are enqueued and the pool stops", func() {
			pool.Start(ctx)
			for i := 0; i < 50; i++ {
				So(queue.Enqueue(ctx, model.CardSeed{ScryfallID: fmt.Sprintf("card-%02d", i)}), ShouldBeTrue)
			}

			err := pool.Stop(ctx)

			Convey("Then every record lands exactly once", func() {
				So(err, ShouldBeNil)
				So(store.count(), ShouldEqual, 50)
			})
		})

		Convey("When the store fails", func() {
			store.fail = true
			pool.Start(ctx)
			So(queue.Enqueue(ctx, model.CardSeed{ScryfallID: "doomed"}), ShouldBeTrue)

			err := pool.Stop(ctx)

			Convey("Then the pool still drains and stops cleanly", func() {
				So(err, ShouldBeNil)
				So(store.count(), ShouldEqual, 0)
			})
		})

		Convey("When Stop is called twice", func() {
			pool.Start(ctx)
			So(pool.Stop(ctx), ShouldBeNil)
			So(pool.Stop(ctx), ShouldBeNil)
		})
	})
}

func TestClient_FetchSet(t *testing.T) {
	Convey("Given a Scryfall-compatible test server", t, func() {
		var pageTwoURL string
		mux := http.NewServeMux()
		mux.HandleFunc("/cards/search", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{
				"has_more": true,
				"next_page": %q,
				"data": [
					{"id": "c1", "name": "Llanowar Elves", "artist": "Anson Maddocks", "set": "lea", "set_name": "Limited Edition Alpha", "image_uris": {"normal": "https://img/c1.jpg"}},
					{"id": "c2", "name": "Digital Only", "artist": "Nobody", "set": "lea", "set_name": "Limited Edition Alpha", "digital": true, "image_uris": {"normal": "https://img/c2.jpg"}},
					{"id": "c3", "name": "No Image", "artist": "Nobody", "set": "lea", "set_name": "Limited Edition Alpha"}
				]
			}`, pageTwoURL)
		})
		mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"has_more": false,
				"data": [
					{"id": "c4", "name": "Black Lotus", "artist": "", "set": "lea", "set_name": "Limited Edition Alpha", "image_uris": {"normal": "https://img/c4.jpg"}}
				]
			}`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		pageTwoURL = srv.URL + "/page2"

		client := catalog.NewClient(
			catalog.WithBaseURL(srv.URL),
			catalog.WithRequestDelay(0),
		)

		Convey("When fetching a set across two pages", func() {
			seeds, err := client.FetchSet(context.Background(), "lea")

			Convey("Then digital and imageless cards are skipped", func() {
				So(err, ShouldBeNil)
				So(seeds, ShouldHaveLength, 2)
				So(seeds[0].ScryfallID, ShouldEqual, "c1")
				So(seeds[0].Artist, ShouldEqual, "Anson Maddocks")
				So(seeds[1].ScryfallID, ShouldEqual, "c4")
			})

			Convey("Then a missing artist falls back to Unknown", func() {
				So(err, ShouldBeNil)
				So(seeds[1].Artist, ShouldEqual, "Unknown")
			})
		})

		Convey("When the upstream returns an error status", func() {
			failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			}))
			defer failing.Close()

			client := catalog.NewClient(catalog.WithBaseURL(failing.URL), catalog.WithRequestDelay(0))
			_, err := client.FetchSet(context.Background(), "lea")

			Convey("Then the error names the upstream", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "429")
			})
		})

		Convey("When the context is cancelled mid-fetch", func() {
			slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				fmt.Fprint(w, `{"has_more": false, "data": []}`)
			}))
			defer slow.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			client := catalog.NewClient(catalog.WithBaseURL(slow.URL), catalog.WithRequestDelay(0))
			_, err := client.FetchSet(ctx, "lea")

			So(err, ShouldNotBeNil)
		})
	})
}
