package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andli/cardartvoter/internal/adapters/http/api"
	service "github.com/andli/cardartvoter/internal/app"
	"github.com/andli/cardartvoter/internal/domain/model"
	"github.com/andli/cardartvoter/internal/domain/pairing"
	"github.com/andli/cardartvoter/internal/domain/ranking"
	"github.com/andli/cardartvoter/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies with scripted responses.
type mockDependencies struct {
	pair    service.PairView
	pairErr error

	vote    service.VoteResult
	voteErr error

	topCards []model.Card
	groups   []ranking.Group
	rankErr  error

	enabledErr error
	enabledIDs []string

	stats    service.ServiceStats
	statsErr error
}

func (m *mockDependencies) RequestPair(ctx context.Context, sessionID, targetID string) (service.PairView, error) {
	return m.pair, m.pairErr
}

func (m *mockDependencies) SubmitVote(ctx context.Context, sessionID, token, selectedID string) (service.VoteResult, error) {
	return m.vote, m.voteErr
}

func (m *mockDependencies) TopCards(ctx context.Context, limit, minComparisons int) ([]model.Card, error) {
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	if limit > 0 && limit < len(m.topCards) {
		return m.topCards[:limit], nil
	}
	return m.topCards, nil
}

func (m *mockDependencies) TopGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error) {
	return m.groups, m.rankErr
}

func (m *mockDependencies) BottomGroups(ctx context.Context, dim ranking.Dimension, limit int) ([]ranking.Group, error) {
	return m.groups, m.rankErr
}

func (m *mockDependencies) SetCardEnabled(ctx context.Context, scryfallID string, enabled bool) error {
	if m.enabledErr != nil {
		return m.enabledErr
	}
	m.enabledIDs = append(m.enabledIDs, scryfallID)
	return nil
}

func (m *mockDependencies) Stats(ctx context.Context) (service.ServiceStats, error) {
	return m.stats, m.statsErr
}

func testCard(id string, rating int) model.Card {
	return model.Card{
		ScryfallID:  id,
		Name:        "Card " + id,
		Artist:      "Artist",
		Set:         "tst",
		ImageURL:    "https://img.example/" + id + ".jpg",
		Rating:      rating,
		Comparisons: 3,
		Enabled:     true,
	}
}

func newTestServer(deps *mockDependencies) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, 100).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestServer_Pair(t *testing.T) {
	Convey("Given a server with a pair to issue", t, func() {
		deps := &mockDependencies{
			pair: service.PairView{
				CardA: testCard("a", 1500),
				CardB: testCard("b", 1500),
				Token: "tok-1",
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When requesting a pair with a session", func() {
			resp, err := http.Get(srv.URL + "/pair?session=sess-1")
			So(err, ShouldBeNil)

			Convey("Then both cards and the token come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Cards [2]struct {
						ID string `json:"id"`
					} `json:"cards"`
					Token string `json:"token"`
				}
				decodeBody(t, resp, &body)
				So(body.Cards[0].ID, ShouldEqual, "a")
				So(body.Cards[1].ID, ShouldEqual, "b")
				So(body.Token, ShouldEqual, "tok-1")
			})
		})

		Convey("When the session parameter is missing", func() {
			resp, err := http.Get(srv.URL + "/pair")
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the population is too small", func() {
			deps.pairErr = pairing.ErrNotEnoughCards

			resp, err := http.Get(srv.URL + "/pair?session=sess-1")
			So(err, ShouldBeNil)

			Convey("Then the service is reported unavailable", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
				var body struct {
					Code string `json:"code"`
				}
				decodeBody(t, resp, &body)
				So(body.Code, ShouldEqual, "not_enough_cards")
			})
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Post(srv.URL+"/pair", "application/json", nil)
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Vote(t *testing.T) {
	Convey("Given a server accepting votes", t, func() {
		deps := &mockDependencies{
			vote: service.VoteResult{
				Winner: testCard("a", 1524),
				Loser:  testCard("b", 1476),
				Delta:  24,
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		post := func(payload string) *http.Response {
			resp, err := http.Post(srv.URL+"/vote", "application/json", strings.NewReader(payload))
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When submitting a valid vote", func() {
			resp := post(`{"session":"sess-1","token":"tok-1","selected_id":"a"}`)

			Convey("Then the applied outcome is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Winner struct {
						ID     string `json:"id"`
						Rating int    `json:"rating"`
					} `json:"winner"`
					Delta int `json:"delta"`
				}
				decodeBody(t, resp, &body)
				So(body.Winner.ID, ShouldEqual, "a")
				So(body.Winner.Rating, ShouldEqual, 1524)
				So(body.Delta, ShouldEqual, 24)
			})
		})

		Convey("When a field is missing", func() {
			resp := post(`{"session":"sess-1","selected_id":"a"}`)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is not JSON", func() {
			resp := post(`not json at all`)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the token is invalid", func() {
			deps.voteErr = session.ErrNoPairIssued

			resp := post(`{"session":"sess-1","token":"stale","selected_id":"a"}`)

			Convey("Then the conflict is reported", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				var body struct {
					Code string `json:"code"`
				}
				decodeBody(t, resp, &body)
				So(body.Code, ShouldEqual, "invalid_token")
			})
		})

		Convey("When the card is unknown", func() {
			deps.voteErr = service.ErrUnknownCard

			resp := post(`{"session":"sess-1","token":"tok-1","selected_id":"ghost"}`)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServer_Rankings(t *testing.T) {
	Convey("Given a server with ranked data", t, func() {
		deps := &mockDependencies{
			topCards: []model.Card{testCard("a", 1800), testCard("b", 1700), testCard("c", 1600)},
			groups: []ranking.Group{
				{Key: "Rebecca Guay", Name: "Rebecca Guay", ShrunkRating: 1540.5, MeanRating: 1700, MemberCount: 8},
			},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When requesting top cards", func() {
			resp, err := http.Get(srv.URL + "/rankings/cards?limit=2")
			So(err, ShouldBeNil)

			Convey("Then the limited list is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body []struct {
					ID string `json:"id"`
				}
				decodeBody(t, resp, &body)
				So(body, ShouldHaveLength, 2)
				So(body[0].ID, ShouldEqual, "a")
			})
		})

		Convey("When the limit is malformed", func() {
			resp, err := http.Get(srv.URL + "/rankings/cards?limit=banana")
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the cap", func() {
			resp, err := http.Get(srv.URL + "/rankings/cards?limit=1000")
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When requesting artist rankings", func() {
			resp, err := http.Get(srv.URL + "/rankings/artists?order=top")
			So(err, ShouldBeNil)

			Convey("Then the groups are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body []struct {
					Key     string  `json:"key"`
					Rating  float64 `json:"rating"`
					Members int     `json:"members"`
				}
				decodeBody(t, resp, &body)
				So(body, ShouldHaveLength, 1)
				So(body[0].Key, ShouldEqual, "Rebecca Guay")
				So(body[0].Rating, ShouldAlmostEqual, 1540.5, 0.001)
				So(body[0].Members, ShouldEqual, 8)
			})
		})

		Convey("When requesting set rankings with an invalid order", func() {
			resp, err := http.Get(srv.URL + "/rankings/sets?order=sideways")
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestServer_CardsAndStats(t *testing.T) {
	Convey("Given a server", t, func() {
		deps := &mockDependencies{
			stats: service.ServiceStats{TotalCards: 100, EnabledCards: 90, VoteCount: 42, OutstandingPairs: 3},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When toggling a card", func() {
			resp, err := http.Post(srv.URL+"/cards/abc-123/enabled", "application/json",
				strings.NewReader(`{"enabled":false}`))
			So(err, ShouldBeNil)
			resp.Body.Close()

			Convey("Then the toggle reaches the service", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.enabledIDs, ShouldResemble, []string{"abc-123"})
			})
		})

		Convey("When toggling an unknown card", func() {
			deps.enabledErr = service.ErrUnknownCard

			resp, err := http.Post(srv.URL+"/cards/ghost/enabled", "application/json",
				strings.NewReader(`{"enabled":true}`))
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the card path is malformed", func() {
			resp, err := http.Post(srv.URL+"/cards/abc-123", "application/json",
				strings.NewReader(`{"enabled":true}`))
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When requesting stats", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)

			Convey("Then the counters come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					TotalCards       int `json:"total_cards"`
					EnabledCards     int `json:"enabled_cards"`
					VoteCount        int `json:"vote_count"`
					OutstandingPairs int `json:"outstanding_pairs"`
				}
				decodeBody(t, resp, &body)
				So(body.TotalCards, ShouldEqual, 100)
				So(body.VoteCount, ShouldEqual, 42)
				So(body.OutstandingPairs, ShouldEqual, 3)
			})
		})

		Convey("When checking health", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
