package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsewatch.io/sentiment-api/internal/store"
)

func newCrawlFixture(t *testing.T, handler http.HandlerFunc) (*CrawlService, *store.SQLiteStore) {
	t.Helper()
	db := newTestStore(t)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewCrawlService(db, srv.URL)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, db
}

func daysAgo(svc *CrawlService, days int) string {
	return svc.now().AddDate(0, 0, -days).Format("2006-01-02")
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestCrawlCooldownLadder(t *testing.T) {
	tests := []struct {
		name       string
		lastDays   int // -1 means no prior record
		timeFilter string
		accepted   bool
	}{
		{"3 days ago, week", 3, "week", false},
		{"3 days ago, month", 3, "month", false},
		{"3 days ago, year", 3, "year", false},
		{"10 days ago, week", 10, "week", true},
		{"10 days ago, month", 10, "month", false},
		{"10 days ago, year", 10, "year", false},
		{"40 days ago, week", 40, "week", true},
		{"40 days ago, month", 40, "month", true},
		{"40 days ago, year", 40, "year", false},
		{"400 days ago, week", 400, "week", true},
		{"400 days ago, month", 400, "month", true},
		{"400 days ago, year", 400, "year", true},
		{"no prior record, year", -1, "year", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db := newCrawlFixture(t, okHandler)
			if tt.lastDays >= 0 {
				require.NoError(t, db.InsertPrivateComment(1, &store.Comment{
					Product:    "Router",
					Text:       "old crawl",
					Created:    daysAgo(svc, tt.lastDays),
					Prediction: store.LabelNeutral,
				}))
			}

			err := svc.RequestCrawl(1, "router", tt.timeFilter)
			if tt.accepted {
				assert.NoError(t, err)
			} else {
				var cooldown *CooldownError
				require.Error(t, err)
				assert.True(t, errors.As(err, &cooldown), "expected CooldownError, got %v", err)
				assert.NotEmpty(t, cooldown.Reason)
			}
		})
	}
}

func TestRequestCrawlInvalidTimeFilter(t *testing.T) {
	svc, _ := newCrawlFixture(t, okHandler)
	err := svc.RequestCrawl(1, "router", "decade")
	assert.ErrorIs(t, err, ErrInvalidTimeFilter)
}

func TestRequestCrawlMalformedStoredDate(t *testing.T) {
	svc, db := newCrawlFixture(t, okHandler)
	require.NoError(t, db.InsertPrivateComment(1, &store.Comment{
		Product:    "Router",
		Text:       "bad row",
		Created:    "15/06/2024",
		Prediction: store.LabelNeutral,
	}))

	err := svc.RequestCrawl(1, "router", "week")
	assert.ErrorIs(t, err, ErrBadStoredDate)
}

func TestRequestCrawlPostsExpectedPayload(t *testing.T) {
	var got crawlRequest
	svc, _ := newCrawlFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crawl", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, svc.RequestCrawl(7, "smart speaker", "month"))
	assert.Equal(t, int64(7), got.RequesterID)
	assert.Equal(t, "smart speaker", got.Keyword)
	assert.Equal(t, []string{"technology", "gadgets"}, got.Subreddits)
	assert.Equal(t, 30, got.Limit)
	assert.Equal(t, "month", got.TimeFilter)
}

func TestRequestCrawlUpstreamFailure(t *testing.T) {
	svc, _ := newCrawlFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := svc.RequestCrawl(1, "router", "week")
	assert.ErrorIs(t, err, ErrCrawlUpstream)
}

func TestRequestCrawlUnreachableUpstream(t *testing.T) {
	db := newTestStore(t)
	svc := NewCrawlService(db, "http://127.0.0.1:1") // nothing listens here
	svc.now = time.Now

	err := svc.RequestCrawl(1, "router", "week")
	assert.ErrorIs(t, err, ErrCrawlUpstream)
}
