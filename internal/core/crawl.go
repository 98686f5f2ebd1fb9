package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"pulsewatch.io/sentiment-api/internal/store"
)

// Subreddits handed to the crawl service with every request.
var crawlSubreddits = []string{"technology", "gadgets"}

const crawlCommentLimit = 30

// Valid values for the time_filter parameter.
var validTimeFilters = map[string]bool{
	"week":  true,
	"month": true,
	"year":  true,
}

// CrawlService triggers on-demand re-crawls against the external crawl
// server, subject to a cooldown graduated by the requested time filter.
type CrawlService struct {
	dbStore    *store.SQLiteStore
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

func NewCrawlService(db *store.SQLiteStore, baseURL string) *CrawlService {
	return &CrawlService{
		dbStore:    db,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		now:        time.Now,
	}
}

type crawlRequest struct {
	RequesterID int64    `json:"requester_id"`
	Keyword     string   `json:"keyword"`
	Subreddits  []string `json:"subreddits"`
	Limit       int      `json:"limit"`
	TimeFilter  string   `json:"time_filter"`
}

// RequestCrawl validates the time filter, applies the cooldown against the
// newest private record for the product, and on acceptance posts the crawl
// job. Cooldown ladder, in days since that record's created date:
// under 7 everything is rejected, under 30 only "week" passes, under 365
// "week" and "month" pass, otherwise (or with no prior record) all pass.
func (s *CrawlService) RequestCrawl(userID int64, product, timeFilter string) error {
	if !validTimeFilters[timeFilter] {
		return ErrInvalidTimeFilter
	}

	latest, err := s.dbStore.FindLatestPrivateComment(userID, product)
	if err != nil {
		return fmt.Errorf("failed to look up last crawl: %w", err)
	}

	if latest != nil {
		lastDate, err := time.Parse("2006-01-02", latest.Created)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrBadStoredDate, latest.Created)
		}
		deltaDays := int(s.now().UTC().Sub(lastDate).Hours() / 24)

		switch {
		case deltaDays < 7:
			return &CooldownError{Reason: "Product was crawled recently (less than 7 days ago)."}
		case deltaDays < 30 && (timeFilter == "month" || timeFilter == "year"):
			return &CooldownError{Reason: "Only 'week' is allowed. Too soon for 'month/year'."}
		case deltaDays < 365 && timeFilter == "year":
			return &CooldownError{Reason: "Only 'week' or 'month' allowed. Too soon for 'year'."}
		}
	}

	return s.trigger(userID, product, timeFilter)
}

func (s *CrawlService) trigger(userID int64, product, timeFilter string) error {
	body, err := json.Marshal(crawlRequest{
		RequesterID: userID,
		Keyword:     product,
		Subreddits:  crawlSubreddits,
		Limit:       crawlCommentLimit,
		TimeFilter:  timeFilter,
	})
	if err != nil {
		return fmt.Errorf("failed to encode crawl request: %w", err)
	}

	resp, err := s.httpClient.Post(s.baseURL+"/crawl", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCrawlUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrCrawlUpstream, resp.StatusCode)
	}

	log.Printf("Triggered crawl for %q (user %d, time_filter=%s)", product, userID, timeFilter)
	return nil
}
