package core

import (
	"fmt"
	"sort"
	"time"

	"pulsewatch.io/sentiment-api/internal/store"
)

// TrendService groups a product's comments into calendar buckets. Queries
// are read-only; nothing here ever touches the summary cache.
type TrendService struct {
	dbStore *store.SQLiteStore
}

func NewTrendService(db *store.SQLiteStore) *TrendService {
	return &TrendService{dbStore: db}
}

// WeeklyBucket is one ISO week of label counts. Label keys are always
// present even when a sentiment never occurred in the bucket.
type WeeklyBucket struct {
	Week     string `json:"week"`
	Positive int    `json:"Positive"`
	Neutral  int    `json:"Neutral"`
	Negative int    `json:"Negative"`
}

type MonthlyBucket struct {
	Month    string `json:"month"`
	Positive int    `json:"Positive"`
	Neutral  int    `json:"Neutral"`
	Negative int    `json:"Negative"`
}

type bucketKey struct {
	year  int
	month int
	week  int
}

type labelCounts struct {
	positive int
	neutral  int
	negative int
}

func (c *labelCounts) add(prediction string) {
	switch prediction {
	case store.LabelPositive:
		c.positive++
	case store.LabelNeutral:
		c.neutral++
	case store.LabelNegative:
		c.negative++
	}
}

// polarComments filters to the three polar labels (Irrelevant excluded)
// with a parseable created date, returning each comment with its date.
func (s *TrendService) polarComments(product string) ([]store.Comment, []time.Time, error) {
	comments, err := s.dbStore.FindCommentsByProduct(product)
	if err != nil {
		return nil, nil, fmt.Errorf("comment scan failed: %w", err)
	}

	var kept []store.Comment
	var dates []time.Time
	for _, c := range comments {
		switch c.Prediction {
		case store.LabelPositive, store.LabelNeutral, store.LabelNegative:
		default:
			continue
		}
		d, err := time.Parse("2006-01-02", c.Created)
		if err != nil {
			continue // malformed dates are excluded from trend buckets
		}
		kept = append(kept, c)
		dates = append(dates, d)
	}
	return kept, dates, nil
}

// Weekly groups the product's comments by ISO week. Labels are
// "{iso_week_year}-{month}-W{iso_week}" with the raw ISO week number,
// ordered ascending by (year, month, week).
func (s *TrendService) Weekly(product string) ([]WeeklyBucket, error) {
	comments, dates, err := s.polarComments(product)
	if err != nil {
		return nil, err
	}

	groups := make(map[bucketKey]*labelCounts)
	for i, c := range comments {
		isoYear, isoWeek := dates[i].ISOWeek()
		key := bucketKey{year: isoYear, month: int(dates[i].Month()), week: isoWeek}
		counts, ok := groups[key]
		if !ok {
			counts = &labelCounts{}
			groups[key] = counts
		}
		counts.add(c.Prediction)
	}

	keys := sortedKeys(groups)
	out := []WeeklyBucket{}
	for _, k := range keys {
		counts := groups[k]
		out = append(out, WeeklyBucket{
			Week:     fmt.Sprintf("%d-%d-W%d", k.year, k.month, k.week),
			Positive: counts.positive,
			Neutral:  counts.neutral,
			Negative: counts.negative,
		})
	}
	return out, nil
}

// Monthly groups the product's comments by calendar month. Labels are
// "{year}-{month:02d}", ordered ascending by (year, month).
func (s *TrendService) Monthly(product string) ([]MonthlyBucket, error) {
	comments, dates, err := s.polarComments(product)
	if err != nil {
		return nil, err
	}

	groups := make(map[bucketKey]*labelCounts)
	for i, c := range comments {
		key := bucketKey{year: dates[i].Year(), month: int(dates[i].Month())}
		counts, ok := groups[key]
		if !ok {
			counts = &labelCounts{}
			groups[key] = counts
		}
		counts.add(c.Prediction)
	}

	keys := sortedKeys(groups)
	out := []MonthlyBucket{}
	for _, k := range keys {
		counts := groups[k]
		out = append(out, MonthlyBucket{
			Month:    fmt.Sprintf("%d-%02d", k.year, k.month),
			Positive: counts.positive,
			Neutral:  counts.neutral,
			Negative: counts.negative,
		})
	}
	return out, nil
}

func sortedKeys(groups map[bucketKey]*labelCounts) []bucketKey {
	keys := make([]bucketKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		if keys[i].month != keys[j].month {
			return keys[i].month < keys[j].month
		}
		return keys[i].week < keys[j].week
	})
	return keys
}
