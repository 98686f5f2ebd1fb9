package core

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"pulsewatch.io/sentiment-api/internal/store"
)

// SentimentService answers per-product sentiment queries. Summaries are
// served read-through: a cached row wins, otherwise the raw comments are
// counted and the result is written back to the summary cache.
type SentimentService struct {
	dbStore *store.SQLiteStore
}

func NewSentimentService(db *store.SQLiteStore) *SentimentService {
	return &SentimentService{dbStore: db}
}

// CanonicalProductName capitalizes the first letter of each
// whitespace-separated word and lower-cases the rest, e.g.
// "apple watch" -> "Apple Watch". Idempotent.
func CanonicalProductName(product string) string {
	words := strings.Fields(product)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func recognizedLabel(prediction string) bool {
	switch prediction {
	case store.LabelPositive, store.LabelNeutral, store.LabelNegative, store.LabelIrrelevant:
		return true
	}
	return false
}

// Summarize resolves a product's aggregate sentiment counts.
//
// Resolution order: cached summary (returned verbatim, never refreshed);
// then the public comment store; then, when the public scan comes back
// empty, the requester's private dataset. A genuine miss with data inserts
// exactly one new summary row; a product with no data anywhere yields a
// zero summary and no write.
func (s *SentimentService) Summarize(product string, userID int64) (*store.Summary, error) {
	cached, err := s.dbStore.FindSummaryByProduct(product)
	if err != nil {
		return nil, fmt.Errorf("summary cache lookup failed: %w", err)
	}
	if cached != nil {
		return cached, nil
	}

	comments, err := s.dbStore.FindCommentsByProduct(product)
	if err != nil {
		return nil, fmt.Errorf("public comment scan failed: %w", err)
	}
	qualifying := filterRecognized(comments)

	if len(qualifying) == 0 {
		private, err := s.dbStore.FindPrivateCommentsByProduct(userID, product)
		if err != nil {
			return nil, fmt.Errorf("private comment scan failed: %w", err)
		}
		qualifying = filterRecognized(private)
	}

	summary := &store.Summary{Product: CanonicalProductName(product)}
	for _, c := range qualifying {
		switch c.Prediction {
		case store.LabelPositive:
			summary.Positive++
		case store.LabelNeutral:
			summary.Neutral++
		case store.LabelNegative:
			summary.Negative++
		case store.LabelIrrelevant:
			summary.Irrelevant++
		}
		summary.Total++
	}

	if summary.Total == 0 {
		// No data anywhere: defined result, not an error, and not cached.
		return summary, nil
	}

	if err := s.dbStore.InsertSummary(summary); err != nil {
		return nil, fmt.Errorf("failed to cache summary for %q: %w", product, err)
	}
	log.Printf("Computed and cached sentiment summary for %q (%d comments)", summary.Product, summary.Total)
	return summary, nil
}

func filterRecognized(comments []store.Comment) []store.Comment {
	var out []store.Comment
	for _, c := range comments {
		if recognizedLabel(c.Prediction) {
			out = append(out, c)
		}
	}
	return out
}

// TopComments returns the highest-scored comments for the product, public
// dataset first, the requester's private dataset when the public one has
// nothing.
func (s *SentimentService) TopComments(product string, userID int64, limit int) ([]store.Comment, error) {
	if limit <= 0 {
		limit = 10
	}

	comments, err := s.dbStore.FindTopCommentsByScore(product, limit)
	if err != nil {
		return nil, fmt.Errorf("top comment query failed: %w", err)
	}
	if len(comments) == 0 {
		comments, err = s.dbStore.FindTopPrivateCommentsByScore(userID, product, limit)
		if err != nil {
			return nil, fmt.Errorf("private top comment query failed: %w", err)
		}
	}
	if comments == nil {
		comments = []store.Comment{}
	}
	return comments, nil
}
