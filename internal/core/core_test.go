package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pulsewatch.io/sentiment-api/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedComment(t *testing.T, s *store.SQLiteStore, product, prediction, created string, score int) {
	t.Helper()
	err := s.InsertComment(&store.Comment{
		Product:    product,
		Text:       "comment about " + product,
		Author:     "tester",
		Score:      score,
		Created:    created,
		Prediction: prediction,
	})
	require.NoError(t, err)
}

func seedPrivateComment(t *testing.T, s *store.SQLiteStore, userID int64, product, prediction, created string, score int) {
	t.Helper()
	err := s.InsertPrivateComment(userID, &store.Comment{
		Product:    product,
		Text:       "private comment about " + product,
		Author:     "tester",
		Score:      score,
		Created:    created,
		Prediction: prediction,
	})
	require.NoError(t, err)
}
