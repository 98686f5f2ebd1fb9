package core

import (
	"fmt"

	"pulsewatch.io/sentiment-api/internal/store"
)

// TrackingService maintains each enterprise user's set of tracked product
// names. Adds are idempotent and removing an untracked product is a no-op;
// role checks happen at the API boundary before these are reached.
type TrackingService struct {
	dbStore *store.SQLiteStore
}

func NewTrackingService(db *store.SQLiteStore) *TrackingService {
	return &TrackingService{dbStore: db}
}

func (s *TrackingService) Track(userID int64, product string) error {
	if err := s.dbStore.AddTrackedProduct(userID, product); err != nil {
		return fmt.Errorf("failed to track product: %w", err)
	}
	return nil
}

func (s *TrackingService) Untrack(userID int64, product string) error {
	if err := s.dbStore.RemoveTrackedProduct(userID, product); err != nil {
		return fmt.Errorf("failed to untrack product: %w", err)
	}
	return nil
}

func (s *TrackingService) ListTracked(userID int64) ([]string, error) {
	products, err := s.dbStore.GetTrackedProducts(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked products: %w", err)
	}
	return products, nil
}
