package core

import (
	"fmt"

	"pulsewatch.io/sentiment-api/internal/store"
)

const maxReports = 10

// ReportService serves model-drift monitoring snapshots written by the
// external evaluation job.
type ReportService struct {
	dbStore *store.SQLiteStore
}

func NewReportService(db *store.SQLiteStore) *ReportService {
	return &ReportService{dbStore: db}
}

// LatestModelReports returns up to ten reports, newest first.
func (s *ReportService) LatestModelReports() ([]store.ModelReport, error) {
	reports, err := s.dbStore.GetLatestModelReports(maxReports)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch model reports: %w", err)
	}
	if reports == nil {
		reports = []store.ModelReport{}
	}
	return reports, nil
}
