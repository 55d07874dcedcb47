// Package cache keeps computed sales analyses close to the API.
package cache

import (
	"context"
	"fmt"

	"bizhub_backend/internal/models"
)

// AnalyticsCache stores sales analyses per business. Implementations must treat a miss as
// (nil, false, nil).
//
// Entries are addressed by the business generation. Callers read the generation before loading
// the sales they summarize, so an analysis computed before an invalidation is stored under a
// generation nobody asks for again.
type AnalyticsCache interface {
	// Generation returns the current generation of the business, 0 when it was never invalidated.
	Generation(ctx context.Context, businessID int64) (int64, error)
	Get(ctx context.Context, key AnalysisKey) (*models.SalesAnalysis, bool, error)
	Set(ctx context.Context, key AnalysisKey, analysis *models.SalesAnalysis) error
	// InvalidateBusiness moves the business to a new generation.
	InvalidateBusiness(ctx context.Context, businessID int64) error
}

// AnalysisKey identifies one analysis request.
type AnalysisKey struct {
	BusinessID int64
	Generation int64
	DateFrom   string
	DateTo     string
	TopN       int
}

func (k AnalysisKey) String() string {
	return fmt.Sprintf("analytics:%d:%d:%s:%s:%d", k.BusinessID, k.Generation, k.DateFrom, k.DateTo, k.TopN)
}

func generationKey(businessID int64) string {
	return fmt.Sprintf("analytics_gen:%d", businessID)
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Generation(ctx context.Context, businessID int64) (int64, error) {
	return 0, nil
}

func (Noop) Get(ctx context.Context, key AnalysisKey) (*models.SalesAnalysis, bool, error) {
	return nil, false, nil
}

func (Noop) Set(ctx context.Context, key AnalysisKey, analysis *models.SalesAnalysis) error {
	return nil
}

func (Noop) InvalidateBusiness(ctx context.Context, businessID int64) error {
	return nil
}
