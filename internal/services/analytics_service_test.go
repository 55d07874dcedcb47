package services

import (
	"context"
	"testing"
	"time"

	"bizhub_backend/internal/cache"
	"bizhub_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	entries     map[string]*models.SalesAnalysis
	generations map[int64]int64
	invalidated []int64
	// beforeSet runs once, right before the next Set is stored.
	beforeSet func()
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*models.SalesAnalysis{}, generations: map[int64]int64{}}
}

func (c *mapCache) Generation(ctx context.Context, businessID int64) (int64, error) {
	return c.generations[businessID], nil
}

func (c *mapCache) Get(ctx context.Context, key cache.AnalysisKey) (*models.SalesAnalysis, bool, error) {
	a, ok := c.entries[key.String()]
	return a, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key cache.AnalysisKey, analysis *models.SalesAnalysis) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.entries[key.String()] = analysis
	return nil
}

func (c *mapCache) InvalidateBusiness(ctx context.Context, businessID int64) error {
	c.invalidated = append(c.invalidated, businessID)
	c.generations[businessID]++
	return nil
}

func sellAt(t *testing.T, b *bakery, at time.Time, lines ...SaleLineRequest) *models.Sale {
	t.Helper()
	svc := NewSaleService(b.store, nil, SaleSettings{Now: fixedClock(at)})
	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		BusinessID:    b.businessID,
		PaymentMethod: PaymentCash,
		Lines:         lines,
	})
	require.NoError(t, err)
	return sale
}

func TestSalesAnalysisDailyBuckets(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	cakeID := b.addProduct("Cake", "100", nil)
	cookieID := b.addProduct("Cookie", "1", nil)

	sellAt(t, b, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), SaleLineRequest{ProductID: cakeID, Quantity: 1, UnitPrice: price("100")})
	sellAt(t, b, time.Date(2024, 3, 2, 18, 30, 0, 0, time.UTC), SaleLineRequest{ProductID: cookieID, Quantity: 50, UnitPrice: price("1")})
	// Outside the range: midnight after date_to.
	sellAt(t, b, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), SaleLineRequest{ProductID: cakeID, Quantity: 1, UnitPrice: price("100")})

	svc := NewAnalyticsService(b.store, nil, AnalyticsSettings{Location: time.UTC})
	analysis, err := svc.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-02", 0)
	require.NoError(t, err)

	assert.Equal(t, "150", analysis.TotalRevenue.String())
	assert.Equal(t, 2, analysis.SaleCount)
	assert.Equal(t, 51, analysis.TotalUnits)
	require.Len(t, analysis.Daily, 2)
	assert.Equal(t, "2024-03-01", analysis.Daily[0].Date)
	assert.Equal(t, "100", analysis.Daily[0].Revenue.String())
	assert.Equal(t, "2024-03-02", analysis.Daily[1].Date)
	assert.Equal(t, "50", analysis.Daily[1].Revenue.String())

	require.Len(t, analysis.TopProducts, 2)
	assert.Equal(t, cookieID, analysis.TopProducts[0].ProductID)
	assert.Equal(t, 50, analysis.TopProducts[0].UnitsSold)
}

func TestSalesAnalysisUsesReportTimezone(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	loc := time.FixedZone("UTC-6", -6*60*60)

	// 03:00 UTC on the 2nd is still the 1st in UTC-6.
	sellAt(t, b, time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC), SaleLineRequest{ProductID: b.panID, Quantity: 1, UnitPrice: price("3.5")})

	svc := NewAnalyticsService(b.store, nil, AnalyticsSettings{Location: loc})
	analysis, err := svc.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-01", 5)
	require.NoError(t, err)
	require.Len(t, analysis.Daily, 1)
	assert.Equal(t, "2024-03-01", analysis.Daily[0].Date)
}

func TestSalesAnalysisTopNTieKeepsFirstSeen(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	aID := b.addProduct("A", "1", nil)
	bID := b.addProduct("B", "1", nil)
	cID := b.addProduct("C", "1", nil)
	day := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	sellAt(t, b, day, SaleLineRequest{ProductID: bID, Quantity: 2, UnitPrice: price("1")}, SaleLineRequest{ProductID: aID, Quantity: 2, UnitPrice: price("1")})
	sellAt(t, b, day.Add(time.Minute), SaleLineRequest{ProductID: cID, Quantity: 1, UnitPrice: price("1")})

	svc := NewAnalyticsService(b.store, nil, AnalyticsSettings{})
	analysis, err := svc.GetSalesAnalysis(ctx, b.businessID, "2024-05-10", "2024-05-10", 2)
	require.NoError(t, err)
	require.Len(t, analysis.TopProducts, 2)
	assert.Equal(t, bID, analysis.TopProducts[0].ProductID)
	assert.Equal(t, aID, analysis.TopProducts[1].ProductID)
}

func TestSalesAnalysisErrors(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	svc := NewAnalyticsService(b.store, nil, AnalyticsSettings{})

	_, err := svc.GetSalesAnalysis(ctx, b.businessID, "2024-03-05", "2024-03-01", 0)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.GetSalesAnalysis(ctx, b.businessID, "03/01/2024", "2024-03-01", 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetSalesAnalysis(ctx, 999, "2024-03-01", "2024-03-01", 0)
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestSalesAnalysisCacheInvalidatedBySale(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	c := newMapCache()
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	analytics := NewAnalyticsService(b.store, c, AnalyticsSettings{})
	sales := NewSaleService(b.store, c, SaleSettings{Now: fixedClock(day)})

	first, err := analytics.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, first.SaleCount)
	assert.Len(t, c.entries, 1)

	_, err = sales.CreateSale(ctx, panSale(b, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{b.businessID}, c.invalidated)

	second, err := analytics.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SaleCount)
	assert.Equal(t, "7", second.TotalRevenue.String())
}

func TestSalesAnalysisSaleCommittedBeforeCacheWrite(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	c := newMapCache()
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	analytics := NewAnalyticsService(b.store, c, AnalyticsSettings{})
	sales := NewSaleService(b.store, c, SaleSettings{Now: fixedClock(day)})

	// The sale commits after the sales were read but before the result is cached.
	c.beforeSet = func() {
		_, err := sales.CreateSale(ctx, panSale(b, 10))
		require.NoError(t, err)
	}
	first, err := analytics.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, first.SaleCount)

	second, err := analytics.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SaleCount)
	assert.Equal(t, "35", second.TotalRevenue.String())
}

func TestSalesAnalysisServedFromCache(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	c := newMapCache()
	analytics := NewAnalyticsService(b.store, c, AnalyticsSettings{})

	first, err := analytics.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-01", 0)
	require.NoError(t, err)
	second, err := analytics.GetSalesAnalysis(ctx, b.businessID, "2024-03-01", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLowStockAlerts(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

	emptyID := b.store.AddProduct(models.Product{BusinessID: b.businessID, Name: "Empty", Price: dec("1"), StockOnHand: intPtr(0), MinimumStock: intPtr(5)})
	b.store.AddProduct(models.Product{BusinessID: b.businessID, Name: "Healthy", Price: dec("1"), StockOnHand: intPtr(6), MinimumStock: intPtr(5)})
	lowID := b.store.AddProduct(models.Product{BusinessID: b.businessID, Name: "Low", Price: dec("1"), StockOnHand: intPtr(5), MinimumStock: intPtr(5)})
	b.store.AddProduct(models.Product{BusinessID: b.businessID, Name: "No threshold", Price: dec("1"), StockOnHand: intPtr(2)})
	b.addProduct("Untracked", "1", nil)
	soldOutID := b.store.AddProduct(models.Product{BusinessID: b.businessID, Name: "Sold out", Price: dec("1"), StockOnHand: intPtr(3)})
	sellAt(t, b, now.Add(-5*24*time.Hour), SaleLineRequest{ProductID: soldOutID, Quantity: 3, UnitPrice: price("1")})

	svc := NewAnalyticsService(b.store, nil, AnalyticsSettings{Now: fixedClock(now)})
	alerts, err := svc.GetLowStockAlerts(ctx, b.businessID)
	require.NoError(t, err)

	byID := map[int64]models.StockAlert{}
	for _, a := range alerts {
		byID[a.ProductID] = a
	}
	require.Len(t, alerts, 3)

	empty := byID[emptyID]
	assert.Equal(t, models.AlertOutOfStock, empty.AlertType)
	assert.Equal(t, 5, empty.MinimumStock)
	assert.Nil(t, empty.DaysSinceLastSale)

	assert.Equal(t, models.AlertLowStock, byID[lowID].AlertType)

	soldOut := byID[soldOutID]
	assert.Equal(t, models.AlertOutOfStock, soldOut.AlertType)
	require.NotNil(t, soldOut.DaysSinceLastSale)
	assert.Equal(t, 5, *soldOut.DaysSinceLastSale)
}

func TestExpiryAlerts(t *testing.T) {
	ctx := context.Background()
	b := newBakery(t)
	now := time.Date(2024, 6, 20, 15, 0, 0, 0, time.UTC)
	day := func(offset int) *time.Time {
		d := time.Date(2024, 6, 20+offset, 0, 0, 0, 0, time.UTC)
		return &d
	}
	add := func(name string, stock int, expires *time.Time) int64 {
		return b.store.AddProduct(models.Product{BusinessID: b.businessID, Name: name, Price: dec("1"), StockOnHand: intPtr(stock), ExpirationDate: expires})
	}

	inThree := add("Yogurt", 4, day(3))
	today := add("Milk", 2, day(0))
	add("Expired", 9, day(-1))
	add("Far", 9, day(30))
	add("Gone", 0, day(1))
	alsoThree := add("Cream", 1, day(3))

	svc := NewAnalyticsService(b.store, nil, AnalyticsSettings{Now: fixedClock(now)})
	alerts, err := svc.GetExpiryAlerts(ctx, b.businessID, 7)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, today, alerts[0].ProductID)
	assert.Equal(t, 0, *alerts[0].DaysUntilExpiry)
	assert.Equal(t, inThree, alerts[1].ProductID)
	assert.Equal(t, alsoThree, alerts[2].ProductID)
	assert.Equal(t, 3, *alerts[2].DaysUntilExpiry)

	_, err = svc.GetExpiryAlerts(ctx, b.businessID, -1)
	assert.ErrorIs(t, err, ErrValidation)
}
