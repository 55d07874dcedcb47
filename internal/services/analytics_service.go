package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bizhub_backend/internal/cache"
	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"
	"bizhub_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// AnalyticsService computes read-only reports over committed sales and ledger state.
type AnalyticsService interface {
	GetSalesAnalysis(ctx context.Context, businessID int64, dateFrom, dateTo string, topN int) (*models.SalesAnalysis, error)
	GetLowStockAlerts(ctx context.Context, businessID int64) ([]models.StockAlert, error)
	GetExpiryAlerts(ctx context.Context, businessID int64, horizonDays int) ([]models.StockAlert, error)
}

// AnalyticsSettings configures day boundaries and defaults.
type AnalyticsSettings struct {
	Location    *time.Location
	DefaultTopN int
	Now         func() time.Time
}

type analyticsService struct {
	store    repositories.Store
	cache    cache.AnalyticsCache
	settings AnalyticsSettings
}

// NewAnalyticsService creates a new instance of AnalyticsService.
func NewAnalyticsService(store repositories.Store, analyticsCache cache.AnalyticsCache, settings AnalyticsSettings) AnalyticsService {
	if analyticsCache == nil {
		analyticsCache = cache.Noop{}
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.DefaultTopN <= 0 {
		settings.DefaultTopN = 10
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &analyticsService{store: store, cache: analyticsCache, settings: settings}
}

func (s *analyticsService) GetSalesAnalysis(ctx context.Context, businessID int64, dateFrom, dateTo string, topN int) (*models.SalesAnalysis, error) {
	from, err := time.ParseInLocation(dateLayout, dateFrom, s.settings.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: date_from must be YYYY-MM-DD", ErrValidation)
	}
	to, err := time.ParseInLocation(dateLayout, dateTo, s.settings.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: date_to must be YYYY-MM-DD", ErrValidation)
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, dateFrom, dateTo)
	}
	if topN <= 0 {
		topN = s.settings.DefaultTopN
	}

	repos := s.store.Repos()
	if _, err := loadBusiness(ctx, repos, businessID); err != nil {
		return nil, err
	}

	// The generation is read before the sales so a sale committed meanwhile makes this entry unreachable.
	useCache := true
	gen, err := s.cache.Generation(ctx, businessID)
	if err != nil {
		utils.LogWarn(err, "Analytics cache generation read failed", map[string]interface{}{"business_id": businessID})
		useCache = false
	}
	key := cache.AnalysisKey{BusinessID: businessID, Generation: gen, DateFrom: dateFrom, DateTo: dateTo, TopN: topN}
	if useCache {
		if cached, ok, err := s.cache.Get(ctx, key); err != nil {
			utils.LogWarn(err, "Analytics cache read failed", map[string]interface{}{"key": key.String()})
		} else if ok {
			return cached, nil
		}
	}

	sales, err := repos.Reports.ListSalesWithLines(ctx, businessID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load sales for analysis: %w", err)
	}

	analysis := summarizeSales(sales, s.settings.Location, topN)
	analysis.BusinessID = businessID
	analysis.DateFrom = dateFrom
	analysis.DateTo = dateTo

	if useCache {
		if err := s.cache.Set(ctx, key, analysis); err != nil {
			utils.LogWarn(err, "Analytics cache write failed", map[string]interface{}{"key": key.String()})
		}
	}
	return analysis, nil
}

// summarizeSales folds sales (oldest first) into totals, day buckets and a top-N ranking.
// Products with equal units keep the order in which they were first sold.
func summarizeSales(sales []models.Sale, loc *time.Location, topN int) *models.SalesAnalysis {
	analysis := &models.SalesAnalysis{
		TotalRevenue: decimal.Zero,
		TotalMargin:  decimal.Zero,
		Daily:        []models.DailySales{},
		TopProducts:  []models.TopProduct{},
	}

	dayIndex := map[string]int{}
	productIndex := map[int64]int{}
	var ranking []models.TopProduct

	for _, sale := range sales {
		analysis.TotalRevenue = analysis.TotalRevenue.Add(sale.Total)
		analysis.TotalMargin = analysis.TotalMargin.Add(sale.MarginTotal)
		analysis.SaleCount++

		day := sale.CreatedAt.In(loc).Format(dateLayout)
		i, ok := dayIndex[day]
		if !ok {
			i = len(analysis.Daily)
			dayIndex[day] = i
			analysis.Daily = append(analysis.Daily, models.DailySales{Date: day, Revenue: decimal.Zero, Margin: decimal.Zero})
		}
		bucket := &analysis.Daily[i]
		bucket.Revenue = bucket.Revenue.Add(sale.Total)
		bucket.Margin = bucket.Margin.Add(sale.MarginTotal)
		bucket.SaleCount++

		for _, line := range sale.Lines {
			analysis.TotalUnits += line.Quantity
			bucket.UnitsSold += line.Quantity

			j, seen := productIndex[line.ProductID]
			if !seen {
				j = len(ranking)
				productIndex[line.ProductID] = j
				ranking = append(ranking, models.TopProduct{ProductID: line.ProductID, ProductName: line.ProductName, Revenue: decimal.Zero})
			}
			ranking[j].UnitsSold += line.Quantity
			ranking[j].Revenue = ranking[j].Revenue.Add(line.LineSubtotal)
		}
	}

	sort.SliceStable(analysis.Daily, func(a, b int) bool { return analysis.Daily[a].Date < analysis.Daily[b].Date })
	sort.SliceStable(ranking, func(a, b int) bool { return ranking[a].UnitsSold > ranking[b].UnitsSold })
	if len(ranking) > topN {
		ranking = ranking[:topN]
	}
	analysis.TopProducts = append(analysis.TopProducts, ranking...)
	return analysis
}

func (s *analyticsService) GetLowStockAlerts(ctx context.Context, businessID int64) ([]models.StockAlert, error) {
	repos := s.store.Repos()
	if _, err := loadBusiness(ctx, repos, businessID); err != nil {
		return nil, err
	}
	products, err := repos.Products.ListProductsByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for business %d: %w", businessID, err)
	}

	alerts := []models.StockAlert{}
	var outOfStock []int64
	for _, p := range products {
		if !p.TracksStock() {
			continue
		}
		minimum := 0
		if p.MinimumStock != nil {
			minimum = *p.MinimumStock
		}
		if *p.StockOnHand > minimum {
			continue
		}
		alert := models.StockAlert{
			AlertType:    models.AlertLowStock,
			ProductID:    p.ID,
			ProductName:  p.Name,
			BatchCode:    p.BatchCode,
			StockOnHand:  *p.StockOnHand,
			MinimumStock: minimum,
		}
		if *p.StockOnHand == 0 {
			alert.AlertType = models.AlertOutOfStock
			outOfStock = append(outOfStock, p.ID)
		}
		alerts = append(alerts, alert)
	}
	if len(outOfStock) == 0 {
		return alerts, nil
	}

	lastSales, err := repos.Reports.LastSaleTimes(ctx, businessID, outOfStock)
	if err != nil {
		// Days since last sale is best effort.
		utils.LogWarn(err, "Failed to load last sale times", map[string]interface{}{"business_id": businessID})
		return alerts, nil
	}
	now := s.settings.Now()
	for i := range alerts {
		if last, ok := lastSales[alerts[i].ProductID]; ok && alerts[i].AlertType == models.AlertOutOfStock {
			days := int(now.Sub(last).Hours() / 24)
			if days < 0 {
				days = 0
			}
			alerts[i].DaysSinceLastSale = &days
		}
	}
	return alerts, nil
}

func (s *analyticsService) GetExpiryAlerts(ctx context.Context, businessID int64, horizonDays int) ([]models.StockAlert, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("%w: horizon_days must not be negative", ErrValidation)
	}
	repos := s.store.Repos()
	if _, err := loadBusiness(ctx, repos, businessID); err != nil {
		return nil, err
	}
	products, err := repos.Products.ListProductsByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products for business %d: %w", businessID, err)
	}

	today := civilDate(s.settings.Now().In(s.settings.Location))
	alerts := []models.StockAlert{}
	for _, p := range products {
		if p.ExpirationDate == nil || !p.TracksStock() || *p.StockOnHand <= 0 {
			continue
		}
		days := int(civilDate(*p.ExpirationDate).Sub(today).Hours() / 24)
		if days < 0 || days > horizonDays {
			continue
		}
		alert := models.StockAlert{
			AlertType:       models.AlertNearExpiry,
			ProductID:       p.ID,
			ProductName:     p.Name,
			BatchCode:       p.BatchCode,
			StockOnHand:     *p.StockOnHand,
			ExpirationDate:  p.ExpirationDate,
			DaysUntilExpiry: &days,
		}
		if p.MinimumStock != nil {
			alert.MinimumStock = *p.MinimumStock
		}
		alerts = append(alerts, alert)
	}

	sort.SliceStable(alerts, func(a, b int) bool {
		if *alerts[a].DaysUntilExpiry != *alerts[b].DaysUntilExpiry {
			return *alerts[a].DaysUntilExpiry < *alerts[b].DaysUntilExpiry
		}
		return alerts[a].ProductID < alerts[b].ProductID
	})
	return alerts, nil
}

// civilDate drops the clock and zone so day differences are whole numbers.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
