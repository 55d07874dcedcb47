package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bizhub_backend/internal/cache"
	"bizhub_backend/internal/models"
	"bizhub_backend/internal/repositories"
	"bizhub_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// SaleLineRequest is one requested line of a direct sale.
type SaleLineRequest struct {
	ProductID    int64            `json:"product_id" binding:"required"`
	Quantity     int              `json:"quantity" binding:"required"`
	UnitPrice    *decimal.Decimal `json:"unit_price" binding:"required"`
	UnitDiscount decimal.Decimal  `json:"unit_discount"`
}

// CreateSaleRequest is used for creating a direct sale.
type CreateSaleRequest struct {
	BusinessID    int64             `json:"-"`
	CustomerID    *int64            `json:"customer_id"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Discount      decimal.Decimal   `json:"discount"`
	Taxes         decimal.Decimal   `json:"taxes"`
	Notes         *string           `json:"notes"`
	Lines         []SaleLineRequest `json:"line_items" binding:"required,dive"`
}

// FinalizeCartRequest carries the sale header applied when a cart is checked out.
type FinalizeCartRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"required"`
	Discount      decimal.Decimal `json:"discount"`
	Taxes         decimal.Decimal `json:"taxes"`
	Notes         *string         `json:"notes"`
}

// --- End of DTOs ---

// SaleService turns direct requests and carts into committed sales.
type SaleService interface {
	CreateSale(ctx context.Context, req CreateSaleRequest) (*models.Sale, error)
	FinalizeCart(ctx context.Context, cartID int64, req FinalizeCartRequest) (*models.Sale, error)
	GetSale(ctx context.Context, saleID int64) (*models.Sale, error)
	ListSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error)
}

// SaleSettings tunes the sale processor.
type SaleSettings struct {
	// AllowOversell clamps ledger debits at zero instead of rejecting the sale.
	AllowOversell bool
	// Now stamps sales; time.Now when nil.
	Now func() time.Time
}

type saleService struct {
	store    repositories.Store
	cache    cache.AnalyticsCache
	settings SaleSettings
}

// NewSaleService creates a new instance of SaleService.
func NewSaleService(store repositories.Store, analyticsCache cache.AnalyticsCache, settings SaleSettings) SaleService {
	if analyticsCache == nil {
		analyticsCache = cache.Noop{}
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &saleService{store: store, cache: analyticsCache, settings: settings}
}

func (s *saleService) CreateSale(ctx context.Context, req CreateSaleRequest) (*models.Sale, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrValidation)
	}
	if err := validateHeader(req.PaymentMethod, req.Discount, req.Taxes); err != nil {
		return nil, err
	}
	for i, line := range req.Lines {
		if err := validateLine(i, line); err != nil {
			return nil, err
		}
	}

	sale := &models.Sale{
		BusinessID:    req.BusinessID,
		CustomerID:    req.CustomerID,
		Discount:      req.Discount,
		Taxes:         req.Taxes,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	err := s.store.WithinTx(ctx, func(repos repositories.Repositories) error {
		if _, err := loadBusiness(ctx, repos, req.BusinessID); err != nil {
			return err
		}
		return s.processSale(ctx, repos, sale, req.Lines)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, sale)
	return sale, nil
}

func (s *saleService) FinalizeCart(ctx context.Context, cartID int64, req FinalizeCartRequest) (*models.Sale, error) {
	if err := validateHeader(req.PaymentMethod, req.Discount, req.Taxes); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := s.store.WithinTx(ctx, func(repos repositories.Repositories) error {
		cart, err := repos.Carts.GetCartForUpdate(ctx, cartID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrCartNotFound, cartID)
			}
			return fmt.Errorf("failed to lock cart %d: %w", cartID, err)
		}
		if !cart.Active {
			return fmt.Errorf("%w: cart ID %d", ErrCartAlreadyFinalized, cartID)
		}

		items, err := repos.Carts.ListCartItems(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to load items for cart %d: %w", cartID, err)
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: cart ID %d", ErrEmptyCart, cartID)
		}

		// Discount is applied at the header only; cart lines carry their captured price.
		lines := make([]SaleLineRequest, 0, len(items))
		for _, item := range items {
			price := item.UnitPrice
			lines = append(lines, SaleLineRequest{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: &price,
			})
		}

		sale = &models.Sale{
			BusinessID:    cart.BusinessID,
			CustomerID:    cart.CustomerID,
			CartID:        &cart.ID,
			Discount:      req.Discount,
			Taxes:         req.Taxes,
			PaymentMethod: req.PaymentMethod,
			Notes:         req.Notes,
		}
		if err := s.processSale(ctx, repos, sale, lines); err != nil {
			return err
		}

		if err := repos.Carts.DeactivateCart(ctx, cartID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: cart ID %d", ErrCartAlreadyFinalized, cartID)
			}
			return fmt.Errorf("failed to deactivate cart %d: %w", cartID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, sale)
	return sale, nil
}

// processSale prices, costs and debits every line in order, then writes the sale aggregate
// and the movement journal. It must run inside a transaction.
func (s *saleService) processSale(ctx context.Context, repos repositories.Repositories, sale *models.Sale, lines []SaleLineRequest) error {
	subtotal := decimal.Zero
	costTotal := decimal.Zero
	marginTotal := decimal.Zero
	saleLines := make([]models.SaleLineItem, 0, len(lines))
	var movements []models.InventoryMovement

	for _, lineReq := range lines {
		product, err := repos.Products.GetProductByID(ctx, lineReq.ProductID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrProductNotFound, lineReq.ProductID)
			}
			return fmt.Errorf("failed to fetch product %d: %w", lineReq.ProductID, err)
		}
		if product.BusinessID != sale.BusinessID {
			return fmt.Errorf("%w: ID %d does not belong to business %d", ErrProductNotFound, product.ID, sale.BusinessID)
		}

		recipe, err := repos.Recipes.ListRecipeLines(ctx, product.ID)
		if err != nil {
			return fmt.Errorf("failed to load recipe for product %d: %w", product.ID, err)
		}

		qty := decimal.NewFromInt(int64(lineReq.Quantity))
		lineSubtotal := (*lineReq.UnitPrice).Sub(lineReq.UnitDiscount).Mul(qty)
		unitCost := CostOfGoods(recipe)
		lineCost := unitCost.Mul(qty)
		lineMargin := lineSubtotal.Sub(lineCost)

		subtotal = subtotal.Add(lineSubtotal)
		costTotal = costTotal.Add(lineCost)
		marginTotal = marginTotal.Add(lineMargin)

		if product.TracksStock() {
			available, err := repos.Products.DebitStock(ctx, product.ID, lineReq.Quantity, s.settings.AllowOversell)
			if err != nil {
				if errors.Is(err, repositories.ErrInsufficientQuantity) {
					return &ShortageError{
						Kind:      ErrInsufficientStock,
						ItemID:    product.ID,
						ItemName:  product.Name,
						Available: decimal.NewFromInt(int64(available)),
						Requested: qty,
					}
				}
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: ID %d", ErrProductNotFound, product.ID)
				}
				return fmt.Errorf("failed to update stock for product %s (ID: %d): %w", product.Name, product.ID, err)
			}
			movements = append(movements, models.InventoryMovement{
				BusinessID:      sale.BusinessID,
				ItemKind:        models.ItemKindProduct,
				ItemID:          product.ID,
				ItemName:        product.Name,
				MovementType:    MovementTypeSale,
				QuantityChanged: qty.Neg(),
			})
		}

		for _, rl := range recipe {
			required := rl.QuantityRequired.Mul(qty)
			available, err := repos.Ingredients.DebitIngredient(ctx, rl.IngredientID, required, s.settings.AllowOversell)
			if err != nil {
				if errors.Is(err, repositories.ErrInsufficientQuantity) {
					return &ShortageError{
						Kind:      ErrInsufficientIngredient,
						ItemID:    rl.IngredientID,
						ItemName:  rl.IngredientName,
						Available: available,
						Requested: required,
					}
				}
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: ID %d required by product %s (ID: %d)",
						ErrIngredientNotFound, rl.IngredientID, product.Name, product.ID)
				}
				return fmt.Errorf("failed to consume ingredient %d for product %d: %w", rl.IngredientID, product.ID, err)
			}
			movements = append(movements, models.InventoryMovement{
				BusinessID:      sale.BusinessID,
				ItemKind:        models.ItemKindIngredient,
				ItemID:          rl.IngredientID,
				ItemName:        rl.IngredientName,
				MovementType:    MovementTypeSaleConsumption,
				QuantityChanged: required.Neg(),
			})
		}

		saleLines = append(saleLines, models.SaleLineItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     lineReq.Quantity,
			UnitPrice:    *lineReq.UnitPrice,
			UnitDiscount: lineReq.UnitDiscount,
			LineSubtotal: lineSubtotal,
			UnitCost:     unitCost,
			LineMargin:   lineMargin,
			BatchCode:    product.BatchCode,
		})
	}

	total := subtotal.Sub(sale.Discount).Add(sale.Taxes)
	if total.IsNegative() {
		return fmt.Errorf("%w: discount %s exceeds subtotal plus taxes", ErrValidation, sale.Discount.String())
	}

	now := s.settings.Now()
	sale.SaleNumber = newSaleNumber(now)
	sale.Subtotal = subtotal
	sale.Total = total
	sale.CostTotal = costTotal
	sale.MarginTotal = marginTotal
	sale.Status = SaleStatusCompleted
	sale.CreatedAt = now

	saleID, err := repos.Sales.CreateSale(ctx, sale)
	if err != nil {
		return fmt.Errorf("failed to create sale record: %w", err)
	}
	sale.ID = saleID

	for i := range saleLines {
		saleLines[i].SaleID = saleID
		if _, err := repos.Sales.CreateSaleLineItem(ctx, &saleLines[i]); err != nil {
			return fmt.Errorf("failed to create sale line item (product_id: %d): %w", saleLines[i].ProductID, err)
		}
	}
	sale.Lines = saleLines

	reason := "Sale " + sale.SaleNumber
	for i := range movements {
		movements[i].SaleID = &sale.ID
		movements[i].Reason = &reason
		movements[i].MovementDate = now
		if _, err := repos.Movements.CreateMovement(ctx, &movements[i]); err != nil {
			return fmt.Errorf("failed to record inventory movement for %s %d: %w",
				movements[i].ItemKind, movements[i].ItemID, err)
		}
	}
	return nil
}

func (s *saleService) afterCommit(ctx context.Context, sale *models.Sale) {
	utils.LogInfo("Sale committed", map[string]interface{}{
		"sale_id":     sale.ID,
		"sale_number": sale.SaleNumber,
		"business_id": sale.BusinessID,
		"total":       sale.Total.String(),
		"lines":       len(sale.Lines),
	})
	if err := s.cache.InvalidateBusiness(ctx, sale.BusinessID); err != nil {
		utils.LogWarn(err, "Failed to invalidate analytics cache", map[string]interface{}{"business_id": sale.BusinessID})
	}
}

func (s *saleService) GetSale(ctx context.Context, saleID int64) (*models.Sale, error) {
	repos := s.store.Repos()
	sale, err := repos.Sales.GetSaleByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrSaleNotFound, saleID)
		}
		return nil, fmt.Errorf("failed to get sale by ID from repository: %w", err)
	}

	items, err := repos.Sales.GetSaleLineItems(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items for sale %d: %w", saleID, err)
	}
	sale.Lines = items
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error) {
	if filters.Skip < 0 {
		return nil, 0, fmt.Errorf("%w: skip must not be negative", ErrValidation)
	}
	if filters.Limit <= 0 {
		filters.Limit = 100
	}
	if filters.Limit > 500 {
		filters.Limit = 500
	}
	sales, totalCount, err := s.store.Repos().Sales.ListSales(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sales: %w", err)
	}
	return sales, totalCount, nil
}

func validateHeader(paymentMethod string, discount, taxes decimal.Decimal) error {
	if !isValidPaymentMethod(paymentMethod) {
		return fmt.Errorf("%w: payment_method %q is not one of cash, card, transfer, other", ErrValidation, paymentMethod)
	}
	if discount.IsNegative() {
		return fmt.Errorf("%w: discount must not be negative", ErrValidation)
	}
	if taxes.IsNegative() {
		return fmt.Errorf("%w: taxes must not be negative", ErrValidation)
	}
	return nil
}

func validateLine(index int, line SaleLineRequest) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: line %d: quantity for product ID %d must be positive", ErrValidation, index+1, line.ProductID)
	}
	if line.UnitPrice == nil {
		return fmt.Errorf("%w: line %d: unit_price is required", ErrValidation, index+1)
	}
	if line.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: line %d: unit_price must not be negative", ErrValidation, index+1)
	}
	if line.UnitDiscount.IsNegative() || line.UnitDiscount.GreaterThan(*line.UnitPrice) {
		return fmt.Errorf("%w: line %d: unit_discount must be between 0 and unit_price", ErrValidation, index+1)
	}
	return nil
}

// newSaleNumber builds "V-<yyyymmddhhmmss>-<6 hex>".
func newSaleNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "V-" + at.Format("20060102150405") + "-" + suffix
}
