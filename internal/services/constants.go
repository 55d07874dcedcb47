package services

// Sale statuses. Only SaleStatusCompleted is produced here; the others are terminal
// values reserved for void/refund flows.
const (
	SaleStatusCompleted = "completed"
	SaleStatusVoided    = "voided"
	SaleStatusRefunded  = "refunded"
)

// Payment methods accepted on a sale.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
	PaymentOther    = "other"
)

// Movement types written to the inventory journal.
const (
	MovementTypeSale            = "sale"             // finished-good debit
	MovementTypeSaleConsumption = "sale_consumption" // ingredient consumed by a recipe
)

// Role that bypasses business ownership checks.
const RoleAdmin = "Admin"

func isValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentOther:
		return true
	}
	return false
}
