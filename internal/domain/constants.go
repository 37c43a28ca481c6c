package domain

// Order Statuses
const (
	OrderStatusPending  = "pending" // written before the carrier call, never shown to customers
	OrderStatusPlaced   = "placed"
	OrderStatusCanceled = "canceled"
)

// Payment Statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Payment Methods
const (
	PaymentMethodCOD     = "cod"
	PaymentMethodPrepaid = "prepaid"
)

// Roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var PaymentMethods = []string{
	PaymentMethodCOD,
	PaymentMethodPrepaid,
}

func IsValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}
