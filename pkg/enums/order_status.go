package enums

// OrderStatus records how a fulfilled payment was handled.
type OrderStatus string

const (
	// OrderStatusFulfilled means the product was created or updated with a launch date.
	OrderStatusFulfilled OrderStatus = "fulfilled"
	// OrderStatusManualReview means payment succeeded but no slot could be booked.
	OrderStatusManualReview OrderStatus = "manual_review"
)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}
