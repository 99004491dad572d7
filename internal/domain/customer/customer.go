package customer

import "context"

// Profile is the customer record upserted after every persisted order.
type Profile struct {
	ID              string
	Name            string
	Email           string
	Phone           string
	ShippingAddress string
}

// Store persists customer profiles.
type Store interface {
	Upsert(ctx context.Context, p Profile) error
}
