// internal/membership/service.go
package membership

import "context"

// Service defines the interface for the customer registry.
type Service interface {
	AddCustomer(ctx context.Context, name, city string, age int, mail *string, gender string) (*Customer, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	GetCustomerByEmail(ctx context.Context, mail string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, id int64, patch CustomerPatch) (*Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}
