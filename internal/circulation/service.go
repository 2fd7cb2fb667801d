// internal/circulation/service.go
package circulation

import "context"

// Service defines the interface for the circulation service.
type Service interface {
	IssueLoan(ctx context.Context, custID, bookID int64) (*LoanView, error)
	ListLoans(ctx context.Context) ([]*LoanView, error)
	ListLoansByEmail(ctx context.Context, mail string) ([]*LoanView, error)
}
