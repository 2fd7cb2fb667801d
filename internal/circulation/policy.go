// internal/circulation/policy.go
package circulation

import "errors"

var (
	// ErrBookOnLoan means another loan for the book is still active.
	ErrBookOnLoan = errors.New("book is currently on loan")

	// ErrInvalidBookType means the book's type code maps to no loan tier.
	ErrInvalidBookType = errors.New("invalid book type")

	// ErrBookNotFound and ErrCustomerNotFound name the missing side of an
	// issuance request.
	ErrBookNotFound     = errors.New("book not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// loanDays maps a book's type code to its maximum loan length in days.
// The tiers are fixed: type 1 books lend the longest, type 3 the shortest.
func loanDays(bookType int) (int, error) {
	switch bookType {
	case 1:
		return 10, nil
	case 2:
		return 5, nil
	case 3:
		return 2, nil
	default:
		return 0, ErrInvalidBookType
	}
}
