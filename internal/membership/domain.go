// internal/membership/domain.go
package membership

// Customer represents a registered library customer. Mail is optional but
// unique across all customers when present.
type Customer struct {
	ID     int64   `json:"id" db:"id"`
	Name   string  `json:"name" db:"name"`
	City   string  `json:"city" db:"city"`
	Age    int     `json:"age" db:"age"`
	Mail   *string `json:"mail" db:"mail"`
	Gender string  `json:"gender" db:"gender"`
}

// CustomerPatch carries the mutable fields of a partial update. Nil fields
// are left untouched.
type CustomerPatch struct {
	Name   *string `json:"name"`
	City   *string `json:"city"`
	Age    *int    `json:"age"`
	Mail   *string `json:"mail"`
	Gender *string `json:"gender"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CustomerPatch) IsEmpty() bool {
	return p.Name == nil && p.City == nil && p.Age == nil && p.Mail == nil && p.Gender == nil
}
