// internal/catalog/domain.go
package catalog

// Book represents a single physical copy in the collection. The type code
// selects the loan-duration tier used by circulation.
type Book struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Author        string  `json:"author" db:"author"`
	YearPublished int     `json:"year_published" db:"year_published"`
	Type          int     `json:"type" db:"type"`
	Img           *string `json:"img" db:"img"`
}

// BookPatch carries the mutable fields of a partial update. Nil fields are
// left untouched.
type BookPatch struct {
	Name          *string `json:"name"`
	Author        *string `json:"author"`
	YearPublished *int    `json:"year_published"`
	Type          *int    `json:"type"`
	Img           *string `json:"img"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.Name == nil && p.Author == nil && p.YearPublished == nil && p.Type == nil && p.Img == nil
}
