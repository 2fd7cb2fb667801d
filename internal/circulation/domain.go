// internal/circulation/domain.go
package circulation

import (
	"database/sql"
	"time"
)

// dateLayout renders timestamps as "Month Day, Year" in views.
const dateLayout = "January 02, 2006"

// Loan is the persisted lending record. A loan is active while its return
// date has not passed; there is no explicit return event.
type Loan struct {
	ID         int64     `json:"id" db:"id"`
	CustID     int64     `json:"cust_id" db:"cust_id"`
	BookID     int64     `json:"book_id" db:"book_id"`
	LoanDate   time.Time `json:"loan_date" db:"loan_date"`
	ReturnDate time.Time `json:"return_date" db:"return_date"`
}

// LoanView flattens a loan with its customer and book detail for listings
// and the issuance response. Customer fields are null when the customer was
// deleted after the loan was issued.
type LoanView struct {
	ID            int64   `json:"id"`
	CustomerID    int64   `json:"customer_id"`
	CustomerName  *string `json:"customer_name"`
	CustomerEmail *string `json:"customer_email"`
	BookID        int64   `json:"book_id"`
	BookName      string  `json:"book_name"`
	LoanDate      string  `json:"loan_date"`
	ReturnDate    string  `json:"return_date"`
}

// loanRow is the scan target for the loan listing join.
type loanRow struct {
	ID            int64          `db:"id"`
	CustID        int64          `db:"cust_id"`
	CustomerName  sql.NullString `db:"customer_name"`
	CustomerEmail sql.NullString `db:"customer_email"`
	BookID        int64          `db:"book_id"`
	BookName      string         `db:"book_name"`
	LoanDate      time.Time      `db:"loan_date"`
	ReturnDate    time.Time      `db:"return_date"`
}

func (r loanRow) view() *LoanView {
	v := &LoanView{
		ID:         r.ID,
		CustomerID: r.CustID,
		BookID:     r.BookID,
		BookName:   r.BookName,
		LoanDate:   r.LoanDate.Format(dateLayout),
		ReturnDate: r.ReturnDate.Format(dateLayout),
	}
	if r.CustomerName.Valid {
		v.CustomerName = &r.CustomerName.String
	}
	if r.CustomerEmail.Valid {
		v.CustomerEmail = &r.CustomerEmail.String
	}
	return v
}
