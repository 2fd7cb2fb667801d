package circulation

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librecord/internal/catalog"
	"librecord/internal/membership"
	"librecord/internal/storage/storagetest"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type circulationSuite struct {
	db        *sqlx.DB
	books     catalog.Service
	customers membership.Service
	loans     Service
}

func setupCirculation(t *testing.T) *circulationSuite {
	t.Helper()

	db := storagetest.Connect(t)
	customers := membership.NewService(db, zap.NewNop())

	return &circulationSuite{
		db:        db,
		books:     catalog.NewService(db, zap.NewNop()),
		customers: customers,
		loans: NewService(db, customers, zap.NewNop(),
			WithClock(func() time.Time { return testNow })),
	}
}

func (s *circulationSuite) givenBook(t *testing.T, bookType int) int64 {
	t.Helper()
	book, err := s.books.AddBook(context.Background(), "Some Book", "Some Author", 1999, bookType, "cover.png")
	require.NoError(t, err)
	return book.ID
}

func (s *circulationSuite) givenCustomer(t *testing.T, mail *string) int64 {
	t.Helper()
	customer, err := s.customers.AddCustomer(context.Background(), "Ada", "London", 36, mail, "female")
	require.NoError(t, err)
	return customer.ID
}

func (s *circulationSuite) givenLoan(t *testing.T, custID, bookID int64, loanDate, returnDate time.Time) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO loans (cust_id, book_id, loan_date, return_date) VALUES ($1, $2, $3, $4)`,
		custID, bookID, loanDate, returnDate,
	)
	require.NoError(t, err)
}

func Test_IssueLoan_TierDurations(t *testing.T) {
	cases := []struct {
		name       string
		bookType   int
		returnDate string
	}{
		{"type 1 due in 10 days", 1, "March 20, 2025"},
		{"type 2 due in 5 days", 2, "March 15, 2025"},
		{"type 3 due in 2 days", 3, "March 12, 2025"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := setupCirculation(t)
			bookID := s.givenBook(t, tc.bookType)
			mail := "ada@example.com"
			custID := s.givenCustomer(t, &mail)

			view, err := s.loans.IssueLoan(context.Background(), custID, bookID)
			require.NoError(t, err)

			assert.Equal(t, custID, view.CustomerID)
			assert.Equal(t, bookID, view.BookID)
			assert.Equal(t, "Some Book", view.BookName)
			assert.Equal(t, "March 10, 2025", view.LoanDate)
			assert.Equal(t, tc.returnDate, view.ReturnDate)
			require.NotNil(t, view.CustomerEmail)
			assert.Equal(t, mail, *view.CustomerEmail)
		})
	}
}

func Test_IssueLoan_ActiveLoanBlocksAnyCustomer(t *testing.T) {
	s := setupCirculation(t)
	bookID := s.givenBook(t, 1)
	first := s.givenCustomer(t, nil)
	second := s.givenCustomer(t, nil)

	_, err := s.loans.IssueLoan(context.Background(), first, bookID)
	require.NoError(t, err)

	_, err = s.loans.IssueLoan(context.Background(), second, bookID)
	assert.ErrorIs(t, err, ErrBookOnLoan)
}

func Test_IssueLoan_LoanDueExactlyNowStillBlocks(t *testing.T) {
	s := setupCirculation(t)
	bookID := s.givenBook(t, 1)
	custID := s.givenCustomer(t, nil)
	s.givenLoan(t, custID, bookID, testNow.AddDate(0, 0, -10), testNow)

	_, err := s.loans.IssueLoan(context.Background(), custID, bookID)
	assert.ErrorIs(t, err, ErrBookOnLoan)
}

func Test_IssueLoan_LapsedLoanDoesNotBlock(t *testing.T) {
	s := setupCirculation(t)
	bookID := s.givenBook(t, 2)
	custID := s.givenCustomer(t, nil)
	s.givenLoan(t, custID, bookID, testNow.AddDate(0, 0, -10), testNow.AddDate(0, 0, -1))

	view, err := s.loans.IssueLoan(context.Background(), custID, bookID)
	require.NoError(t, err)
	assert.Equal(t, "March 15, 2025", view.ReturnDate)
}

func Test_IssueLoan_InvalidBookType(t *testing.T) {
	s := setupCirculation(t)
	bookID := s.givenBook(t, 4)
	custID := s.givenCustomer(t, nil)

	_, err := s.loans.IssueLoan(context.Background(), custID, bookID)
	assert.ErrorIs(t, err, ErrInvalidBookType)
}

func Test_IssueLoan_UnknownBookOrCustomer(t *testing.T) {
	s := setupCirculation(t)
	bookID := s.givenBook(t, 1)
	custID := s.givenCustomer(t, nil)

	_, err := s.loans.IssueLoan(context.Background(), custID, bookID+999)
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = s.loans.IssueLoan(context.Background(), custID+999, bookID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func Test_ListLoansByEmail(t *testing.T) {
	s := setupCirculation(t)
	bookID := s.givenBook(t, 1)
	mail := "ada@example.com"
	custID := s.givenCustomer(t, &mail)
	otherID := s.givenCustomer(t, nil)
	otherBook := s.givenBook(t, 2)

	_, err := s.loans.IssueLoan(context.Background(), custID, bookID)
	require.NoError(t, err)
	_, err = s.loans.IssueLoan(context.Background(), otherID, otherBook)
	require.NoError(t, err)

	views, err := s.loans.ListLoansByEmail(context.Background(), mail)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, custID, views[0].CustomerID)
	assert.Equal(t, "March 10, 2025", views[0].LoanDate)

	_, err = s.loans.ListLoansByEmail(context.Background(), "nonexistent@example.com")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func Test_ListLoans_KeepsLoansOfDeletedCustomers(t *testing.T) {
	s := setupCirculation(t)
	bookID := s.givenBook(t, 1)
	custID := s.givenCustomer(t, nil)

	_, err := s.loans.IssueLoan(context.Background(), custID, bookID)
	require.NoError(t, err)

	require.NoError(t, s.customers.DeleteCustomer(context.Background(), custID))

	views, err := s.loans.ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].CustomerName)
	assert.Equal(t, bookID, views[0].BookID)
}
