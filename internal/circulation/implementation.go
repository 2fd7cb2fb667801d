// internal/circulation/implementation.go
package circulation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librecord/internal/membership"
	"librecord/internal/storage"
)

var dialect = goqu.Dialect("postgres")

// service implements the Service interface.
type service struct {
	db          *sqlx.DB
	members     membership.Service
	log         *zap.Logger
	tracer      trace.Tracer
	clock       func() time.Time
	loansIssued metric.Int64Counter
}

// Option configures the circulation service.
type Option func(*service)

// WithClock overrides the time source, used by tests to pin "now".
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		s.clock = clock
	}
}

// NewService creates a new circulation service instance.
func NewService(db *sqlx.DB, members membership.Service, log *zap.Logger, opts ...Option) Service {
	s := &service{
		db:      db,
		members: members,
		log:     log,
		tracer:  otel.Tracer("librecord/circulation"),
		clock:   time.Now,
	}

	counter, err := otel.Meter("librecord/circulation").Int64Counter("loans.issued",
		metric.WithDescription("Number of loans issued."))
	if err != nil {
		log.Warn("failed to create loans counter", zap.Error(err))
	} else {
		s.loansIssued = counter
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// IssueLoan runs the issuance workflow: look up the book and customer, check
// that no loan for the book is still active, pick the duration tier from the
// book type and persist the new loan. The whole read-then-decide-then-write
// sequence runs inside one serializable transaction so two concurrent
// requests cannot both pass the availability check.
func (s *service) IssueLoan(ctx context.Context, custID, bookID int64) (*LoanView, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.issue_loan",
		trace.WithAttributes(
			attribute.Int64("customer.id", custID),
			attribute.Int64("book.id", bookID),
		),
	)
	defer span.End()

	now := s.clock()

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	bookQuery, bookArgs, err := dialect.From("books").
		Select("name", "type").
		Where(goqu.C("id").Eq(bookID)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}

	var bookName string
	var bookType int
	if err := tx.QueryRowxContext(ctx, bookQuery, bookArgs...).Scan(&bookName, &bookType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	custQuery, custArgs, err := dialect.From("customers").
		Select("name", "mail").
		Where(goqu.C("id").Eq(custID)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build customer query: %w", err)
	}

	var custName string
	var custMail sql.NullString
	if err := tx.QueryRowxContext(ctx, custQuery, custArgs...).Scan(&custName, &custMail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	// A loan due exactly now still blocks issuance: the boundary is inclusive.
	activeQuery, activeArgs, err := dialect.From("loans").
		Select(goqu.L("1")).
		Where(goqu.C("book_id").Eq(bookID), goqu.C("return_date").Gte(now)).
		Limit(1).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build active loan query: %w", err)
	}

	var one int
	err = tx.QueryRowxContext(ctx, activeQuery, activeArgs...).Scan(&one)
	switch {
	case err == nil:
		return nil, ErrBookOnLoan
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check active loan: %w", err)
	}

	days, err := loanDays(bookType)
	if err != nil {
		return nil, err
	}
	returnDate := now.AddDate(0, 0, days)

	insertQuery, insertArgs, err := dialect.Insert("loans").
		Rows(goqu.Record{
			"cust_id":     custID,
			"book_id":     bookID,
			"loan_date":   now,
			"return_date": returnDate,
		}).
		Returning("id").
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	var loanID int64
	if err := tx.QueryRowxContext(ctx, insertQuery, insertArgs...).Scan(&loanID); err != nil {
		return nil, fmt.Errorf("insert loan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	if s.loansIssued != nil {
		s.loansIssued.Add(ctx, 1)
	}
	s.log.Info("loan issued",
		zap.Int64("loan_id", loanID),
		zap.Int64("book_id", bookID),
		zap.Int64("customer_id", custID),
		zap.Time("return_date", returnDate),
	)

	view := &LoanView{
		ID:           loanID,
		CustomerID:   custID,
		CustomerName: &custName,
		BookID:       bookID,
		BookName:     bookName,
		LoanDate:     now.Format(dateLayout),
		ReturnDate:   returnDate.Format(dateLayout),
	}
	if custMail.Valid {
		view.CustomerEmail = &custMail.String
	}

	return view, nil
}

// ListLoans returns every loan, denormalized with customer and book detail.
func (s *service) ListLoans(ctx context.Context) ([]*LoanView, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.list_loans")
	defer span.End()

	return s.selectViews(ctx, loanViewQuery())
}

// ListLoansByEmail returns the loans of the customer with the given mail
// address. An unknown address fails with ErrCustomerNotFound.
func (s *service) ListLoansByEmail(ctx context.Context, mail string) ([]*LoanView, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.list_loans_by_email")
	defer span.End()

	customer, err := s.members.GetCustomerByEmail(ctx, mail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("resolve customer: %w", err)
	}

	return s.selectViews(ctx, loanViewQuery().Where(goqu.I("l.cust_id").Eq(customer.ID)))
}

func (s *service) selectViews(ctx context.Context, ds *goqu.SelectDataset) ([]*LoanView, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan query: %w", err)
	}

	var rows []loanRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}

	views := make([]*LoanView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}

	return views, nil
}

// loanViewQuery joins loans with their book and customer. The customer join
// is a left join: deleting a customer leaves its loans behind, and those
// still have to list.
func loanViewQuery() *goqu.SelectDataset {
	return dialect.From(goqu.T("loans").As("l")).
		Select(
			goqu.I("l.id").As("id"),
			goqu.I("l.cust_id").As("cust_id"),
			goqu.I("c.name").As("customer_name"),
			goqu.I("c.mail").As("customer_email"),
			goqu.I("l.book_id").As("book_id"),
			goqu.I("b.name").As("book_name"),
			goqu.I("l.loan_date").As("loan_date"),
			goqu.I("l.return_date").As("return_date"),
		).
		LeftJoin(goqu.T("customers").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("l.cust_id")))).
		InnerJoin(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Order(goqu.I("l.id").Asc())
}
