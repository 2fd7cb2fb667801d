// internal/membership/implementation.go
package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"librecord/internal/storage"
)

var dialect = goqu.Dialect("postgres")

var customerColumns = []interface{}{"id", "name", "city", "age", "mail", "gender"}

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	log    *zap.Logger
	tracer trace.Tracer
}

// NewService creates a new membership service instance.
func NewService(db *sqlx.DB, log *zap.Logger) Service {
	return &service{
		db:     db,
		log:    log,
		tracer: otel.Tracer("librecord/membership"),
	}
}

// AddCustomer registers a new customer. A mail address already belonging to
// another customer fails with storage.ErrDuplicate; a nil mail never does.
func (s *service) AddCustomer(ctx context.Context, name, city string, age int, mail *string, gender string) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "membership.add_customer")
	defer span.End()

	query, args, err := dialect.Insert("customers").
		Rows(goqu.Record{
			"name":   name,
			"city":   city,
			"age":    age,
			"mail":   mail,
			"gender": gender,
		}).
		Returning(customerColumns...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	customer := &Customer{}
	if err := s.db.QueryRowxContext(ctx, query, args...).StructScan(customer); err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("customer mail: %w", storage.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	span.SetAttributes(attribute.Int64("customer.id", customer.ID))
	s.log.Info("customer added", zap.Int64("customer_id", customer.ID))

	return customer, nil
}

// GetCustomer retrieves a customer by id.
func (s *service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "membership.get_customer",
		trace.WithAttributes(attribute.Int64("customer.id", id)))
	defer span.End()

	query, args, err := dialect.From("customers").
		Select(customerColumns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	customer := &Customer{}
	if err := s.db.GetContext(ctx, customer, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

// GetCustomerByEmail retrieves the customer whose mail matches exactly.
func (s *service) GetCustomerByEmail(ctx context.Context, mail string) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "membership.get_customer_by_email")
	defer span.End()

	query, args, err := dialect.From("customers").
		Select(customerColumns...).
		Where(goqu.C("mail").Eq(mail)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	customer := &Customer{}
	if err := s.db.GetContext(ctx, customer, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer with mail %s: %w", mail, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get customer by mail: %w", err)
	}

	return customer, nil
}

// ListCustomers returns every registered customer.
func (s *service) ListCustomers(ctx context.Context) ([]*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "membership.list_customers")
	defer span.End()

	query, args, err := dialect.From("customers").
		Select(customerColumns...).
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	var customers []*Customer
	if err := s.db.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	return customers, nil
}

// UpdateCustomer applies an allow-listed partial update.
func (s *service) UpdateCustomer(ctx context.Context, id int64, patch CustomerPatch) (*Customer, error) {
	ctx, span := s.tracer.Start(ctx, "membership.update_customer",
		trace.WithAttributes(attribute.Int64("customer.id", id)))
	defer span.End()

	if patch.IsEmpty() {
		return s.GetCustomer(ctx, id)
	}

	record := goqu.Record{}
	if patch.Name != nil {
		record["name"] = *patch.Name
	}
	if patch.City != nil {
		record["city"] = *patch.City
	}
	if patch.Age != nil {
		record["age"] = *patch.Age
	}
	if patch.Mail != nil {
		record["mail"] = *patch.Mail
	}
	if patch.Gender != nil {
		record["gender"] = *patch.Gender
	}

	query, args, err := dialect.Update("customers").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Returning(customerColumns...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	customer := &Customer{}
	if err := s.db.QueryRowxContext(ctx, query, args...).StructScan(customer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("customer %d: %w", id, storage.ErrNotFound)
		}
		if storage.IsUniqueViolation(err) {
			return nil, fmt.Errorf("customer mail: %w", storage.ErrDuplicate)
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}

	s.log.Info("customer updated", zap.Int64("customer_id", id))

	return customer, nil
}

// DeleteCustomer removes a customer. Loan records referencing the customer
// stay behind as history.
func (s *service) DeleteCustomer(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "membership.delete_customer",
		trace.WithAttributes(attribute.Int64("customer.id", id)))
	defer span.End()

	query, args, err := dialect.Delete("customers").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("customer %d: %w", id, storage.ErrNotFound)
	}

	s.log.Info("customer deleted", zap.Int64("customer_id", id))

	return nil
}
