// internal/catalog/implementation.go
package catalog

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

var bookColumns = []interface{}{"id", "name", "author", "year_published", "type", "img"}

// service implements the Service interface.
type service struct {
	db     *sqlx.DB
	log    *zap.Logger
	tracer trace.Tracer
}

// NewService creates a new catalog service instance.
func NewService(db *sqlx.DB, log *zap.Logger) Service {
	return &service{
		db:     db,
		log:    log,
		tracer: otel.Tracer("librecord/catalog"),
	}
}

// AddBook creates a new book in the catalog.
func (s *service) AddBook(ctx context.Context, name, author string, yearPublished, bookType int, img string) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.add_book")
	defer span.End()

	query, args, err := dialect.Insert("books").
		Rows(goqu.Record{
			"name":           name,
			"author":         author,
			"year_published": yearPublished,
			"type":           bookType,
			"img":            img,
		}).
		Returning(bookColumns...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build insert query: %w", err)
	}

	book := &Book{}
	if err := s.db.QueryRowxContext(ctx, query, args...).StructScan(book); err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}

	span.SetAttributes(attribute.Int64("book.id", book.ID))
	s.log.Info("book added", zap.Int64("book_id", book.ID), zap.String("name", name))

	return book, nil
}

// GetBook retrieves a book by its id.
func (s *service) GetBook(ctx context.Context, id int64) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.get_book",
		trace.WithAttributes(attribute.Int64("book.id", id)))
	defer span.End()

	query, args, err := dialect.From("books").
		Select(bookColumns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	book := &Book{}
	if err := s.db.GetContext(ctx, book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

// ListBooks returns every book in the catalog.
func (s *service) ListBooks(ctx context.Context) ([]*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.list_books")
	defer span.End()

	query, args, err := dialect.From("books").
		Select(bookColumns...).
		Order(goqu.C("id").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	var books []*Book
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return books, nil
}

// UpdateBook applies an allow-listed partial update and returns the stored book.
func (s *service) UpdateBook(ctx context.Context, id int64, patch BookPatch) (*Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.update_book",
		trace.WithAttributes(attribute.Int64("book.id", id)))
	defer span.End()

	if patch.IsEmpty() {
		return s.GetBook(ctx, id)
	}

	record := goqu.Record{}
	if patch.Name != nil {
		record["name"] = *patch.Name
	}
	if patch.Author != nil {
		record["author"] = *patch.Author
	}
	if patch.YearPublished != nil {
		record["year_published"] = *patch.YearPublished
	}
	if patch.Type != nil {
		record["type"] = *patch.Type
	}
	if patch.Img != nil {
		record["img"] = *patch.Img
	}

	query, args, err := dialect.Update("books").
		Set(record).
		Where(goqu.C("id").Eq(id)).
		Returning(bookColumns...).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build update query: %w", err)
	}

	book := &Book{}
	if err := s.db.QueryRowxContext(ctx, query, args...).StructScan(book); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.log.Info("book updated", zap.Int64("book_id", id))

	return book, nil
}

// DeleteBook removes a book and its loan records in one transaction. The loan
// delete runs first so no loan ever references a missing book.
func (s *service) DeleteBook(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "catalog.delete_book",
		trace.WithAttributes(attribute.Int64("book.id", id)))
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	loanQuery, loanArgs, err := dialect.Delete("loans").
		Where(goqu.C("book_id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build loan delete query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, loanQuery, loanArgs...); err != nil {
		return fmt.Errorf("delete loans for book: %w", err)
	}

	bookQuery, bookArgs, err := dialect.Delete("books").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build book delete query: %w", err)
	}
	res, err := tx.ExecContext(ctx, bookQuery, bookArgs...)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	s.log.Info("book deleted", zap.Int64("book_id", id))

	return nil
}
