// internal/catalog/service.go
package catalog

import "context"

// Service defines the interface for the book catalog.
type Service interface {
	AddBook(ctx context.Context, name, author string, yearPublished, bookType int, img string) (*Book, error)
	GetBook(ctx context.Context, id int64) (*Book, error)
	ListBooks(ctx context.Context) ([]*Book, error)
	UpdateBook(ctx context.Context, id int64, patch BookPatch) (*Book, error)
	DeleteBook(ctx context.Context, id int64) error
}
