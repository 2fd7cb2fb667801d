package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librecord/internal/storage"
	"librecord/internal/storage/storagetest"
)

func setupCatalog(t *testing.T) (*sqlx.DB, Service) {
	t.Helper()
	db := storagetest.Connect(t)
	return db, NewService(db, zap.NewNop())
}

func Test_AddBook_And_GetBook(t *testing.T) {
	_, svc := setupCatalog(t)
	ctx := context.Background()

	created, err := svc.AddBook(ctx, "Dune", "Frank Herbert", 1965, 1, "dune.png")
	require.NoError(t, err)
	assert.Positive(t, created.ID)

	fetched, err := svc.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
	require.NotNil(t, fetched.Img)
	assert.Equal(t, "dune.png", *fetched.Img)
}

func Test_GetBook_UnknownID(t *testing.T) {
	_, svc := setupCatalog(t)

	_, err := svc.GetBook(context.Background(), 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func Test_ListBooks(t *testing.T) {
	_, svc := setupCatalog(t)
	ctx := context.Background()

	_, err := svc.AddBook(ctx, "Dune", "Frank Herbert", 1965, 1, "dune.png")
	require.NoError(t, err)
	_, err = svc.AddBook(ctx, "Emma", "Jane Austen", 1815, 2, "emma.png")
	require.NoError(t, err)

	books, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Name)
	assert.Equal(t, "Emma", books[1].Name)
}

func Test_UpdateBook_PartialPatch(t *testing.T) {
	_, svc := setupCatalog(t)
	ctx := context.Background()

	created, err := svc.AddBook(ctx, "Dune", "F. Herbert", 1965, 1, "dune.png")
	require.NoError(t, err)

	author := "Frank Herbert"
	bookType := 3
	updated, err := svc.UpdateBook(ctx, created.ID, BookPatch{Author: &author, Type: &bookType})
	require.NoError(t, err)

	assert.Equal(t, "Frank Herbert", updated.Author)
	assert.Equal(t, 3, updated.Type)
	assert.Equal(t, "Dune", updated.Name)
	assert.Equal(t, 1965, updated.YearPublished)
}

func Test_UpdateBook_UnknownID(t *testing.T) {
	_, svc := setupCatalog(t)

	name := "Nope"
	_, err := svc.UpdateBook(context.Background(), 12345, BookPatch{Name: &name})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func Test_UpdateBook_EmptyPatchReturnsStoredBook(t *testing.T) {
	_, svc := setupCatalog(t)
	ctx := context.Background()

	created, err := svc.AddBook(ctx, "Dune", "Frank Herbert", 1965, 1, "dune.png")
	require.NoError(t, err)

	updated, err := svc.UpdateBook(ctx, created.ID, BookPatch{})
	require.NoError(t, err)
	assert.Equal(t, created, updated)
}

func Test_DeleteBook_RemovesItsLoans(t *testing.T) {
	db, svc := setupCatalog(t)
	ctx := context.Background()

	book, err := svc.AddBook(ctx, "Dune", "Frank Herbert", 1965, 1, "dune.png")
	require.NoError(t, err)

	now := time.Now()
	_, err = db.Exec(
		`INSERT INTO loans (cust_id, book_id, loan_date, return_date) VALUES ($1, $2, $3, $4)`,
		7, book.ID, now, now.AddDate(0, 0, 10),
	)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, book.ID))

	var loanCount int
	require.NoError(t, db.Get(&loanCount, `SELECT COUNT(*) FROM loans WHERE book_id = $1`, book.ID))
	assert.Zero(t, loanCount)

	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func Test_DeleteBook_UnknownID(t *testing.T) {
	_, svc := setupCatalog(t)

	err := svc.DeleteBook(context.Background(), 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
