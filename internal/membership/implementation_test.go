package membership

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

func setupMembership(t *testing.T) (*sqlx.DB, Service) {
	t.Helper()
	db := storagetest.Connect(t)
	return db, NewService(db, zap.NewNop())
}

func Test_AddCustomer_DuplicateEmailFails(t *testing.T) {
	_, svc := setupMembership(t)
	ctx := context.Background()

	mail := "ada@example.com"
	_, err := svc.AddCustomer(ctx, "Ada", "London", 36, &mail, "female")
	require.NoError(t, err)

	_, err = svc.AddCustomer(ctx, "Impostor", "Paris", 40, &mail, "male")
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func Test_AddCustomer_MultipleWithoutEmailSucceed(t *testing.T) {
	_, svc := setupMembership(t)
	ctx := context.Background()

	first, err := svc.AddCustomer(ctx, "Ada", "London", 36, nil, "female")
	require.NoError(t, err)
	second, err := svc.AddCustomer(ctx, "Alan", "Wilmslow", 41, nil, "male")
	require.NoError(t, err)

	assert.Nil(t, first.Mail)
	assert.Nil(t, second.Mail)
	assert.NotEqual(t, first.ID, second.ID)
}

func Test_GetCustomerByEmail(t *testing.T) {
	_, svc := setupMembership(t)
	ctx := context.Background()

	mail := "ada@example.com"
	created, err := svc.AddCustomer(ctx, "Ada", "London", 36, &mail, "female")
	require.NoError(t, err)

	found, err := svc.GetCustomerByEmail(ctx, mail)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetCustomerByEmail(ctx, "nonexistent@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func Test_UpdateCustomer_PartialPatch(t *testing.T) {
	_, svc := setupMembership(t)
	ctx := context.Background()

	created, err := svc.AddCustomer(ctx, "Ada", "London", 36, nil, "female")
	require.NoError(t, err)

	city := "Cambridge"
	age := 37
	updated, err := svc.UpdateCustomer(ctx, created.ID, CustomerPatch{City: &city, Age: &age})
	require.NoError(t, err)

	assert.Equal(t, "Cambridge", updated.City)
	assert.Equal(t, 37, updated.Age)
	assert.Equal(t, "Ada", updated.Name)
}

func Test_DeleteCustomer_LeavesLoanHistory(t *testing.T) {
	db, svc := setupMembership(t)
	ctx := context.Background()

	created, err := svc.AddCustomer(ctx, "Ada", "London", 36, nil, "female")
	require.NoError(t, err)

	now := time.Now()
	_, err = db.Exec(
		`INSERT INTO loans (cust_id, book_id, loan_date, return_date) VALUES ($1, $2, $3, $4)`,
		created.ID, 1, now, now.AddDate(0, 0, 2),
	)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCustomer(ctx, created.ID))

	var loanCount int
	require.NoError(t, db.Get(&loanCount, `SELECT COUNT(*) FROM loans WHERE cust_id = $1`, created.ID))
	assert.Equal(t, 1, loanCount)

	_, err = svc.GetCustomer(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func Test_DeleteCustomer_UnknownID(t *testing.T) {
	_, svc := setupMembership(t)

	err := svc.DeleteCustomer(context.Background(), 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
