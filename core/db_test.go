package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/tests"
)

func TestRunInTx(t *testing.T) {
	db := testutil.PrepareDB(t, testutil.NewConfig())
	ctx := context.Background()

	insert := func(tx core.DBExecutor, email string) error {
		now := time.Now().UTC()
		q := `INSERT INTO "user" (id, name, email, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, tx.Rebind(q), uuid.New().String(), "Amani", email, true, now, now)
		return err
	}
	count := func() int {
		var n int
		require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM "user"`))
		return n
	}
	errBoom := errors.New("boom")

	err := core.RunInTx(ctx, db, func(tx core.DBExecutor) error {
		return insert(tx, "amani@test.cd")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	err = core.RunInTx(ctx, db, func(tx core.DBExecutor) error {
		if err := insert(tx, "baraka@test.cd"); err != nil {
			return err
		}
		return errBoom
	})
	assert.Equal(t, errBoom, err)
	assert.False(t, core.IsShutdown(err))
	assert.Equal(t, 1, count())

	// a transaction ended behind RunInTx's back cannot be rolled back
	err = core.RunInTx(ctx, db, func(tx core.DBExecutor) error {
		if err := insert(tx, "chausiku@test.cd"); err != nil {
			return err
		}
		if err := tx.(*sqlx.Tx).Rollback(); err != nil {
			return err
		}
		return errBoom
	})
	assert.True(t, core.IsShutdown(err))
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, count())
}
