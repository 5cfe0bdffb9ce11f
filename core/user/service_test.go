package user_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database/sqlxrepos"
	"github.com/trezcool/ratiba/tests"
)

func TestNewUser_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	nu := user.NewUser{Name: " Amani ", Email: " Amani@Test.CD "}
	require.NoError(t, nu.Validate(validate))
	assert.Equal(t, "Amani", nu.Name)
	assert.Equal(t, "amani@test.cd", nu.Email)

	nu = user.NewUser{Name: "Amani", Email: "nope"}
	assert.Error(t, nu.Validate(validate))
}

func TestService(t *testing.T) {
	conf := testutil.NewConfig()
	db := testutil.PrepareDB(t, conf)
	ctx := context.Background()

	repo := sqlxrepos.NewUserRepository(db)
	subRepo := sqlxrepos.NewSubjectRepository(db)
	slotRepo := sqlxrepos.NewSlotRepository(db)
	svc := user.NewService(db, repo)

	usr, err := svc.Create(ctx, user.NewUser{Name: "Amani", Email: "amani@test.cd"})
	require.NoError(t, err)
	assert.True(t, usr.IsActive)

	_, err = svc.Create(ctx, user.NewUser{Name: "Other", Email: "amani@test.cd"})
	_, ok := errors.Cause(err).(*core.ValidationError)
	assert.True(t, ok, "want validation error, got %v", err)

	got, err := svc.GetByEmail(ctx, "AMANI@test.cd")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_ = testutil.CreateUser(t, repo, "Idle", "idle@test.cd", false)
	active, err := svc.QueryActive(ctx)
	require.NoError(t, err)
	if assert.Len(t, active, 1) {
		assert.Equal(t, usr.ID, active[0].ID)
	}

	sub := testutil.CreateSubject(t, subRepo, usr.ID, "Maths")
	_ = testutil.CreateSlot(t, slotRepo, usr.ID, sub.ID, 1, "09:00", "10:00")

	require.NoError(t, svc.Delete(ctx, usr.ID))
	_, err = svc.GetByID(ctx, usr.ID)
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	slots, err := slotRepo.QuerySlots(ctx, usr.ID, planner.QueryFilter{}, core.Pagination{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, slots)

	assert.True(t, core.IsNotFound(svc.Delete(ctx, usr.ID)))
}
