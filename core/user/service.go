package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	ErrNotFound    = core.NewNotFoundError("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (User, error)
		GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
		QueryActiveUsers(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
		// DeleteUser removes the user together with everything they own.
		DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		QueryActive(ctx context.Context) ([]User, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		db   core.DB
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository) Service {
	return &service{db: db, repo: repo}
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) QueryActive(ctx context.Context) ([]User, error) {
	return svc.repo.QueryActiveUsers(ctx)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetUserByID(ctx, id, tx); err != nil {
			return err
		}
		return svc.repo.DeleteUser(ctx, id, tx)
	})
}
