package subject

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	ErrNotFound   = core.NewNotFoundError("subject not found")
	ErrNameExists = errors.New("a subject with this name already exists")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		// GetSubject only finds subjects owned by userID.
		GetSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) (Subject, error)
		QuerySubjects(ctx context.Context, userID string, page core.Pagination, exec ...core.DBExecutor) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject, exec ...core.DBExecutor) (Subject, error)
		// DeleteSubject clears the subject reference on its dependents before removing it.
		DeleteSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, userID string, ns NewSubject) (Subject, error)
		Get(ctx context.Context, userID, id string) (Subject, error)
		Query(ctx context.Context, userID string, page core.Pagination) ([]Subject, error)
		Update(ctx context.Context, userID, id string, us UpdateSubject) (Subject, error)
		Delete(ctx context.Context, userID, id string) error
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

// nameTaken maps the repository's unique-violation signal to a field error.
func nameTaken(err error) error {
	if core.IsConflict(err) {
		return core.NewValidationError(ErrNameExists, core.FieldError{Field: "name", Error: ErrNameExists.Error()})
	}
	return err
}

func (svc *service) Create(ctx context.Context, userID string, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub, err := svc.repo.CreateSubject(ctx, Subject{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        ns.Name,
		Color:       ns.Color,
		Description: ns.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return sub, nameTaken(err)
}

func (svc *service) Get(ctx context.Context, userID, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, userID, id)
}

func (svc *service) Query(ctx context.Context, userID string, page core.Pagination) ([]Subject, error) {
	page.Clean()
	return svc.repo.QuerySubjects(ctx, userID, page)
}

func (svc *service) Update(ctx context.Context, userID, id string, us UpdateSubject) (Subject, error) {
	var updated Subject
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		sub, err := svc.repo.GetSubject(ctx, userID, id, tx)
		if err != nil {
			return err
		}
		us.apply(&sub)
		sub.UpdatedAt = time.Now().UTC()
		updated, err = svc.repo.UpdateSubject(ctx, sub, tx)
		return nameTaken(err)
	})
	return updated, err
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if _, err := svc.repo.GetSubject(ctx, userID, id, tx); err != nil {
			return err
		}
		return svc.repo.DeleteSubject(ctx, userID, id, tx)
	})
}
