package goal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/subject"
)

var (
	ErrNotFound        = core.NewNotFoundError("goal not found")
	ErrSubjectNotFound = core.NewNotFoundError("subject not found")
)

type (
	Repository interface {
		CreateGoal(ctx context.Context, g Goal, exec ...core.DBExecutor) (Goal, error)
		GetGoal(ctx context.Context, userID, id string, exec ...core.DBExecutor) (Goal, error)
		QueryGoals(ctx context.Context, userID string, filter QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]Goal, error)
		UpdateGoal(ctx context.Context, g Goal, exec ...core.DBExecutor) (Goal, error)
		DeleteGoal(ctx context.Context, userID, id string, exec ...core.DBExecutor) error
	}

	SubjectGetter interface {
		GetSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) (subject.Subject, error)
	}

	Service interface {
		Create(ctx context.Context, userID string, ng NewGoal) (Goal, error)
		Get(ctx context.Context, userID, id string) (Goal, error)
		Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Goal, error)
		Update(ctx context.Context, userID, id string, ug UpdateGoal) (Goal, error)
		Toggle(ctx context.Context, userID, id string) (Goal, error)
		Delete(ctx context.Context, userID, id string) error
	}

	service struct {
		db       core.DB
		repo     Repository
		subjects SubjectGetter
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, subjects SubjectGetter) Service {
	return &service{db: db, repo: repo, subjects: subjects}
}

func (svc *service) checkSubject(ctx context.Context, userID string, subjectID null.String, tx core.DBExecutor) error {
	if !subjectID.Valid {
		return nil
	}
	if _, err := svc.subjects.GetSubject(ctx, userID, subjectID.String, tx); err != nil {
		if core.IsNotFound(err) {
			return ErrSubjectNotFound
		}
		return errors.Wrap(err, "checking subject ownership")
	}
	return nil
}

func (svc *service) Create(ctx context.Context, userID string, ng NewGoal) (Goal, error) {
	now := time.Now().UTC()
	g := Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		SubjectID:   null.StringFromPtr(ng.SubjectID),
		Title:       ng.Title,
		Description: null.StringFromPtr(ng.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ng.TargetDate != nil {
		g.TargetDate = core.NullDateFrom(*ng.TargetDate)
	}

	var created Goal
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) (err error) {
		if err = svc.checkSubject(ctx, userID, g.SubjectID, tx); err != nil {
			return err
		}
		created, err = svc.repo.CreateGoal(ctx, g, tx)
		return err
	})
	return created, err
}

func (svc *service) Get(ctx context.Context, userID, id string) (Goal, error) {
	return svc.repo.GetGoal(ctx, userID, id)
}

func (svc *service) Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Goal, error) {
	page.Clean()
	return svc.repo.QueryGoals(ctx, userID, filter, page)
}

func (svc *service) Update(ctx context.Context, userID, id string, ug UpdateGoal) (Goal, error) {
	var updated Goal
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		g, err := svc.repo.GetGoal(ctx, userID, id, tx)
		if err != nil {
			return err
		}
		ug.apply(&g)
		g.UpdatedAt = time.Now().UTC()
		if ug.SubjectID != nil {
			if err = svc.checkSubject(ctx, userID, g.SubjectID, tx); err != nil {
				return err
			}
		}
		updated, err = svc.repo.UpdateGoal(ctx, g, tx)
		return err
	})
	return updated, err
}

func (svc *service) Toggle(ctx context.Context, userID, id string) (Goal, error) {
	var toggled Goal
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		g, err := svc.repo.GetGoal(ctx, userID, id, tx)
		if err != nil {
			return err
		}
		g.IsCompleted = !g.IsCompleted
		g.UpdatedAt = time.Now().UTC()
		toggled, err = svc.repo.UpdateGoal(ctx, g, tx)
		return err
	})
	return toggled, err
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteGoal(ctx, userID, id)
}
