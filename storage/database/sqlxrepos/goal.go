package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/goal"
)

const selectGoals = `
SELECT g.id, g.user_id, g.subject_id, sub.name AS subject_name, g.title, g.description, g.target_date,
       g.is_completed, g.created_at, g.updated_at
FROM goal g
LEFT JOIN subject sub ON sub.id = g.subject_id`

type goalRepository struct {
	repository
}

var _ goal.Repository = (*goalRepository)(nil)

func NewGoalRepository(db core.DB) *goalRepository {
	return &goalRepository{repository{db: db}}
}

func (repo goalRepository) CreateGoal(ctx context.Context, g goal.Goal, exec ...core.DBExecutor) (goal.Goal, error) {
	ex := repo.getExec(exec)
	q := `
INSERT INTO goal (id, user_id, subject_id, title, description, target_date, is_completed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, ex.Rebind(q),
		g.ID, g.UserID, g.SubjectID, g.Title, g.Description, g.TargetDate, g.IsCompleted, g.CreatedAt.UTC(), g.UpdatedAt.UTC())
	if err != nil {
		return goal.Goal{}, errors.Wrap(err, "inserting goal")
	}
	return repo.GetGoal(ctx, g.UserID, g.ID, ex)
}

func (repo goalRepository) GetGoal(ctx context.Context, userID, id string, exec ...core.DBExecutor) (goal.Goal, error) {
	ex := repo.getExec(exec)
	var g goal.Goal
	q := selectGoals + ` WHERE g.id = ? AND g.user_id = ?`
	if err := sqlx.GetContext(ctx, ex, &g, ex.Rebind(q), id, userID); err != nil {
		return goal.Goal{}, trapNoRowsErr(err, goal.ErrNotFound, "getting goal")
	}
	return g, nil
}

func (repo goalRepository) QueryGoals(ctx context.Context, userID string, filter goal.QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]goal.Goal, error) {
	ex := repo.getExec(exec)
	w := newWhere("g.user_id = ?", userID)
	if filter.IsCompleted != nil {
		w.and("g.is_completed = ?", *filter.IsCompleted)
	}
	if filter.SubjectID != "" {
		w.and("g.subject_id = ?", filter.SubjectID)
	}

	goals := make([]goal.Goal, 0)
	q := selectGoals + w.String() + ` ORDER BY g.is_completed, g.created_at DESC` + paginate(page)
	if err := sqlx.SelectContext(ctx, ex, &goals, ex.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying goals")
	}
	return goals, nil
}

func (repo goalRepository) UpdateGoal(ctx context.Context, g goal.Goal, exec ...core.DBExecutor) (goal.Goal, error) {
	ex := repo.getExec(exec)
	q := `
UPDATE goal
SET subject_id = ?, title = ?, description = ?, target_date = ?, is_completed = ?, updated_at = ?
WHERE id = ? AND user_id = ?`
	res, err := ex.ExecContext(ctx, ex.Rebind(q),
		g.SubjectID, g.Title, g.Description, g.TargetDate, g.IsCompleted, g.UpdatedAt.UTC(), g.ID, g.UserID)
	if err = mustAffect(res, err, goal.ErrNotFound, "updating goal"); err != nil {
		return goal.Goal{}, err
	}
	return repo.GetGoal(ctx, g.UserID, g.ID, ex)
}

func (repo goalRepository) DeleteGoal(ctx context.Context, userID, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM goal WHERE id = ? AND user_id = ?`), id, userID)
	return mustAffect(res, err, goal.ErrNotFound, "deleting goal")
}
