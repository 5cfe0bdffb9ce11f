package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/storage/database"
)

const subjectColumns = `id, user_id, name, color, description, created_at, updated_at`

type subjectRepository struct {
	repository
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db core.DB) *subjectRepository {
	return &subjectRepository{repository{db: db}}
}

func nameConflict(err error, msg string) error {
	if database.IsUniqueViolation(err) {
		return core.NewConflictError(subject.ErrNameExists.Error(), "")
	}
	return errors.Wrap(err, msg)
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	ex := repo.getExec(exec)
	q := `INSERT INTO subject (` + subjectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, ex.Rebind(q),
		sub.ID, sub.UserID, sub.Name, sub.Color, sub.Description, sub.CreatedAt.UTC(), sub.UpdatedAt.UTC())
	if err != nil {
		return subject.Subject{}, nameConflict(err, "inserting subject")
	}
	return sub, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) (subject.Subject, error) {
	ex := repo.getExec(exec)
	var sub subject.Subject
	q := `SELECT ` + subjectColumns + ` FROM subject WHERE id = ? AND user_id = ?`
	if err := sqlx.GetContext(ctx, ex, &sub, ex.Rebind(q), id, userID); err != nil {
		return subject.Subject{}, trapNoRowsErr(err, subject.ErrNotFound, "getting subject")
	}
	return sub, nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context, userID string, page core.Pagination, exec ...core.DBExecutor) ([]subject.Subject, error) {
	ex := repo.getExec(exec)
	subs := make([]subject.Subject, 0)
	q := `SELECT ` + subjectColumns + ` FROM subject WHERE user_id = ? ORDER BY name` + paginate(page)
	if err := sqlx.SelectContext(ctx, ex, &subs, ex.Rebind(q), userID); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subs, nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject, exec ...core.DBExecutor) (subject.Subject, error) {
	ex := repo.getExec(exec)
	q := `UPDATE subject SET name = ?, color = ?, description = ?, updated_at = ? WHERE id = ? AND user_id = ?`
	res, err := ex.ExecContext(ctx, ex.Rebind(q), sub.Name, sub.Color, sub.Description, sub.UpdatedAt.UTC(), sub.ID, sub.UserID)
	if err != nil {
		return subject.Subject{}, nameConflict(err, "updating subject")
	}
	if err = mustAffect(res, nil, subject.ErrNotFound, "updating subject"); err != nil {
		return subject.Subject{}, err
	}
	return sub, nil
}

// DeleteSubject clears the subject reference on every dependent before deleting it.
func (repo subjectRepository) DeleteSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	for _, table := range []string{"planner_slot", "task", "goal", "progress_entry"} {
		q := `UPDATE ` + table + ` SET subject_id = NULL WHERE user_id = ? AND subject_id = ?`
		if _, err := ex.ExecContext(ctx, ex.Rebind(q), userID, id); err != nil {
			return errors.Wrapf(err, "clearing %s subject", table)
		}
	}
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM subject WHERE id = ? AND user_id = ?`), id, userID)
	return mustAffect(res, err, subject.ErrNotFound, "deleting subject")
}
