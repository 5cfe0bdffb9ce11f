package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database"
)

const userColumns = `id, name, email, is_active, created_at, updated_at`

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{repository{db: db}}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := repo.getExec(exec)
	q := `INSERT INTO "user" (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, ex.Rebind(q),
		usr.ID, usr.Name, usr.Email, usr.IsActive, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, core.NewValidationError(user.ErrEmailExists, core.FieldError{Field: "email", Error: user.ErrEmailExists.Error()})
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) getUser(ctx context.Context, ex core.DBExecutor, cond string, arg interface{}) (user.User, error) {
	var usr user.User
	q := `SELECT ` + userColumns + ` FROM "user" WHERE ` + cond
	if err := sqlx.GetContext(ctx, ex, &usr, ex.Rebind(q), arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, repo.getExec(exec), "id = ?", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, repo.getExec(exec), "email = ?", email)
}

func (repo userRepository) QueryActiveUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	ex := repo.getExec(exec)
	users := make([]user.User, 0)
	q := `SELECT ` + userColumns + ` FROM "user" WHERE is_active = ? ORDER BY created_at`
	if err := sqlx.SelectContext(ctx, ex, &users, ex.Rebind(q), true); err != nil {
		return nil, errors.Wrap(err, "querying active users")
	}
	return users, nil
}

// DeleteUser deletes dependents explicitly rather than relying on ON DELETE CASCADE.
func (repo userRepository) DeleteUser(ctx context.Context, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	for _, table := range []string{"progress_entry", "goal", "task", "task_derivation", "planner_slot", "subject"} {
		if _, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM `+table+` WHERE user_id = ?`), id); err != nil {
			return errors.Wrapf(err, "deleting user %s", table)
		}
	}
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM "user" WHERE id = ?`), id)
	return mustAffect(res, err, user.ErrNotFound, "deleting user")
}
