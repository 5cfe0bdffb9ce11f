package boiledrepos

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/progress"
)

const subjectStatsQuery = `
SELECT e.subject_id      AS subject_id,
       sub.name          AS subject_name,
       sub.color         AS color,
       SUM(e.hours)      AS total_hours,
       SUM(e.sessions)   AS sessions,
       COUNT(*)          AS entries,
       MAX(e.date)       AS last_studied
FROM progress_entry e
LEFT JOIN subject sub ON sub.id = e.subject_id
WHERE e.user_id = ?%s
GROUP BY e.subject_id, sub.name, sub.color
ORDER BY SUM(e.hours) DESC, sub.name`

const completionQuery = `
SELECT (SELECT COUNT(*) FROM task WHERE user_id = ?)                          AS tasks_total,
       (SELECT COUNT(*) FROM task WHERE user_id = ? AND is_completed = ?)     AS tasks_completed,
       (SELECT COUNT(*) FROM goal WHERE user_id = ?)                          AS goals_total,
       (SELECT COUNT(*) FROM goal WHERE user_id = ? AND is_completed = ?)     AS goals_completed`

// reportRepository runs the read-only aggregate queries behind the progress overview.
type reportRepository struct {
	exec core.DBExecutor
}

var _ progress.ReportRepository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(exec core.DBExecutor) *reportRepository {
	return &reportRepository{exec: exec}
}

func (repo reportRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo reportRepository) QuerySubjectStats(ctx context.Context, userID, subjectID string, exec ...core.DBExecutor) ([]progress.SubjectStats, error) {
	ex := repo.getExec(exec)
	args := []interface{}{userID}
	filter := ""
	if subjectID != "" {
		filter = " AND e.subject_id = ?"
		args = append(args, subjectID)
	}

	stats := make([]progress.SubjectStats, 0)
	q := ex.Rebind(fmt.Sprintf(subjectStatsQuery, filter))
	if err := queries.Raw(q, args...).Bind(ctx, ex, &stats); err != nil {
		return nil, errors.Wrap(err, "binding subject stats")
	}
	return stats, nil
}

func (repo reportRepository) GetCompletion(ctx context.Context, userID string, exec ...core.DBExecutor) (progress.Completion, error) {
	ex := repo.getExec(exec)
	var comp progress.Completion
	err := queries.Raw(ex.Rebind(completionQuery), userID, userID, true, userID, userID, true).Bind(ctx, ex, &comp)
	if err != nil {
		return progress.Completion{}, errors.Wrap(err, "binding completion")
	}
	return comp, nil
}
