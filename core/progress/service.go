package progress

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/core/user"
)

var (
	ErrNotFound         = core.NewNotFoundError("progress entry not found")
	ErrSubjectNotFound  = core.NewNotFoundError("subject not found")
	ErrNegativeHours    = errors.New("hours cannot be negative")
	errMissingSubjectID = errors.New("subject_id is required")
)

const ErrEntryExists = "a progress entry already exists for this subject and date"

type (
	Repository interface {
		// UpsertEntry inserts e, or folds its hours into the entry with the same
		// (user, subject, date) key. created is false when folded.
		UpsertEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (entry Entry, created bool, err error)
		GetEntry(ctx context.Context, userID, id string, exec ...core.DBExecutor) (Entry, error)
		GetEntryByKey(ctx context.Context, userID, subjectID string, date core.Date, exec ...core.DBExecutor) (Entry, error)
		QueryEntries(ctx context.Context, userID string, filter QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]Entry, error)
		UpdateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		DeleteEntry(ctx context.Context, userID, id string, exec ...core.DBExecutor) error
	}

	ReportRepository interface {
		// QuerySubjectStats groups the ledger by subject. A non-empty subjectID restricts it to that subject.
		QuerySubjectStats(ctx context.Context, userID, subjectID string, exec ...core.DBExecutor) ([]SubjectStats, error)
		GetCompletion(ctx context.Context, userID string, exec ...core.DBExecutor) (Completion, error)
	}

	SlotLister interface {
		QueryActiveSlots(ctx context.Context, userID string, day *int, exec ...core.DBExecutor) ([]planner.Slot, error)
	}

	SubjectGetter interface {
		GetSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) (subject.Subject, error)
	}

	UserLister interface {
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error)
		QueryActiveUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error)
	}

	Service interface {
		Log(ctx context.Context, userID string, ne NewEntry) (entry Entry, created bool, err error)
		Get(ctx context.Context, userID, id string) (Entry, error)
		Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Entry, error)
		Update(ctx context.Context, userID, id string, ue UpdateEntry) (Entry, error)
		Delete(ctx context.Context, userID, id string) error

		AutoLogDay(ctx context.Context, userID string, day core.Date) (AutoLogResult, error)
		AutoLogAll(ctx context.Context, day core.Date) ([]AutoLogResult, error)

		Overview(ctx context.Context, userID string) (Overview, error)
		SubjectStats(ctx context.Context, userID, subjectID string) (SubjectDetail, error)
	}

	service struct {
		conf     *core.Config
		db       core.DB
		repo     Repository
		reports  ReportRepository
		slots    SlotLister
		subjects SubjectGetter
		users    UserLister
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	conf *core.Config,
	db core.DB,
	repo Repository,
	reports ReportRepository,
	slots SlotLister,
	subjects SubjectGetter,
	users UserLister,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		conf:     conf,
		db:       db,
		repo:     repo,
		reports:  reports,
		slots:    slots,
		subjects: subjects,
		users:    users,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func (svc *service) checkSubject(ctx context.Context, userID, subjectID string, tx core.DBExecutor) error {
	if _, err := svc.subjects.GetSubject(ctx, userID, subjectID, tx); err != nil {
		if core.IsNotFound(err) {
			return ErrSubjectNotFound
		}
		return errors.Wrap(err, "checking subject ownership")
	}
	return nil
}

// Log folds ne into the ledger.
func (svc *service) Log(ctx context.Context, userID string, ne NewEntry) (Entry, bool, error) {
	var (
		entry   Entry
		created bool
	)
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) (err error) {
		entry, created, err = svc.log(ctx, userID, ne, tx)
		return err
	})
	return entry, created, err
}

func (svc *service) log(ctx context.Context, userID string, ne NewEntry, tx core.DBExecutor) (Entry, bool, error) {
	if ne.SubjectID == "" {
		return Entry{}, false, core.NewValidationError(errMissingSubjectID, core.FieldError{Field: "subject_id", Error: errMissingSubjectID.Error()})
	}
	var hours float64
	if ne.Hours != nil {
		hours = *ne.Hours
	}
	if hours < 0 {
		return Entry{}, false, core.NewValidationError(ErrNegativeHours, core.FieldError{Field: "hours", Error: ErrNegativeHours.Error()})
	}
	if ne.Date.IsZero() {
		ne.Date = svc.conf.Today()
	}
	if err := svc.checkSubject(ctx, userID, ne.SubjectID, tx); err != nil {
		return Entry{}, false, err
	}

	now := time.Now().UTC()
	return svc.repo.UpsertEntry(ctx, Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		SubjectID: null.StringFrom(ne.SubjectID),
		Date:      ne.Date,
		Hours:     hours,
		Sessions:  1,
		Notes:     null.StringFromPtr(ne.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}, tx)
}

func (svc *service) Get(ctx context.Context, userID, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, userID, id)
}

func (svc *service) Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Entry, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "to", Error: "must not be before from"})
	}
	if err := core.CheckOrdering(filter.Ordering, OrderingFields); err != nil {
		return nil, err
	}
	page.Clean()
	return svc.repo.QueryEntries(ctx, userID, filter, page)
}

// Update replaces the entry's fields. Moving it onto the key of another entry is a conflict.
func (svc *service) Update(ctx context.Context, userID, id string, ue UpdateEntry) (Entry, error) {
	var updated Entry
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		e, err := svc.repo.GetEntry(ctx, userID, id, tx)
		if err != nil {
			return err
		}
		ue.apply(&e)
		e.UpdatedAt = time.Now().UTC()

		if ue.movesKey() {
			if !e.SubjectID.Valid {
				return core.NewValidationError(errMissingSubjectID, core.FieldError{Field: "subject_id", Error: errMissingSubjectID.Error()})
			}
			if err = svc.checkSubject(ctx, userID, e.SubjectID.String, tx); err != nil {
				return err
			}
			other, err := svc.repo.GetEntryByKey(ctx, userID, e.SubjectID.String, e.Date, tx)
			switch {
			case err == nil && other.ID != e.ID:
				return core.NewConflictError(ErrEntryExists, other.ID)
			case err != nil && !core.IsNotFound(err):
				return errors.Wrap(err, "checking entry key")
			}
		}
		updated, err = svc.repo.UpdateEntry(ctx, e, tx)
		return err
	})
	return updated, err
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteEntry(ctx, userID, id)
}

func completionRate(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return roundHours(float64(done) / float64(total))
}

func finishStats(st *SubjectStats) {
	st.TotalHours = roundHours(st.TotalHours)
	if st.Sessions > 0 {
		st.AverageHours = roundHours(st.TotalHours / float64(st.Sessions))
	}
}

func (svc *service) Overview(ctx context.Context, userID string) (Overview, error) {
	stats, err := svc.reports.QuerySubjectStats(ctx, userID, "")
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying subject stats")
	}
	comp, err := svc.reports.GetCompletion(ctx, userID)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying completion")
	}

	ov := Overview{Subjects: make([]SubjectStats, 0, len(stats)), Completion: comp}
	for _, st := range stats {
		ov.TotalHours += st.TotalHours
		ov.TotalSessions += st.Sessions
		ov.TotalEntries += st.Entries
		finishStats(&st)
		ov.Subjects = append(ov.Subjects, st)
	}
	ov.TotalHours = roundHours(ov.TotalHours)
	if ov.TotalSessions > 0 {
		ov.AverageHours = roundHours(ov.TotalHours / float64(ov.TotalSessions))
	}
	ov.TaskCompletionRate = completionRate(comp.TasksCompleted, comp.TasksTotal)
	ov.GoalCompletionRate = completionRate(comp.GoalsCompleted, comp.GoalsTotal)
	return ov, nil
}

func (svc *service) SubjectStats(ctx context.Context, userID, subjectID string) (SubjectDetail, error) {
	sub, err := svc.subjects.GetSubject(ctx, userID, subjectID)
	if err != nil {
		if core.IsNotFound(err) {
			return SubjectDetail{}, ErrSubjectNotFound
		}
		return SubjectDetail{}, errors.Wrap(err, "getting subject")
	}

	detail := SubjectDetail{Stats: SubjectStats{
		SubjectID:   null.StringFrom(sub.ID),
		SubjectName: null.StringFrom(sub.Name),
		Color:       null.StringFrom(sub.Color),
	}}
	stats, err := svc.reports.QuerySubjectStats(ctx, userID, subjectID)
	if err != nil {
		return SubjectDetail{}, errors.Wrap(err, "querying subject stats")
	}
	if len(stats) > 0 {
		detail.Stats = stats[0]
	}
	finishStats(&detail.Stats)

	page := core.Pagination{Limit: core.MaxPageLimit}
	if detail.Entries, err = svc.repo.QueryEntries(ctx, userID, QueryFilter{SubjectID: subjectID}, page); err != nil {
		return SubjectDetail{}, errors.Wrap(err, "querying subject entries")
	}
	return detail, nil
}
