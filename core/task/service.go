package task

import (
	"context"
	"fmt"
	"net/mail"
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
	ErrNotFound        = core.NewNotFoundError("task not found")
	ErrSubjectNotFound = core.NewNotFoundError("subject not found")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		GetTask(ctx context.Context, userID, id string, exec ...core.DBExecutor) (Task, error)
		QueryTasks(ctx context.Context, userID string, filter QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]Task, error)
		// QueryTasksCreatedOn returns every task created on day, ordered by creation.
		QueryTasksCreatedOn(ctx context.Context, userID string, day core.Date, exec ...core.DBExecutor) ([]Task, error)
		UpdateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		DeleteTask(ctx context.Context, userID, id string, exec ...core.DBExecutor) error
		// ClaimDerivation records that day's tasks are being derived for userID.
		// It reports false when the day was already claimed.
		ClaimDerivation(ctx context.Context, userID string, day core.Date, exec ...core.DBExecutor) (bool, error)
	}

	SlotLister interface {
		QueryActiveSlots(ctx context.Context, userID string, day *int, exec ...core.DBExecutor) ([]planner.Slot, error)
	}

	SubjectGetter interface {
		GetSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) (subject.Subject, error)
	}

	UserGetter interface {
		GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error)
	}

	Service interface {
		Create(ctx context.Context, userID string, nt NewTask) (Task, error)
		Get(ctx context.Context, userID, id string) (Task, error)
		Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Task, error)
		Update(ctx context.Context, userID, id string, ut UpdateTask) (Task, error)
		Toggle(ctx context.Context, userID, id string) (Task, error)
		Delete(ctx context.Context, userID, id string) error
		DeriveToday(ctx context.Context, userID string, day core.Date) (DerivedTasks, error)
	}

	service struct {
		conf     *core.Config
		db       core.DB
		repo     Repository
		slots    SlotLister
		subjects SubjectGetter
		users    UserGetter
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	conf *core.Config,
	db core.DB,
	repo Repository,
	slots SlotLister,
	subjects SubjectGetter,
	users UserGetter,
	mailSvc core.EmailService,
	logger core.Logger,
) Service {
	return &service{
		conf:     conf,
		db:       db,
		repo:     repo,
		slots:    slots,
		subjects: subjects,
		users:    users,
		mailSvc:  mailSvc,
		logger:   logger,
	}
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

func (svc *service) Create(ctx context.Context, userID string, nt NewTask) (Task, error) {
	now := time.Now().UTC()
	t := Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		SubjectID:   null.StringFromPtr(nt.SubjectID),
		Title:       nt.Title,
		Description: null.StringFromPtr(nt.Description),
		Priority:    nt.Priority,
		CreatedDate: svc.conf.Today(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if nt.DueDate != nil {
		t.DueDate = core.NullDateFrom(*nt.DueDate)
	}

	var created Task
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) (err error) {
		if err = svc.checkSubject(ctx, userID, t.SubjectID, tx); err != nil {
			return err
		}
		created, err = svc.repo.CreateTask(ctx, t, tx)
		return err
	})
	return created, err
}

func (svc *service) Get(ctx context.Context, userID, id string) (Task, error) {
	return svc.repo.GetTask(ctx, userID, id)
}

func (svc *service) Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Task, error) {
	if err := core.CheckOrdering(filter.Ordering, OrderingFields); err != nil {
		return nil, err
	}
	page.Clean()
	return svc.repo.QueryTasks(ctx, userID, filter, page)
}

func (svc *service) Update(ctx context.Context, userID, id string, ut UpdateTask) (Task, error) {
	var updated Task
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		t, err := svc.repo.GetTask(ctx, userID, id, tx)
		if err != nil {
			return err
		}
		ut.apply(&t)
		t.UpdatedAt = time.Now().UTC()
		if ut.SubjectID != nil {
			if err = svc.checkSubject(ctx, userID, t.SubjectID, tx); err != nil {
				return err
			}
		}
		updated, err = svc.repo.UpdateTask(ctx, t, tx)
		return err
	})
	return updated, err
}

func (svc *service) Toggle(ctx context.Context, userID, id string) (Task, error) {
	var toggled Task
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		t, err := svc.repo.GetTask(ctx, userID, id, tx)
		if err != nil {
			return err
		}
		t.IsCompleted = !t.IsCompleted
		t.UpdatedAt = time.Now().UTC()
		toggled, err = svc.repo.UpdateTask(ctx, t, tx)
		return err
	})
	return toggled, err
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteTask(ctx, userID, id)
}

// taskTitle names a derived task after its slot.
func taskTitle(slot planner.Slot) string {
	switch {
	case slot.Title.Valid && slot.Title.String != "":
		return slot.Title.String
	case slot.SubjectName.Valid && slot.SubjectName.String != "":
		return "Study " + slot.SubjectName.String
	default:
		return "Study session"
	}
}

// DeriveToday returns the tasks created on day, materializing one task per active
// slot of day's weekday when none exist yet. Any task created on day, including an
// ad-hoc one, blocks the derivation. A given (user, day) is derived at most once: the
// day is claimed when derived, so deleting every derived task does not trigger a new
// derivation even though the day has slots and no tasks left.
func (svc *service) DeriveToday(ctx context.Context, userID string, day core.Date) (DerivedTasks, error) {
	out := DerivedTasks{Date: day, Tasks: []Task{}}

	var slots []planner.Slot
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		existing, err := svc.repo.QueryTasksCreatedOn(ctx, userID, day, tx)
		if err != nil {
			return errors.Wrap(err, "querying day tasks")
		}
		if len(existing) > 0 {
			out.Tasks = existing
			return nil
		}

		weekday := day.Weekday()
		if slots, err = svc.slots.QueryActiveSlots(ctx, userID, &weekday, tx); err != nil {
			return errors.Wrap(err, "querying day slots")
		}
		if len(slots) == 0 {
			return nil
		}

		claimed, err := svc.repo.ClaimDerivation(ctx, userID, day, tx)
		if err != nil {
			return errors.Wrap(err, "claiming derivation")
		}
		if !claimed {
			// lost to a concurrent derivation, or derived earlier and since cleared
			existing, err = svc.repo.QueryTasksCreatedOn(ctx, userID, day, tx)
			if err != nil {
				return errors.Wrap(err, "querying day tasks")
			}
			if existing != nil {
				out.Tasks = existing
			}
			return nil
		}

		now := time.Now().UTC()
		for _, slot := range slots {
			t, err := svc.repo.CreateTask(ctx, Task{
				ID:          uuid.New().String(),
				UserID:      userID,
				SubjectID:   slot.SubjectID,
				SlotID:      null.StringFrom(slot.ID),
				Title:       taskTitle(slot),
				Description: slot.Description,
				Priority:    PriorityMedium,
				DueDate:     core.NullDateFrom(day),
				CreatedDate: day,
				CreatedAt:   now,
				UpdatedAt:   now,
			}, tx)
			if err != nil {
				return errors.Wrapf(err, "creating task for slot %s", slot.ID)
			}
			out.Tasks = append(out.Tasks, t)
		}
		out.AutoGenerated = true
		return nil
	})
	if err != nil {
		return DerivedTasks{}, err
	}

	if out.AutoGenerated {
		svc.sendDailyPlan(ctx, userID, day, slots, out.Tasks)
	}
	return out, nil
}

type planItem struct {
	Title string
	Time  string
}

// sendDailyPlan is best effort.
func (svc *service) sendDailyPlan(ctx context.Context, userID string, day core.Date, slots []planner.Slot, tasks []Task) {
	usr, err := svc.users.GetUserByID(ctx, userID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("task.sendDailyPlan: %v", err), err)
		return
	}

	times := make(map[string]string, len(slots))
	for _, s := range slots {
		times[s.ID] = s.StartTime + "-" + s.EndTime
	}
	items := make([]planItem, len(tasks))
	for i, t := range tasks {
		items[i] = planItem{Title: t.Title, Time: times[t.SlotID.String]}
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your study plan for " + day.String(),
		TemplateName: "daily_plan",
		TemplateData: struct {
			Name  string
			Date  string
			Tasks []planItem
		}{Name: usr.Name, Date: day.String(), Tasks: items},
	})
}
