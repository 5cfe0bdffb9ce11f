package progress

import (
	"context"
	"fmt"
	"net/mail"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
)

const (
	skipNoSubject = "slot has no subject"
	skipNoMinutes = "slot has no duration"
)

// AutoLogDay folds the duration of every active slot of day's weekday into the ledger.
// Each slot is folded in its own transaction: a failed fold is reported in its outcome and
// does not undo the others. Calling it twice for the same day logs the hours twice.
func (svc *service) AutoLogDay(ctx context.Context, userID string, day core.Date) (AutoLogResult, error) {
	res := AutoLogResult{UserID: userID, Date: day, Outcomes: []LogOutcome{}}

	weekday := day.Weekday()
	slots, err := svc.slots.QueryActiveSlots(ctx, userID, &weekday)
	if err != nil {
		return res, errors.Wrap(err, "querying day slots")
	}

	for _, slot := range slots {
		out := LogOutcome{SlotID: slot.ID, SubjectID: slot.SubjectID}
		out.Hours = float64(slot.Minutes()) / 60 // folded exactly; totals are rounded for display

		switch {
		case !slot.SubjectID.Valid:
			out.Skipped = skipNoSubject
		case out.Hours <= 0:
			out.Skipped = skipNoMinutes
		default:
			hours := out.Hours
			entry, created, err := svc.Log(ctx, userID, NewEntry{SubjectID: slot.SubjectID.String, Date: day, Hours: &hours})
			if err != nil {
				if !(core.IsNotFound(err) || isValidation(err)) {
					svc.logger.Error(fmt.Sprintf("progress.AutoLogDay: slot %s: %v", slot.ID, err), err)
				}
				out.Error = err.Error()
				break
			}
			out.Logged, out.Created, out.Entry = true, created, &entry
			res.LoggedHours += out.Hours
		}
		res.Outcomes = append(res.Outcomes, out)
	}
	res.LoggedHours = roundHours(res.LoggedHours)

	if res.LoggedHours > 0 {
		svc.sendAutoLogReport(ctx, res, slots)
	}
	return res, nil
}

// AutoLogAll runs AutoLogDay for every active user. A failing user is logged and skipped.
func (svc *service) AutoLogAll(ctx context.Context, day core.Date) ([]AutoLogResult, error) {
	users, err := svc.users.QueryActiveUsers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying active users")
	}

	results := make([]AutoLogResult, 0, len(users))
	for _, usr := range users {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := svc.AutoLogDay(ctx, usr.ID, day)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("progress.AutoLogAll: user %s: %v", usr.ID, err), err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func isValidation(err error) bool {
	_, ok := errors.Cause(err).(*core.ValidationError)
	return ok
}

type subjectHours struct {
	Name  string
	Hours float64
}

// sendAutoLogReport is best effort.
func (svc *service) sendAutoLogReport(ctx context.Context, res AutoLogResult, slots []planner.Slot) {
	usr, err := svc.users.GetUserByID(ctx, res.UserID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("progress.sendAutoLogReport: %v", err), err)
		return
	}

	names := make(map[string]string, len(slots))
	for _, s := range slots {
		names[s.SubjectID.String] = s.SubjectName.String
	}
	bySubject := make(map[string]float64)
	for _, out := range res.Outcomes {
		if out.Logged {
			bySubject[out.SubjectID.String] += out.Hours
		}
	}
	subjects := make([]subjectHours, 0, len(bySubject))
	for id, hours := range bySubject {
		subjects = append(subjects, subjectHours{Name: names[id], Hours: roundHours(hours)})
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Study time logged for " + res.Date.String(),
		TemplateName: "auto_log",
		TemplateData: struct {
			Name     string
			Date     string
			Hours    float64
			Subjects []subjectHours
		}{Name: usr.Name, Date: res.Date.String(), Hours: res.LoggedHours, Subjects: subjects},
	})
}
