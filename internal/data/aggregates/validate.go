package aggregates

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	types "github.com/yungbote/taskmaster-backend/internal/domain"
)

const (
	maxProjectName        = 100
	maxProjectDescription = 500
	maxTaskTitle          = 255
	maxTaskDescription    = 5000
	maxCommentContent     = 2000
	maxFileName           = 255
	maxContentType        = 100
)

// requiredText trims value and checks it is non blank and at most max runes.
func requiredText(field, value string, max int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", ValidationError(fmt.Sprintf("%s must not be blank", field))
	}
	if utf8.RuneCountInString(v) > max {
		return "", ValidationError(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return v, nil
}

func optionalText(field, value string, max int) (string, error) {
	v := strings.TrimSpace(value)
	if utf8.RuneCountInString(v) > max {
		return "", ValidationError(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return v, nil
}

func validStatus(s types.TaskStatus) (types.TaskStatus, error) {
	parsed, ok := types.ParseTaskStatus(string(s))
	if !ok {
		return "", ValidationError(fmt.Sprintf("unknown task status %q", s))
	}
	return parsed, nil
}

// dateOnly drops the time of day, keeping the calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil || due.IsZero() {
		return nil
	}
	d := dateOnly(*due)
	return &d
}

func requireNotPast(due *time.Time, now time.Time) error {
	if due == nil {
		return nil
	}
	if due.Before(dateOnly(now)) {
		return ValidationError("due date must not be in the past")
	}
	return nil
}

func sameDate(a, b *time.Time) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return dateOnly(*a).Equal(dateOnly(*b))
	}
}
