package document

import (
	"errors"
	"fmt"
	"strings"
)

// WorkTime is the slot of the day the students are away.
type WorkTime string

const (
	WorkMorning   WorkTime = "上午"
	WorkAfternoon WorkTime = "下午"
	WorkAllDay    WorkTime = "全天"
)

// WorkTimes lists the accepted slots.
var WorkTimes = []WorkTime{WorkMorning, WorkAfternoon, WorkAllDay}

// ErrInvalidMetadata is returned when activity details are missing or malformed.
var ErrInvalidMetadata = errors.New("invalid activity details")

// Metadata describes the activity a form is issued for. Dates are free text
// and printed as entered ("3月12日", "2024年3月12日").
type Metadata struct {
	ActivityName  string   `json:"activity_name"`
	ActivityDate  string   `json:"activity_date,omitempty"`
	WorkDate      string   `json:"work_date"`
	WorkTime      WorkTime `json:"work_time,omitempty"`
	SignatureDate string   `json:"signature_date"`
}

// Trimmed returns m with surrounding whitespace removed from every field.
func (m Metadata) Trimmed() Metadata {
	return Metadata{
		ActivityName:  strings.TrimSpace(m.ActivityName),
		ActivityDate:  strings.TrimSpace(m.ActivityDate),
		WorkDate:      strings.TrimSpace(m.WorkDate),
		WorkTime:      WorkTime(strings.TrimSpace(string(m.WorkTime))),
		SignatureDate: strings.TrimSpace(m.SignatureDate),
	}
}

// Validate checks the fields kind k prints. All problems are reported at once.
func (m Metadata) Validate(k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}

	var problems []string
	if m.ActivityName == "" {
		problems = append(problems, "activity name is required")
	}
	if m.WorkDate == "" {
		problems = append(problems, "work date is required")
	}
	if m.SignatureDate == "" {
		problems = append(problems, "signature date is required")
	}
	if k.NeedsSchedule() {
		if m.ActivityDate == "" {
			problems = append(problems, "activity date is required")
		}
		if !m.WorkTime.Valid() {
			problems = append(problems, fmt.Sprintf("work time must be one of 上午, 下午, 全天 (got %q)", m.WorkTime))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidMetadata, strings.Join(problems, "; "))
	}
	return nil
}

// Valid reports whether t is one of WorkTimes.
func (t WorkTime) Valid() bool {
	for _, w := range WorkTimes {
		if t == w {
			return true
		}
	}
	return false
}
