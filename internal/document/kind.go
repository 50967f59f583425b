package document

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind selects which leave form is rendered.
type Kind string

const (
	KindOfficial Kind = "official" // 公假单
	KindEvening  Kind = "evening"  // 抵晚自习请假单
	KindMorning  Kind = "morning"  // 抵早自习请假单
)

// ErrUnknownKind is returned by ParseKind for names it does not recognise.
var ErrUnknownKind = errors.New("unknown document kind")

// variant is everything that differs between the forms. Layout, fonts and
// the table are shared.
type variant struct {
	title string
	// label is the short name used in download filenames.
	label   string
	aliases []string
	// needsSchedule means the form cites the activity date and a work time
	// slot, as class absences do.
	needsSchedule bool
	body          func(m Metadata) (string, string)
}

var variants = map[Kind]variant{
	KindOfficial: {
		title:         "公假单",
		label:         "公假单",
		aliases:       []string{"公假"},
		needsSchedule: true,
		body: func(m Metadata) (string, string) {
			return fmt.Sprintf("兹定于%s举办\"%s\"活动。以下同学因参与活动组织工作，将于%s %s协助相关会务工作，无法参加该时间段课程。",
					m.ActivityDate, m.ActivityName, m.WorkDate, m.WorkTime),
				fmt.Sprintf("特此申请为以下同学办理 %s %s 的公假手续，恳请贵学院予以批准，谢谢！",
					m.WorkDate, m.WorkTime)
		},
	},
	KindEvening: {
		title:   "抵晚自习请假单",
		label:   "抵晚单",
		aliases: []string{"抵晚", "晚自习"},
		body: func(m Metadata) (string, string) {
			return fmt.Sprintf("以下同学因参与%s的\"%s\"活动，无法参加当晚晚自习。", m.WorkDate, m.ActivityName),
				"特此申请为以下同学办理晚自习请假手续，恳请贵学院予以批准，谢谢！"
		},
	},
	KindMorning: {
		title:   "抵早自习请假单",
		label:   "抵早单",
		aliases: []string{"抵早", "早自习"},
		body: func(m Metadata) (string, string) {
			return fmt.Sprintf("以下同学因参与%s的\"%s\"活动，无法参加当日早自习。", m.WorkDate, m.ActivityName),
				"特此申请为以下同学办理早自习请假手续，恳请贵学院予以批准，谢谢！"
		},
	},
}

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(variants))
	for k := range variants {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKind accepts the English identifier, the form title or its short
// label, e.g. "evening", "抵晚自习请假单" or "抵晚单".
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if _, ok := variants[Kind(strings.ToLower(s))]; ok {
		return Kind(strings.ToLower(s)), nil
	}
	for k, v := range variants {
		if s == v.title || s == v.label {
			return k, nil
		}
		for _, a := range v.aliases {
			if s == a {
				return k, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title is the heading printed at the top of the form.
func (k Kind) Title() string {
	return variants[k].title
}

// Label is the short name used in filenames.
func (k Kind) Label() string {
	return variants[k].label
}

// NeedsSchedule reports whether the form requires an activity date and a
// work time slot.
func (k Kind) NeedsSchedule() bool {
	return variants[k].needsSchedule
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	_, ok := variants[k]
	return ok
}
