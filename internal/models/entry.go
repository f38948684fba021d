package models

import (
	"strconv"
	"strings"
)

type GoalType string

const (
	GoalShortTerm GoalType = "shortterm"
	GoalLongTerm  GoalType = "longterm"
	GoalLifetime  GoalType = "lifetime"
)

// GoalTypes lists the goal horizons in display order.
var GoalTypes = []GoalType{GoalShortTerm, GoalLongTerm, GoalLifetime}

func (g GoalType) Valid() bool {
	switch g {
	case GoalShortTerm, GoalLongTerm, GoalLifetime:
		return true
	}
	return false
}

func (g GoalType) Label() string {
	switch g {
	case GoalShortTerm:
		return "Short Term"
	case GoalLongTerm:
		return "Long Term"
	case GoalLifetime:
		return "Lifetime"
	default:
		return "Unclassified"
	}
}

// ParseGoalType accepts both stored values ("shortterm") and the legacy
// display labels ("Short Term").
func ParseGoalType(s string) (GoalType, bool) {
	normalized := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch normalized {
	case "shortterm", "short":
		return GoalShortTerm, true
	case "longterm", "long":
		return GoalLongTerm, true
	case "lifetime":
		return GoalLifetime, true
	}
	return "", false
}

const (
	MinMood     = 1
	MaxMood     = 5
	DefaultMood = 3

	UnknownWeather = "Unknown"
)

// moodLabels maps the string moods written by earlier schema versions to the
// 1-5 scale.
var moodLabels = map[string]int{
	"awful":    1,
	"terrible": 1,
	"sad":      2,
	"bad":      2,
	"neutral":  3,
	"okay":     3,
	"ok":       3,
	"happy":    4,
	"good":     4,
	"great":    5,
	"ecstatic": 5,
}

// MoodFromLegacy converts a legacy mood value to the 1-5 scale. Numeric
// strings in range are kept; anything else falls back to DefaultMood.
func MoodFromLegacy(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil && n >= MinMood && n <= MaxMood {
		return n
	}
	if m, ok := moodLabels[s]; ok {
		return m
	}
	return DefaultMood
}

// Entry is the field set shared by diary and memoir entries.
type Entry struct {
	ID          string   `json:"id" validate:"required"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Description string   `json:"description"`
	CreatedAt   int64    `json:"createdAt" validate:"gte=0"`
	ModifiedAt  int64    `json:"modifiedAt" validate:"gte=0"`
	Deleted     bool     `json:"deleted"`
	Mood        int      `json:"mood" default:"3" validate:"min=1,max=5"`
	Latitude    float64  `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64  `json:"longitude" validate:"gte=-180,lte=180"`
	Weather     string   `json:"weather" default:"Unknown"`
	Temperature string   `json:"temperature" default:"Unknown"`
	GoalType    GoalType `json:"goalType,omitempty" validate:"omitempty,goal_type"`
}

func (e Entry) GetID() string          { return e.ID }
func (e Entry) GetModifiedAt() int64   { return e.ModifiedAt }
func (e Entry) GetDate() string        { return e.Date }
func (e Entry) IsDeleted() bool        { return e.Deleted }
func (e Entry) HasLocation() bool      { return e.Latitude != 0 || e.Longitude != 0 }
func (e Entry) Summary(max int) string { return truncate(e.Description, max) }

// DiaryEntry is a dated daily journal entry.
type DiaryEntry struct {
	Entry
}

// MemoirEntry is a longer-form reflective entry kept apart from the diary.
type MemoirEntry struct {
	Entry
}

func (d DiaryEntry) Clone() DiaryEntry   { return d }
func (m MemoirEntry) Clone() MemoirEntry { return m }

func truncate(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if max <= 0 || len([]rune(s)) <= max {
		return s
	}
	r := []rune(s)
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
