package models

type LogType string

const (
	LogThink LogType = "think"
	LogTalk  LogType = "talk"
	LogAct   LogType = "act"
)

func (l LogType) Valid() bool {
	switch l {
	case LogThink, LogTalk, LogAct:
		return true
	}
	return false
}

// ProgressLog is a note attached to one of a goal's progress flags.
type ProgressLog struct {
	ID          string  `json:"id" validate:"required"`
	ChecklistID string  `json:"checklistId"`
	Timestamp   string  `json:"timestamp" validate:"required"`
	Note        string  `json:"note"`
	Type        LogType `json:"type" validate:"required,log_type"`
}

// ChecklistEntry is a goal with three independent progress flags and a
// separate completion flag.
type ChecklistEntry struct {
	ID           string        `json:"id" validate:"required"`
	Description  string        `json:"description"`
	GoalType     GoalType      `json:"goalType" default:"shortterm" validate:"required,goal_type"`
	ThinkAboutIt bool          `json:"thinkAboutIt"`
	TalkAboutIt  bool          `json:"talkAboutIt"`
	ActOnIt      bool          `json:"actOnIt"`
	Completed    bool          `json:"completed"`
	CreatedAt    int64         `json:"createdAt" validate:"gte=0"`
	ModifiedAt   int64         `json:"modifiedAt" validate:"gte=0"`
	Logs         []ProgressLog `json:"progressLogs" validate:"dive"`
}

func (c ChecklistEntry) GetID() string        { return c.ID }
func (c ChecklistEntry) GetModifiedAt() int64 { return c.ModifiedAt }

// IsDeleted is always false: checklist entries are hard deleted.
func (c ChecklistEntry) IsDeleted() bool { return false }

// Clone returns a deep copy; the log slice is not shared.
func (c ChecklistEntry) Clone() ChecklistEntry {
	out := c
	if c.Logs != nil {
		out.Logs = make([]ProgressLog, len(c.Logs))
		copy(out.Logs, c.Logs)
	}
	return out
}

// Progress counts how many of the three flags are set.
func (c ChecklistEntry) Progress() int {
	n := 0
	for _, f := range []bool{c.ThinkAboutIt, c.TalkAboutIt, c.ActOnIt} {
		if f {
			n++
		}
	}
	return n
}

func (c ChecklistEntry) LogsOfType(t LogType) []ProgressLog {
	var out []ProgressLog
	for _, l := range c.Logs {
		if l.Type == t {
			out = append(out, l)
		}
	}
	return out
}
