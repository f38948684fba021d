package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/charlesinwald/mani/internal/constants"
	"github.com/charlesinwald/mani/internal/models"
)

// EntryFormModel holds the editable fields of a diary entry or memoir.
type EntryFormModel struct {
	Date        string
	Description string
	Mood        int
	Weather     string
	Temperature string
	Latitude    string
	Longitude   string
}

type GoalFormModel struct {
	Description string
	Type        models.GoalType
}

type LogFormModel struct {
	Type models.LogType
	Note string
}

func entryFormFrom(e models.Entry) *EntryFormModel {
	fm := &EntryFormModel{
		Date:        e.Date,
		Description: e.Description,
		Mood:        e.Mood,
		Weather:     e.Weather,
		Temperature: e.Temperature,
	}
	if fm.Mood == 0 {
		fm.Mood = models.DefaultMood
	}
	if e.HasLocation() {
		fm.Latitude = strconv.FormatFloat(e.Latitude, 'f', -1, 64)
		fm.Longitude = strconv.FormatFloat(e.Longitude, 'f', -1, 64)
	}
	return fm
}

// apply copies the form values onto e. Empty coordinates clear the location.
func (fm *EntryFormModel) apply(e *models.Entry) error {
	e.Date = strings.TrimSpace(fm.Date)
	e.Description = fm.Description
	e.Mood = fm.Mood
	e.Weather = strings.TrimSpace(fm.Weather)
	e.Temperature = strings.TrimSpace(fm.Temperature)

	lat, err := parseCoord(fm.Latitude, 90)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	lon, err := parseCoord(fm.Longitude, 180)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	e.Latitude, e.Longitude = lat, lon
	return nil
}

func parseCoord(s string, limit float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if v < -limit || v > limit {
		return 0, fmt.Errorf("must be between -%v and %v", limit, limit)
	}
	return v, nil
}

func validateDate(s string) error {
	if _, err := time.Parse(constants.DateFormat, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

// NewEntryForm creates the add/edit form for diary entries and memoirs
func NewEntryForm(title string, fm *EntryFormModel) *huh.Form {
	moods := make([]huh.Option[int], 0, models.MaxMood)
	for i := models.MinMood; i <= models.MaxMood; i++ {
		moods = append(moods, huh.NewOption(fmt.Sprintf("%d %s", i, moodWord(i)), i))
	}
	coord := func(limit float64) func(string) error {
		return func(s string) error {
			_, err := parseCoord(s, limit)
			return err
		}
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Date (YYYY-MM-DD)").
				Value(&fm.Date).
				Validate(validateDate),
			huh.NewText().
				Title("Entry").
				Value(&fm.Description),
			huh.NewSelect[int]().
				Title("Mood").
				Options(moods...).
				Value(&fm.Mood),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Weather").
				Value(&fm.Weather),
			huh.NewInput().
				Title("Temperature").
				Value(&fm.Temperature),
			huh.NewInput().
				Title("Latitude").
				Description("Leave empty for no location").
				Value(&fm.Latitude).
				Validate(coord(90)),
			huh.NewInput().
				Title("Longitude").
				Value(&fm.Longitude).
				Validate(coord(180)),
		),
	).WithTheme(huh.ThemeDracula())
}

func moodWord(m int) string {
	switch m {
	case 1:
		return "awful"
	case 2:
		return "sad"
	case 3:
		return "neutral"
	case 4:
		return "happy"
	default:
		return "great"
	}
}

// NewGoalForm creates the form for adding a goal
func NewGoalForm(fm *GoalFormModel) *huh.Form {
	types := make([]huh.Option[models.GoalType], len(models.GoalTypes))
	for i, t := range models.GoalTypes {
		types[i] = huh.NewOption(t.Label(), t)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Goal").
				Value(&fm.Description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("goal cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[models.GoalType]().
				Title("Horizon").
				Options(types...).
				Value(&fm.Type),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewLogForm creates the form for logging progress on a goal
func NewLogForm(goal string, fm *LogFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[models.LogType]().
				Title("Progress on: "+goal).
				Options(
					huh.NewOption("Thought about it", models.LogThink),
					huh.NewOption("Talked about it", models.LogTalk),
					huh.NewOption("Acted on it", models.LogAct),
				).
				Value(&fm.Type),
			huh.NewText().
				Title("Note").
				Value(&fm.Note),
		),
	).WithTheme(huh.ThemeDracula())
}
