package entries

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/models"
)

// book adapts the diary or the memoirs of a journal to one shape so the
// two command sets share their logic.
type book struct {
	noun   string
	plural string
	add    func(models.Entry) (models.Entry, error)
	update func(models.Entry) (models.Entry, error)
	remove func(id string) error
	list   func() []models.Entry
}

func diary(s *journal.Store) book {
	return book{
		noun:   "entry",
		plural: "diary entries",
		add: func(e models.Entry) (models.Entry, error) {
			d, err := s.AddEntry(models.DiaryEntry{Entry: e})
			return d.Entry, err
		},
		update: func(e models.Entry) (models.Entry, error) {
			d, err := s.UpdateEntry(models.DiaryEntry{Entry: e})
			return d.Entry, err
		},
		remove: s.DeleteEntry,
		list: func() []models.Entry {
			var out []models.Entry
			for _, d := range s.Entries() {
				out = append(out, d.Entry)
			}
			return out
		},
	}
}

func memoirs(s *journal.Store) book {
	return book{
		noun:   "memoir",
		plural: "memoirs",
		add: func(e models.Entry) (models.Entry, error) {
			m, err := s.AddMemoir(models.MemoirEntry{Entry: e})
			return m.Entry, err
		},
		update: func(e models.Entry) (models.Entry, error) {
			m, err := s.UpdateMemoir(models.MemoirEntry{Entry: e})
			return m.Entry, err
		},
		remove: s.DeleteMemoir,
		list: func() []models.Entry {
			var out []models.Entry
			for _, m := range s.Memoirs() {
				out = append(out, m.Entry)
			}
			return out
		},
	}
}

// resolve finds the live entry named by ref: a date, a full id or a unique
// id prefix.
func (b book) resolve(ref string) (models.Entry, error) {
	all := b.list()

	var byDate []models.Entry
	for _, e := range all {
		if e.ID == ref {
			return e, nil
		}
		if e.Date == ref {
			byDate = append(byDate, e)
		}
	}
	switch len(byDate) {
	case 1:
		return byDate[0], nil
	case 0:
	default:
		return models.Entry{}, fmt.Errorf("%d %s entries on %s, use an id: %s", len(byDate), b.noun, ref, ids(byDate))
	}

	var matches []models.Entry
	for _, e := range all {
		if strings.HasPrefix(e.ID, ref) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return models.Entry{}, fmt.Errorf("no %s matches %q", b.noun, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Entry{}, fmt.Errorf("%q matches %d entries: %s", ref, len(matches), ids(matches))
	}
}

func ids(entries []models.Entry) string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = shortID(e.ID)
	}
	return strings.Join(out, ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Fields are the optional attributes shared by the add and edit commands.
type Fields struct {
	Mood        *int     `short:"m" help:"Mood from 1 (awful) to 5 (great)."`
	Latitude    *float64 `help:"Latitude where the entry was written."`
	Longitude   *float64 `help:"Longitude where the entry was written."`
	Weather     *string  `help:"Weather description."`
	Temperature *string  `help:"Temperature, as displayed."`
	Goal        *string  `short:"g" help:"Goal horizon (shortterm|longterm|lifetime|none)."`
}

func (f *Fields) Validate() error {
	if f.Mood != nil && (*f.Mood < models.MinMood || *f.Mood > models.MaxMood) {
		return fmt.Errorf("mood must be between %d and %d", models.MinMood, models.MaxMood)
	}
	if f.Latitude != nil && (*f.Latitude < -90 || *f.Latitude > 90) {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if f.Longitude != nil && (*f.Longitude < -180 || *f.Longitude > 180) {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if f.Goal != nil && *f.Goal != "none" {
		if _, err := cli.ParseGoalType(*f.Goal); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fields) empty() bool {
	return f.Mood == nil && f.Latitude == nil && f.Longitude == nil &&
		f.Weather == nil && f.Temperature == nil && f.Goal == nil
}

func (f *Fields) apply(e *models.Entry) {
	if f.Mood != nil {
		e.Mood = *f.Mood
	}
	if f.Latitude != nil {
		e.Latitude = *f.Latitude
	}
	if f.Longitude != nil {
		e.Longitude = *f.Longitude
	}
	if f.Weather != nil {
		e.Weather = *f.Weather
	}
	if f.Temperature != nil {
		e.Temperature = *f.Temperature
	}
	if f.Goal != nil {
		e.GoalType, _ = models.ParseGoalType(*f.Goal)
	}
}

var moodOptions = []huh.Option[int]{
	huh.NewOption("1 - awful", 1),
	huh.NewOption("2 - sad", 2),
	huh.NewOption("3 - neutral", 3),
	huh.NewOption("4 - happy", 4),
	huh.NewOption("5 - great", 5),
}

// NewEntryForm edits the text and mood of e in place.
func NewEntryForm(title string, e *models.Entry) *huh.Form {
	if e.Mood == 0 {
		e.Mood = models.DefaultMood
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(title).
				Value(&e.Description),
			huh.NewSelect[int]().
				Title("Mood").
				Options(moodOptions...).
				Value(&e.Mood),
		),
	)
}

func add(ctx *cli.Context, b book, date, text string, f Fields) error {
	e := models.Entry{Description: text}
	var err error
	if e.Date, err = ctx.ParseDate(date); err != nil {
		return err
	}
	f.apply(&e)
	if strings.TrimSpace(e.Description) == "" {
		if err := NewEntryForm(fmt.Sprintf("New %s for %s", b.noun, e.Date), &e).Run(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%s text cannot be empty", b.noun)
	}

	stored, err := b.add(e)
	if err != nil {
		return err
	}
	ctx.Printf("Added %s for %s (ID: %s)\n", b.noun, stored.Date, stored.ID)
	return nil
}

func edit(ctx *cli.Context, b book, ref string, text, date *string, f Fields) error {
	e, err := b.resolve(ref)
	if err != nil {
		return err
	}
	if date != nil {
		if e.Date, err = ctx.ParseDate(*date); err != nil {
			return err
		}
	}
	if text != nil {
		e.Description = *text
	}
	f.apply(&e)
	if text == nil && date == nil && f.empty() {
		if err := NewEntryForm(fmt.Sprintf("Edit %s for %s", b.noun, e.Date), &e).Run(); err != nil {
			return err
		}
	}
	if err := models.Validate(e); err != nil {
		return fmt.Errorf("invalid %s: %w", b.noun, err)
	}

	stored, err := b.update(e)
	if err != nil {
		return err
	}
	ctx.Printf("Updated %s for %s (ID: %s)\n", b.noun, stored.Date, stored.ID)
	return nil
}

func remove(ctx *cli.Context, b book, ref string, yes bool) error {
	e, err := b.resolve(ref)
	if err != nil {
		return err
	}
	if !yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete %s for %s (%q)?", b.noun, e.Date, e.Summary(40)))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}
	if err := b.remove(e.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted %s for %s\n", b.noun, e.Date)
	return nil
}

func list(ctx *cli.Context, b book, from, to string, limit int) error {
	var shown int
	for _, e := range b.list() {
		if (from != "" && e.Date < from) || (to != "" && e.Date > to) {
			continue
		}
		if limit > 0 && shown == limit {
			break
		}
		if shown == 0 {
			ctx.Printf("%-10s  %-8s  %-4s  %s\n", "DATE", "ID", "MOOD", "TEXT")
		}
		ctx.Printf("%-10s  %-8s  %-4d  %s\n", e.Date, shortID(e.ID), e.Mood, e.Summary(60))
		shown++
	}
	if shown == 0 {
		ctx.Printf("No %s found\n", b.plural)
	}
	return nil
}

func show(ctx *cli.Context, b book, ref string) error {
	e, err := b.resolve(ref)
	if err != nil {
		return err
	}
	ctx.Printf("Date:     %s\n", e.Date)
	ctx.Printf("ID:       %s\n", e.ID)
	ctx.Printf("Mood:     %d/5\n", e.Mood)
	if e.GoalType != "" {
		ctx.Printf("Goal:     %s\n", e.GoalType.Label())
	}
	if e.HasLocation() {
		ctx.Printf("Location: %.5f, %.5f\n", e.Latitude, e.Longitude)
	}
	ctx.Printf("Weather:  %s, %s\n", e.Weather, e.Temperature)
	ctx.Printf("Created:  %s\n", cli.FormatTime(e.CreatedAt))
	ctx.Printf("Modified: %s\n", cli.FormatTime(e.ModifiedAt))
	ctx.Println()
	ctx.Println(e.Description)
	return nil
}
