package goals

import (
	"fmt"
	"strings"

	"github.com/charlesinwald/mani/internal/cli"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/models"
)

// open unlocks and hydrates, the first step of every goal command.
func open(ctx *cli.Context) (*journal.Store, error) {
	if err := ctx.Unlock(); err != nil {
		return nil, err
	}
	return ctx.Journal()
}

// resolve finds a goal by full id or unique id prefix.
func resolve(store *journal.Store, ref string) (models.ChecklistEntry, error) {
	if c, ok := store.FindChecklistEntryByID(ref); ok {
		return c, nil
	}
	var matches []models.ChecklistEntry
	for _, c := range store.ChecklistEntries() {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return models.ChecklistEntry{}, fmt.Errorf("no goal matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return models.ChecklistEntry{}, fmt.Errorf("%q matches %d goals", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func mark(on bool, letter string) string {
	if on {
		return letter
	}
	return "-"
}

// Flags renders think/talk/act as "TkA" style markers.
func Flags(c models.ChecklistEntry) string {
	return mark(c.ThinkAboutIt, "T") + mark(c.TalkAboutIt, "k") + mark(c.ActOnIt, "A")
}

type GoalAddCmd struct {
	Description string `arg:"" help:"What the goal is."`
	Type        string `short:"t" help:"Goal horizon (shortterm|longterm|lifetime)." default:"shortterm"`
}

func (c *GoalAddCmd) Validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("description cannot be empty")
	}
	_, err := cli.ParseGoalType(c.Type)
	return err
}

func (c *GoalAddCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}
	goalType, err := cli.ParseGoalType(c.Type)
	if err != nil {
		return err
	}
	goal, err := store.AddChecklistEntry(models.ChecklistEntry{
		Description: strings.TrimSpace(c.Description),
		GoalType:    goalType,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added %s goal: %s (ID: %s)\n", goal.GoalType.Label(), goal.Description, goal.ID)
	return nil
}

type GoalEditCmd struct {
	Ref         string  `arg:"" help:"Goal ID or ID prefix."`
	Description *string `short:"d" help:"New description."`
	Type        *string `short:"t" help:"New goal horizon (shortterm|longterm|lifetime)."`
}

func (c *GoalEditCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}
	goal, err := resolve(store, c.Ref)
	if err != nil {
		return err
	}
	if c.Description != nil {
		goal.Description = strings.TrimSpace(*c.Description)
	}
	if c.Type != nil {
		if goal.GoalType, err = cli.ParseGoalType(*c.Type); err != nil {
			return err
		}
	}
	if err := store.UpdateChecklistEntry(goal); err != nil {
		return err
	}
	ctx.Printf("Updated goal: %s\n", goal.Description)
	return nil
}

type GoalListCmd struct {
	Type      string `short:"t" help:"Only goals of this horizon (shortterm|longterm|lifetime)."`
	Completed bool   `short:"c" help:"Show completed goals instead of open ones."`
	All       bool   `short:"a" help:"Show open and completed goals."`
	Logs      bool   `short:"l" help:"Show progress logs under each goal."`
}

func (c *GoalListCmd) Validate() error {
	if c.Type != "" {
		if _, err := cli.ParseGoalType(c.Type); err != nil {
			return err
		}
	}
	return nil
}

func (c *GoalListCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}

	types := models.GoalTypes
	if c.Type != "" {
		t, _ := cli.ParseGoalType(c.Type)
		types = []models.GoalType{t}
	}

	shown := 0
	for _, t := range types {
		var goals []models.ChecklistEntry
		switch {
		case c.All:
			goals = store.ChecklistEntriesByType(t)
		case c.Completed:
			goals = store.CompletedChecklistEntries(t)
		default:
			goals = store.IncompleteChecklistEntries(t)
		}
		if len(goals) == 0 {
			continue
		}
		ctx.Printf("%s:\n", t.Label())
		for _, g := range goals {
			done := " "
			if g.Completed {
				done = "x"
			}
			ctx.Printf("  [%s] %s  %s  %s\n", done, shortID(g.ID), Flags(g), g.Description)
			if c.Logs {
				for _, l := range g.Logs {
					ctx.Printf("        %-5s %s  %s\n", l.Type, l.Timestamp, l.Note)
				}
			}
			shown++
		}
	}
	if shown == 0 {
		ctx.Println("No goals found")
	}
	return nil
}

type GoalToggleCmd struct {
	Ref  string `arg:"" help:"Goal ID or ID prefix."`
	Flag string `arg:"" enum:"think,talk,act" help:"Progress flag to flip (think|talk|act)."`
}

func (c *GoalToggleCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}
	goal, err := resolve(store, c.Ref)
	if err != nil {
		return err
	}
	if err := store.Toggle(goal.ID, models.LogType(c.Flag)); err != nil {
		return err
	}
	goal, _ = store.FindChecklistEntryByID(goal.ID)
	ctx.Printf("%s  %s\n", Flags(goal), goal.Description)
	return nil
}

type GoalCompleteCmd struct {
	Ref  string `arg:"" help:"Goal ID or ID prefix."`
	Undo bool   `short:"u" help:"Mark the goal as not completed."`
}

func (c *GoalCompleteCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}
	goal, err := resolve(store, c.Ref)
	if err != nil {
		return err
	}
	if c.Undo {
		if err := store.UncompleteChecklistEntry(goal.ID); err != nil {
			return err
		}
		ctx.Printf("Reopened goal: %s\n", goal.Description)
		return nil
	}
	if err := store.CompleteChecklistEntry(goal.ID); err != nil {
		return err
	}
	ctx.Printf("Completed goal: %s\n", goal.Description)
	return nil
}

type GoalLogCmd struct {
	Ref  string `arg:"" help:"Goal ID or ID prefix."`
	Type string `arg:"" enum:"think,talk,act" help:"Which kind of progress this is (think|talk|act)."`
	Note string `arg:"" help:"What happened."`
}

func (c *GoalLogCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}
	goal, err := resolve(store, c.Ref)
	if err != nil {
		return err
	}
	l, err := store.AddChecklistLog(models.ProgressLog{
		ChecklistID: goal.ID,
		Type:        models.LogType(c.Type),
		Note:        c.Note,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Logged %s progress on %s (ID: %s)\n", l.Type, goal.Description, l.ID)
	return nil
}

type GoalUnlogCmd struct {
	Ref string `arg:"" help:"Goal ID or ID prefix."`
	Log string `arg:"" help:"Progress log ID."`
}

func (c *GoalUnlogCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}
	goal, err := resolve(store, c.Ref)
	if err != nil {
		return err
	}
	if err := store.DeleteChecklistLog(goal.ID, c.Log); err != nil {
		return err
	}
	ctx.Printf("Removed progress log %s\n", c.Log)
	return nil
}

type GoalDeleteCmd struct {
	Ref string `arg:"" help:"Goal ID or ID prefix."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *GoalDeleteCmd) Run(ctx *cli.Context) error {
	store, err := open(ctx)
	if err != nil {
		return err
	}
	goal, err := resolve(store, c.Ref)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete goal %q and its %d progress logs? This cannot be undone.", goal.Description, len(goal.Logs)))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Delete cancelled.")
			return nil
		}
	}
	if err := store.DeleteChecklistEntry(goal.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted goal: %s\n", goal.Description)
	return nil
}
