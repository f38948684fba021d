package goals

import (
	"errors"
	"strings"
	"testing"

	"github.com/charlesinwald/mani/internal/cli/clitest"
	"github.com/charlesinwald/mani/internal/journal"
	"github.com/charlesinwald/mani/internal/models"
)

func addGoal(t *testing.T, env *clitest.Env, desc, goalType string) models.ChecklistEntry {
	t.Helper()
	if err := (&GoalAddCmd{Description: desc, Type: goalType}).Run(env.Ctx); err != nil {
		t.Fatalf("add goal: %v", err)
	}
	goals, err := env.Backend.ListChecklistEntries()
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range goals {
		if g.Description == desc {
			return g
		}
	}
	t.Fatalf("goal %q not stored", desc)
	return models.ChecklistEntry{}
}

func TestGoalAddCmd_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     GoalAddCmd
		wantErr bool
	}{
		{"valid", GoalAddCmd{Description: "run", Type: "shortterm"}, false},
		{"label", GoalAddCmd{Description: "run", Type: "Long Term"}, false},
		{"blank", GoalAddCmd{Description: "  ", Type: "shortterm"}, true},
		{"bad type", GoalAddCmd{Description: "run", Type: "weekly"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoalAddCmd(t *testing.T) {
	env := clitest.New(t)

	g := addGoal(t, env, "learn the cello", "longterm")
	if g.GoalType != models.GoalLongTerm {
		t.Errorf("GoalType = %q", g.GoalType)
	}
	if g.ThinkAboutIt || g.TalkAboutIt || g.ActOnIt || g.Completed {
		t.Errorf("new goal has flags set: %+v", g)
	}
}

func TestGoalToggleCmd(t *testing.T) {
	env := clitest.New(t)
	g := addGoal(t, env, "call mum", "shortterm")

	if err := (&GoalToggleCmd{Ref: g.ID[:8], Flag: "talk"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	stored, _ := env.Backend.FindChecklistEntryByID(g.ID)
	if !stored.TalkAboutIt || stored.ThinkAboutIt || stored.ActOnIt {
		t.Errorf("flags after talk toggle = %s", Flags(stored))
	}

	if err := (&GoalToggleCmd{Ref: g.ID, Flag: "talk"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	stored, _ = env.Backend.FindChecklistEntryByID(g.ID)
	if stored.TalkAboutIt {
		t.Error("second toggle did not clear the flag")
	}
}

func TestGoalCompleteCmd(t *testing.T) {
	env := clitest.New(t)
	g := addGoal(t, env, "finish book", "shortterm")

	for i := 0; i < 2; i++ {
		if err := (&GoalCompleteCmd{Ref: g.ID}).Run(env.Ctx); err != nil {
			t.Fatalf("complete #%d: %v", i+1, err)
		}
	}
	stored, _ := env.Backend.FindChecklistEntryByID(g.ID)
	if !stored.Completed {
		t.Error("goal not completed")
	}

	env.Out.Reset()
	if err := (&GoalListCmd{}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(env.Out.String(), "finish book") {
		t.Error("completed goal listed among open goals")
	}
	env.Out.Reset()
	if err := (&GoalListCmd{Completed: true}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.Out.String(), "[x]") {
		t.Errorf("completed listing = %q", env.Out.String())
	}

	if err := (&GoalCompleteCmd{Ref: g.ID, Undo: true}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	stored, _ = env.Backend.FindChecklistEntryByID(g.ID)
	if stored.Completed {
		t.Error("goal still completed after undo")
	}
}

func TestGoalLogCmd(t *testing.T) {
	env := clitest.New(t)
	g := addGoal(t, env, "get fit", "longterm")

	notes := []string{"signed up", "first run"}
	for _, n := range notes {
		if err := (&GoalLogCmd{Ref: g.ID, Type: "act", Note: n}).Run(env.Ctx); err != nil {
			t.Fatal(err)
		}
	}
	stored, _ := env.Backend.FindChecklistEntryByID(g.ID)
	if len(stored.Logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(stored.Logs))
	}
	for i, n := range notes {
		if stored.Logs[i].Note != n || stored.Logs[i].ChecklistID != g.ID {
			t.Errorf("log %d = %+v", i, stored.Logs[i])
		}
	}

	if err := (&GoalUnlogCmd{Ref: g.ID, Log: stored.Logs[0].ID}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	stored, _ = env.Backend.FindChecklistEntryByID(g.ID)
	if len(stored.Logs) != 1 || stored.Logs[0].Note != "first run" {
		t.Errorf("logs after removal = %+v", stored.Logs)
	}

	err := (&GoalUnlogCmd{Ref: g.ID, Log: "missing"}).Run(env.Ctx)
	if !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGoalListCmd_ByType(t *testing.T) {
	env := clitest.New(t)
	addGoal(t, env, "short one", "shortterm")
	addGoal(t, env, "life one", "lifetime")
	env.Out.Reset()

	if err := (&GoalListCmd{Type: "lifetime"}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	out := env.Out.String()
	if !strings.Contains(out, "life one") || strings.Contains(out, "short one") {
		t.Errorf("lifetime listing = %q", out)
	}
}

func TestGoalEditCmd(t *testing.T) {
	env := clitest.New(t)
	g := addGoal(t, env, "write", "shortterm")

	desc, typ := "write a novel", "lifetime"
	if err := (&GoalEditCmd{Ref: g.ID, Description: &desc, Type: &typ}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	stored, _ := env.Backend.FindChecklistEntryByID(g.ID)
	if stored.Description != desc || stored.GoalType != models.GoalLifetime {
		t.Errorf("stored goal = %+v", stored)
	}
	if stored.CreatedAt != g.CreatedAt {
		t.Errorf("CreatedAt changed from %d to %d", g.CreatedAt, stored.CreatedAt)
	}
}

func TestGoalDeleteCmd(t *testing.T) {
	env := clitest.New(t)
	g := addGoal(t, env, "temp", "shortterm")

	env.Input("yes")
	if err := (&GoalDeleteCmd{Ref: g.ID}).Run(env.Ctx); err != nil {
		t.Fatal(err)
	}
	goals, _ := env.Backend.ListChecklistEntries()
	if len(goals) != 0 {
		t.Errorf("goal not deleted: %+v", goals)
	}

	if err := (&GoalDeleteCmd{Ref: g.ID, Yes: true}).Run(env.Ctx); err == nil {
		t.Error("expected error deleting unknown goal")
	}
}

func TestFlags(t *testing.T) {
	c := models.ChecklistEntry{ThinkAboutIt: true, ActOnIt: true}
	if got := Flags(c); got != "T-A" {
		t.Errorf("Flags() = %q, want T-A", got)
	}
}
