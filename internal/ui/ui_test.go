package ui

import (
	"context"
	"strings"
	"testing"

	"github.com/hazelync/trackdown/internal/models"
)

func TestProgressBar(t *testing.T) {
	cases := []struct {
		percent int
		want    string
	}{
		{0, "[----------]"},
		{60, "[######----]"},
		{100, "[##########]"},
	}
	for _, c := range cases {
		if got := progressBar(c.percent); got != c.want {
			t.Errorf("progressBar(%d) = %q, want %q", c.percent, got, c.want)
		}
	}
}

func TestTrackItem(t *testing.T) {
	item := trackItem{track: models.TrackDescriptor{
		Name:       "Blinding Lights",
		Artist:     "The Weeknd",
		Album:      "After Hours",
		DurationMS: 200040,
	}}

	if item.Title() != "Blinding Lights" {
		t.Errorf("unexpected title %q", item.Title())
	}
	desc := item.Description()
	if !strings.Contains(desc, "The Weeknd") || !strings.Contains(desc, "3:20") || !strings.Contains(desc, "After Hours") {
		t.Errorf("unexpected description %q", desc)
	}
}

func TestKeyMap(t *testing.T) {
	keys := newKeyMap()

	if short := keys.ShortHelp(); len(short) != 1 {
		t.Errorf("expected quit as the only universal binding, got %d", len(short))
	}
	if full := keys.FullHelp(); len(full) != 3 {
		t.Errorf("expected bindings grouped by view, got %d groups", len(full))
	}
	if help := keys.yes.Help(); help.Desc != "confirm" {
		t.Errorf("unexpected confirm hint %q", help.Desc)
	}
	if help := keys.restart.Help(); help.Desc != "start over" {
		t.Errorf("unexpected restart hint %q", help.Desc)
	}
}

func TestModelViewStates(t *testing.T) {
	m := NewModel(context.Background(), nil, nil, "spotify:album:x", 0)
	if m.workers != 4 {
		t.Errorf("expected default concurrency 4, got %d", m.workers)
	}

	t.Run("tracks fetched moves into the list", func(t *testing.T) {
		updated, _ := m.Update(tracksFetchedMsg{tracks: []models.TrackDescriptor{
			{ID: "t1", Name: "Song", Artist: "Artist", DurationMS: 1000},
		}})
		model := updated.(*Model)

		if len(model.tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(model.tracks))
		}
		if model.view != TrackListView {
			t.Errorf("unexpected view %d", model.view)
		}
		if !strings.Contains(model.View(), "Tracks (1)") {
			t.Errorf("list view missing title:\n%s", model.View())
		}
	})

	t.Run("confirm view summarizes the batch", func(t *testing.T) {
		m.view = ConfirmView
		view := m.View()
		if !strings.Contains(view, "Download 1 tracks?") {
			t.Errorf("unexpected confirm view:\n%s", view)
		}
	})

	t.Run("fetch error renders and quits", func(t *testing.T) {
		m2 := NewModel(context.Background(), nil, nil, "spotify:album:x", 0)
		updated, cmd := m2.Update(tracksFetchedMsg{err: context.DeadlineExceeded})
		model := updated.(*Model)

		if cmd == nil {
			t.Error("expected a quit command")
		}
		if !strings.Contains(model.View(), "Error:") {
			t.Errorf("error not rendered:\n%s", model.View())
		}
	})
}
