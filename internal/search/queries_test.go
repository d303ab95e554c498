package search

import (
	"reflect"
	"testing"

	"github.com/hazelync/trackdown/internal/models"
)

func TestQueries(t *testing.T) {
	desc := models.TrackDescriptor{
		Name:       "Blinding Lights",
		Artist:     "The Weeknd",
		Album:      "After Hours",
		ISRC:       "USUG11904206",
		DurationMS: 200040,
	}

	t.Run("full ladder in order", func(t *testing.T) {
		want := []string{
			"The Weeknd Blinding Lights",
			"The Weeknd Blinding Lights official audio",
			"Blinding Lights The Weeknd",
			"USUG11904206",
			"The Weeknd Blinding Lights lyrics",
			"Blinding Lights audio",
			"Blinding Lights After Hours",
			"Blinding Lights full song",
		}

		got := Queries(desc)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("unexpected ladder:\ngot  %v\nwant %v", got, want)
		}
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		if !reflect.DeepEqual(Queries(desc), Queries(desc)) {
			t.Error("expected identical output for identical input")
		}
	})

	t.Run("skips ISRC when absent", func(t *testing.T) {
		d := desc
		d.ISRC = ""
		for _, q := range Queries(d) {
			if q == "USUG11904206" {
				t.Error("ISRC query present without ISRC")
			}
		}
	})

	t.Run("skips album variant when absent", func(t *testing.T) {
		d := desc
		d.Album = ""
		for _, q := range Queries(d) {
			if q == "Blinding Lights After Hours" {
				t.Error("album query present without album")
			}
		}
	})

	t.Run("adds first-artist variant for multiple artists", func(t *testing.T) {
		d := desc
		d.Artist = "The Weeknd, Daft Punk"

		queries := Queries(d)
		if len(queries) > 9 {
			t.Errorf("ladder exceeds nine entries: %d", len(queries))
		}

		last := queries[len(queries)-1]
		if last != "The Weeknd Blinding Lights" {
			t.Errorf("expected first-artist variant last, got %q", last)
		}
	})

	t.Run("no first-artist variant for a single artist", func(t *testing.T) {
		queries := Queries(desc)
		if queries[len(queries)-1] != "Blinding Lights full song" {
			t.Errorf("unexpected final query %q", queries[len(queries)-1])
		}
	})
}
