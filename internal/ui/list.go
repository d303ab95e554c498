package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.TrackDescriptor] to implement [list.Item].
type trackItem struct {
	track models.TrackDescriptor
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s [%s]", i.track.Artist, shared.FormatDuration(i.track.DurationSec()))
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
