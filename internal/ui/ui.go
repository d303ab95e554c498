package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hazelync/trackdown/internal/catalog"
	"github.com/hazelync/trackdown/internal/jobs"
	"github.com/hazelync/trackdown/internal/models"
	"github.com/hazelync/trackdown/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	TrackListView ViewState = iota
	ConfirmView
	DownloadView
	ResultView
)

const pollInterval = 200 * time.Millisecond

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	catalog   catalog.Catalog
	worker    *jobs.Worker
	urlOrURI  string
	workers   int
	width     int
	height    int
	trackList list.Model
	tracks    []models.TrackDescriptor
	jobIDs    []string
	statuses  []jobs.Status
	err       error
	help      help.Model
	keys      keyMap
}

type tracksFetchedMsg struct {
	tracks []models.TrackDescriptor
	err    error
}

type pollTickMsg struct{}

// NewModel creates a new TUI model for downloading the tracks behind a
// catalog link. workers caps concurrent jobs during the download phase.
func NewModel(ctx context.Context, cat catalog.Catalog, worker *jobs.Worker, urlOrURI string, workers int) *Model {
	if workers < 1 {
		workers = 4
	}
	return &Model{
		ctx:      ctx,
		view:     TrackListView,
		catalog:  cat,
		worker:   worker,
		urlOrURI: urlOrURI,
		workers:  workers,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by resolving the link into track descriptors.
func (m *Model) Init() tea.Cmd {
	return m.fetchTracks()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case tracksFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.tracks = msg.tracks
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Tracks (%d)", len(msg.tracks))
		m.trackList.SetSize(m.width-4, m.height-8)
		return m, nil

	case pollTickMsg:
		m.statuses = m.snapshot()
		if m.allTerminal() {
			m.view = ResultView
			return m, nil
		}
		return m, m.pollCmd()
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if len(m.tracks) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "n", "esc":
		m.view = TrackListView
		return m, nil
	case "y":
		m.view = DownloadView
		m.startDownloads()
		return m, m.pollCmd()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = TrackListView
		m.jobIDs = nil
		m.statuses = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == TrackListView {
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchTracks() tea.Cmd {
	return func() tea.Msg {
		if err := m.catalog.Authenticate(m.ctx); err != nil {
			return tracksFetchedMsg{err: err}
		}
		tracks, err := m.catalog.ResolveCollection(m.ctx, m.urlOrURI)
		return tracksFetchedMsg{tracks: tracks, err: err}
	}
}

// startDownloads registers one job per track and runs the batch in the
// background: searches one at a time, acquisitions through the bounded
// pool. The poll tick observes their progress.
func (m *Model) startDownloads() {
	store := m.worker.Store()
	m.jobIDs = make([]string, 0, len(m.tracks))

	batch := make([]jobs.BatchJob, 0, len(m.tracks))
	for _, track := range m.tracks {
		status := store.Create(track)
		m.jobIDs = append(m.jobIDs, status.ID)
		batch = append(batch, jobs.BatchJob{ID: status.ID, Track: track})
	}

	go m.worker.ProcessBatch(m.ctx, batch, m.workers)
}

func (m *Model) pollCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (m *Model) snapshot() []jobs.Status {
	store := m.worker.Store()
	statuses := make([]jobs.Status, 0, len(m.jobIDs))
	for _, id := range m.jobIDs {
		if status, err := store.Get(id); err == nil {
			statuses = append(statuses, status)
		}
	}
	return statuses
}

func (m *Model) allTerminal() bool {
	if len(m.statuses) != len(m.jobIDs) {
		return false
	}
	for _, status := range m.statuses {
		if !status.Stage.Terminal() {
			return false
		}
	}
	return true
}

func (m *Model) renderTrackList() string {
	downloadKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "download"),
	)
	helpKeys := []key.Binding{downloadKey, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Download %d tracks?", len(m.tracks)))

	var total int
	for _, track := range m.tracks {
		total += track.DurationSec()
	}
	info := fmt.Sprintf("\nTracks: %d\nTotal length: %s\nConcurrency: %d\n",
		len(m.tracks), shared.FormatDuration(total), m.workers)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render("Downloading")

	var lines []string
	for _, status := range m.statuses {
		name := status.Track.Name
		if name == "" {
			name = status.ID
		}
		lines = append(lines, fmt.Sprintf("%s %s %3d%% %s",
			progressBar(status.Progress), name, status.Progress, styles.help.Render(status.Message)))
	}

	return fmt.Sprintf("%s\n\n%s", title, strings.Join(lines, "\n"))
}

func (m *Model) renderResult() string {
	var done, failed int
	for _, status := range m.statuses {
		if status.Stage == jobs.StageComplete {
			done++
		} else {
			failed++
		}
	}

	title := styles.ok.Render("✓ Batch Complete")
	if failed > 0 {
		title = styles.warn.Render("Batch finished with failures")
	}
	info := fmt.Sprintf("\nDownloaded: %d/%d\n", done, len(m.statuses))

	var failures string
	if failed > 0 {
		failures = "\n" + styles.warn.Render(fmt.Sprintf("Failed %d tracks:", failed))
		for _, status := range m.statuses {
			if status.Stage == jobs.StageError {
				failures += fmt.Sprintf("\n  • %s - %s: %s", status.Track.Artist, status.Track.Name, status.Error)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failures, helpView)
}

func progressBar(percent int) string {
	const width = 10
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
