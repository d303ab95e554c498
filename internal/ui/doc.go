// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for catalog downloads:
//  1. [TrackListView] : Browse the tracks resolved from a link
//  2. [ConfirmView] : Confirm the download
//  3. [DownloadView] : Monitor live per-job progress
//  4. [ResultView] : Display the batch outcome
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress flows by polling job store snapshots on a tick, so the render loop never
// blocks on the pipeline.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
