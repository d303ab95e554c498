// package jobs tracks the lifecycle of track acquisition jobs.
//
// Each job moves through a fixed stage sequence from starting to a terminal
// complete or error state. The Store owns all job state and hands out
// snapshot copies; the Worker drives a single job through the full flow.
package jobs

// Stage is one step of the job lifecycle. Stages only move forward; error
// is reachable from any non-terminal stage and is itself terminal.
type Stage int

const (
	StageStarting Stage = iota
	StageAuthenticating
	StageFetching
	StageSearching
	StageDownloading
	StageProcessing
	StageComplete
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageStarting:
		return "starting"
	case StageAuthenticating:
		return "authenticating"
	case StageFetching:
		return "fetching"
	case StageSearching:
		return "searching"
	case StageDownloading:
		return "downloading"
	case StageProcessing:
		return "processing"
	case StageComplete:
		return "complete"
	case StageError:
		return "error"
	default:
		return ""
	}
}

// Percent maps a stage onto coarse overall progress.
func (s Stage) Percent() int {
	switch s {
	case StageStarting:
		return 0
	case StageAuthenticating:
		return 10
	case StageFetching:
		return 20
	case StageSearching:
		return 40
	case StageDownloading:
		return 60
	case StageProcessing:
		return 85
	case StageComplete, StageError:
		return 100
	default:
		return 0
	}
}

// Terminal reports whether the stage ends the job.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}
