package core

import "fmt"

// UploadStatus is the externally observable processing state of a document.
// Transitions are forward-only: pending -> processing -> completed|failed.
// A failed document never re-enters processing; it requires a fresh upload.
type UploadStatus int

const (
	// UploadStatusPending means the document row exists but processing has not begun.
	UploadStatusPending UploadStatus = iota + 1
	// UploadStatusProcessing means the ingestion pipeline is running.
	UploadStatusProcessing
	// UploadStatusCompleted means ingestion finished and chunk rows are committed.
	UploadStatusCompleted
	// UploadStatusFailed means ingestion aborted with an unrecoverable error.
	UploadStatusFailed
)

// String returns the persisted representation of the status.
func (s UploadStatus) String() string {
	switch s {
	case UploadStatusPending:
		return "pending"
	case UploadStatusProcessing:
		return "processing"
	case UploadStatusCompleted:
		return "completed"
	case UploadStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the status admits no further transitions.
func (s UploadStatus) Terminal() bool {
	return s == UploadStatusCompleted || s == UploadStatusFailed
}

// CanTransition reports whether moving from s to next is a legal
// forward-only transition. Failed is reachable from any non-terminal state.
func (s UploadStatus) CanTransition(next UploadStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case UploadStatusProcessing:
		return s == UploadStatusPending
	case UploadStatusCompleted:
		return s == UploadStatusProcessing
	case UploadStatusFailed:
		return true
	default:
		return false
	}
}

// ParseUploadStatus parses a persisted status string.
func ParseUploadStatus(s string) (UploadStatus, error) {
	switch s {
	case "pending":
		return UploadStatusPending, nil
	case "processing":
		return UploadStatusProcessing, nil
	case "completed":
		return UploadStatusCompleted, nil
	case "failed":
		return UploadStatusFailed, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidUploadStatus, s)
	}
}

// Stage is the fine-grained pipeline position of one ingestion run.
// Stages advance strictly forward; StageFailed is reachable from any
// non-terminal stage.
type Stage int

const (
	StagePending Stage = iota + 1
	StageValidating
	StageExtracting
	StageChunking
	StageEmbedding
	StageStoring
	StageCompleted
	StageFailed
)

// String returns the stage name used in processing summaries and logs.
func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageValidating:
		return "validating"
	case StageExtracting:
		return "extracting"
	case StageChunking:
		return "chunking"
	case StageEmbedding:
		return "embedding"
	case StageStoring:
		return "storing"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Status maps the fine-grained stage onto the coarse persisted UploadStatus.
func (s Stage) Status() UploadStatus {
	switch s {
	case StagePending, StageValidating:
		return UploadStatusPending
	case StageCompleted:
		return UploadStatusCompleted
	case StageFailed:
		return UploadStatusFailed
	default:
		return UploadStatusProcessing
	}
}
