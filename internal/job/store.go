package job

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/promoscope/promoscope/internal/analysis"
)

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("job not found")

// Status is the job lifecycle state: queued → processing → {completed, failed}.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is one analysis run. Results and StorageInfo are set only on
// completion; Message carries the failure cause or a completion note.
type Job struct {
	ID          string                `json:"taskId"`
	Status      Status                `json:"status"`
	Progress    float64               `json:"progress"`
	Results     *analysis.Result      `json:"results"`
	Message     string                `json:"message,omitempty"`
	StorageInfo *analysis.StorageInfo `json:"storageInfo,omitempty"`
}

// Progress while processing never reaches 100; only Complete sets it there,
// so a poller observing progress 100 is guaranteed to see status completed.
const maxProcessingProgress = 99.9

// Store holds job state for polling clients. All mutations replace the whole
// record under the lock so a concurrent Get never observes a partial update.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]Job)}
}

// Create registers a new job and immediately moves it to processing; the
// queued state exists only between record creation and the first transition,
// before any analysis work starts.
func (s *Store) Create() string {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = Job{ID: id, Status: StatusProcessing}
	return id
}

// Get returns a snapshot of the job. It never blocks on pipeline completion.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return j, nil
}

// SetProgress advances the job's progress. Progress is monotonic: attempts
// to lower it are ignored. No-op once the job is terminal.
func (s *Store) SetProgress(id string, progress float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != StatusProcessing {
		return
	}
	if progress > maxProcessingProgress {
		progress = maxProcessingProgress
	}
	if progress <= j.Progress {
		return
	}
	j.Progress = progress
	s.jobs[id] = j
}

// Complete transitions the job to completed with progress exactly 100.
// The result must not be mutated by the caller afterwards.
func (s *Store) Complete(id string, results *analysis.Result, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != StatusProcessing {
		return
	}
	j.Status = StatusCompleted
	j.Progress = 100
	j.Results = results
	j.Message = message
	if results != nil {
		j.StorageInfo = results.Storage
	}
	s.jobs[id] = j
}

// Fail transitions the job to failed: progress and results reset to their
// initial empty state, message carries the cause.
func (s *Store) Fail(id string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != StatusProcessing {
		return
	}
	j.Status = StatusFailed
	j.Progress = 0
	j.Results = nil
	j.StorageInfo = nil
	j.Message = message
	s.jobs[id] = j
}
