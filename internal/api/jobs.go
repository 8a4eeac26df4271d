package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/linkratio/linkratio/internal/model"
)

var (
	// ErrMaxConcurrency signals that the job concurrency limit has been
	// reached and the request should be retried later.
	ErrMaxConcurrency = errors.New("maximum concurrent crawl jobs reached")

	// ErrJobNotFound is returned when no job has the requested task ID.
	ErrJobNotFound = errors.New("job not found")
)

// JobStatus is the lifecycle state of a crawl job.
type JobStatus string

// Job lifecycle states. A job moves pending -> running -> done or
// failed and never transitions backwards.
const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Runner executes one crawl. The engine's Run method satisfies this;
// tests substitute scripted runners.
type Runner func(ctx context.Context, seed string, maxDepth int) (*model.CrawlResult, error)

// ResultStore persists a finished run's output and returns a link the
// client can download it from. Implementations live in the storage
// package; a nil store disables links.
type ResultStore interface {
	// StoreResult uploads the result keyed by taskID and returns a
	// download link.
	StoreResult(ctx context.Context, taskID string, result *model.CrawlResult) (string, error)
}

// job is the manager's internal record for one crawl job.
// All fields after creation are guarded by the manager's mutex.
type job struct {
	id         string
	seed       string
	maxDepth   int
	status     JobStatus
	createdAt  time.Time
	finishedAt time.Time
	result     *model.CrawlResult
	resultLink string
	errMsg     string
}

// JobSnapshot is the JSON view of a job returned by the API.
type JobSnapshot struct {
	// TaskID identifies the job in status requests.
	TaskID string `json:"task_id"`

	// Seed is the seed URL the job crawls.
	Seed string `json:"seed"`

	// MaxDepth is the requested depth bound.
	MaxDepth int `json:"max_depth"`

	// Status is the current lifecycle state.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was accepted.
	CreatedAt time.Time `json:"created_at"`

	// FinishedAt is when the job completed, zero while pending/running.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// PagesFetched and PagesFailed summarize a finished run.
	PagesFetched int `json:"pages_fetched,omitempty"`
	PagesFailed  int `json:"pages_failed,omitempty"`

	// ResultLink is the download link for the stored output, when a
	// result store is configured.
	ResultLink string `json:"result_link,omitempty"`

	// Error describes why a failed job failed.
	Error string `json:"error,omitempty"`
}

// JobManager owns the in-memory job table and runs accepted jobs in
// the background, bounded by a concurrency limit.
//
// Design decision: Jobs live in memory only. The serve command targets
// single-instance deployments where a restart losing in-flight job
// handles is acceptable; completed results survive through the
// database and the result store, not through the job table.
type JobManager struct {
	mu      sync.RWMutex
	jobs    map[string]*job
	running int

	runner        Runner
	store         ResultStore
	maxConcurrent int
	rootCtx       context.Context
	logger        *slog.Logger
}

// JobManagerOption configures a JobManager.
type JobManagerOption func(*JobManager)

// WithResultStore attaches a store for finished run output.
func WithResultStore(store ResultStore) JobManagerOption {
	return func(m *JobManager) {
		m.store = store
	}
}

// WithMaxConcurrentJobs bounds how many jobs may run at once.
func WithMaxConcurrentJobs(n int) JobManagerOption {
	return func(m *JobManager) {
		if n > 0 {
			m.maxConcurrent = n
		}
	}
}

// WithJobLogger sets the logger for job lifecycle events.
func WithJobLogger(logger *slog.Logger) JobManagerOption {
	return func(m *JobManager) {
		m.logger = logger
	}
}

// NewJobManager creates a manager that executes jobs with the given
// runner. rootCtx bounds the lifetime of every background crawl;
// cancel it on shutdown to stop in-flight jobs.
func NewJobManager(rootCtx context.Context, runner Runner, opts ...JobManagerOption) *JobManager {
	if rootCtx == nil {
		rootCtx = context.Background()
	}

	m := &JobManager{
		jobs:          make(map[string]*job),
		runner:        runner,
		maxConcurrent: 5,
		rootCtx:       rootCtx,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// StartJob accepts a crawl request, assigns it a task ID, and launches
// it in the background. Returns ErrMaxConcurrency when the limit is
// reached.
func (m *JobManager) StartJob(seed string, maxDepth int) (JobSnapshot, error) {
	id, err := generateTaskID()
	if err != nil {
		return JobSnapshot{}, err
	}

	j := &job{
		id:        id,
		seed:      seed,
		maxDepth:  maxDepth,
		status:    JobPending,
		createdAt: time.Now().UTC(),
	}

	m.mu.Lock()
	if m.running >= m.maxConcurrent {
		m.mu.Unlock()
		return JobSnapshot{}, ErrMaxConcurrency
	}
	m.running++
	m.jobs[id] = j
	snapshot := m.snapshotLocked(j)
	m.mu.Unlock()

	go m.run(j)

	return snapshot, nil
}

// GetJob returns the current snapshot of a job.
func (m *JobManager) GetJob(taskID string) (JobSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[taskID]
	if !ok {
		return JobSnapshot{}, ErrJobNotFound
	}
	return m.snapshotLocked(j), nil
}

// ListJobs returns snapshots of every known job, newest first.
func (m *JobManager) ListJobs() []JobSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]JobSnapshot, 0, len(m.jobs))
	for _, j := range m.jobs {
		snapshots = append(snapshots, m.snapshotLocked(j))
	}
	return snapshots
}

// run executes one job to completion and records the outcome.
func (m *JobManager) run(j *job) {
	m.mu.Lock()
	j.status = JobRunning
	m.mu.Unlock()

	m.logger.Info("crawl job started", "task_id", j.id, "seed", j.seed, "max_depth", j.maxDepth)

	result, err := m.runner(m.rootCtx, j.seed, j.maxDepth)
	if err != nil {
		m.finish(j, nil, "", err)
		return
	}

	var link string
	if m.store != nil {
		link, err = m.store.StoreResult(m.rootCtx, j.id, result)
		if err != nil {
			// The crawl itself succeeded; losing the upload loses only
			// the download link, and the summary is still served.
			m.logger.Warn("failed to store crawl result", "task_id", j.id, "error", err)
			link = ""
		}
	}

	m.finish(j, result, link, nil)
}

// finish records a job's terminal state and releases its concurrency
// slot in the same critical section, so a job observed as done never
// still counts against the limit.
func (m *JobManager) finish(j *job, result *model.CrawlResult, link string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running--
	j.finishedAt = time.Now().UTC()
	if err != nil {
		j.status = JobFailed
		j.errMsg = err.Error()
		m.logger.Warn("crawl job failed", "task_id", j.id, "error", err)
		return
	}

	j.status = JobDone
	j.result = result
	j.resultLink = link
	m.logger.Info("crawl job finished",
		"task_id", j.id,
		"pages_fetched", result.PagesFetched(),
		"pages_failed", result.PagesFailed(),
	)
}

// snapshotLocked builds the JSON view of a job.
// Callers must hold at least a read lock on m.mu.
func (m *JobManager) snapshotLocked(j *job) JobSnapshot {
	snapshot := JobSnapshot{
		TaskID:    j.id,
		Seed:      j.seed,
		MaxDepth:  j.maxDepth,
		Status:    j.status,
		CreatedAt: j.createdAt,
	}

	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		snapshot.FinishedAt = &finished
	}
	if j.result != nil {
		snapshot.PagesFetched = j.result.PagesFetched()
		snapshot.PagesFailed = j.result.PagesFailed()
	}
	snapshot.ResultLink = j.resultLink
	snapshot.Error = j.errMsg

	return snapshot
}

// generateTaskID returns a random 128-bit hex task identifier.
func generateTaskID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
