package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
)

// ErrJobNotFound is returned when a job id is unknown.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeIngestStatement ingests a statement already archived in GCS.
	JobTypeIngestStatement JobType = "ingest_statement"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// DefaultMaxRetries applies to jobs published without MaxRetries.
const DefaultMaxRetries = 3

// IngestStatementJob runs an archived statement through the ingestion
// pipeline for one user.
type IngestStatementJob struct {
	JobID    string `json:"job_id"`
	UserID   string `json:"user_id"`
	GCSURI   string `json:"gcs_uri"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	// Result is set once the job completes.
	Result *domain.UploadResult `json:"result,omitempty"`
}

// Type returns the job type.
func (j *IngestStatementJob) Type() JobType {
	return JobTypeIngestStatement
}

// Done reports whether the job reached a final status.
func (j *IngestStatementJob) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Publisher enqueues jobs.
type Publisher interface {
	PublishIngestStatement(ctx context.Context, job *IngestStatementJob) error
	Close() error
}

// Consumer runs queued jobs through a handler.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. Returning an error schedules a retry until
// the job runs out of retries.
type JobHandler func(ctx context.Context, job *IngestStatementJob) error

// JobStore keeps job state so it can be polled.
type JobStore interface {
	SaveJob(ctx context.Context, job *IngestStatementJob) error
	GetJob(ctx context.Context, jobID string) (*IngestStatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*IngestStatementJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}

// StatementIngester is the part of the ingestion pipeline jobs need.
type StatementIngester interface {
	IngestFromGCS(ctx context.Context, userID, gcsURI, mimeType string) (*domain.UploadResult, error)
}

// IngestHandler returns the handler that ingests each job's statement and
// records the upload result on the job.
func IngestHandler(ingester StatementIngester) JobHandler {
	return func(ctx context.Context, job *IngestStatementJob) error {
		result, err := ingester.IngestFromGCS(ctx, job.UserID, job.GCSURI, job.MIMEType)
		if err != nil {
			return err
		}
		job.Result = result
		return nil
	}
}
