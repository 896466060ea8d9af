package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/card-ledger/internal/domain"
	"github.com/dvloznov/card-ledger/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	assert.Error(t, s.SaveJob(ctx, &jobs.IngestStatementJob{}))

	job := &jobs.IngestStatementJob{JobID: "j1", UserID: "u1", Status: jobs.JobStatusPending, Result: &domain.UploadResult{Added: 1}}
	require.NoError(t, s.SaveJob(ctx, job))

	// later changes to the caller's job are not visible
	job.Status = jobs.JobStatusFailed
	job.Result.Added = 99

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, got.Status)
	assert.Equal(t, 1, got.Result.Added)

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)

	for i, j := range []jobs.IngestStatementJob{
		{JobID: "a", UserID: "u1", Status: jobs.JobStatusCompleted},
		{JobID: "b", UserID: "u1", Status: jobs.JobStatusFailed},
		{JobID: "c", UserID: "u2", Status: jobs.JobStatusCompleted},
		{JobID: "d", UserID: "u1", Status: jobs.JobStatusCompleted},
	} {
		j := j
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, &j))
	}

	ids := func(list []*jobs.IngestStatementJob) []string {
		out := make([]string, 0, len(list))
		for _, j := range list {
			out = append(out, j.JobID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all newest first", jobs.JobFilter{}, []string{"d", "c", "b", "a"}},
		{"by user", jobs.JobFilter{UserID: "u1"}, []string{"d", "b", "a"}},
		{"by status", jobs.JobFilter{UserID: "u1", Status: jobs.JobStatusCompleted}, []string{"d", "a"}},
		{"limit", jobs.JobFilter{Limit: 2}, []string{"d", "c"}},
		{"offset", jobs.JobFilter{Offset: 3}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}
}
