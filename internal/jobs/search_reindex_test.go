package jobs

import (
	"context"
	"errors"
	"testing"

	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingReindexer struct {
	calls int
	err   error
}

func (r *countingReindexer) ReindexAll(context.Context) (search.ReindexStats, error) {
	r.calls++
	return search.ReindexStats{}, r.err
}

func TestSearchReindexJob_RunLogsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reindexer := &countingReindexer{}
	job := NewSearchReindexJob(reindexer, zap.New(core), &config.Config{})

	job.runJob()
	reindexer.err = errors.New("es down")
	job.runJob()

	assert.Equal(t, 2, reindexer.calls)
	assert.Equal(t, 1, logs.FilterMessage("Search reindex job run completed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Search reindex job run failed").Len())
}

func TestSearchReindexJob_EmptyScheduleDoesNotStart(t *testing.T) {
	job := NewSearchReindexJob(&countingReindexer{}, zap.NewNop(), &config.Config{})

	require.NoError(t, job.SetupAndStart())
	job.Stop()
}

func TestSearchReindexJob_InvalidSchedule(t *testing.T) {
	job := NewSearchReindexJob(&countingReindexer{}, zap.NewNop(), &config.Config{SearchReindexJobSchedule: "every tuesday"})

	assert.Error(t, job.SetupAndStart())
}

func TestCronLogger_OddKeysAndValues(t *testing.T) {
	fields := fieldsFromKeysAndValues([]interface{}{"a", 1, "b"})

	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
}
