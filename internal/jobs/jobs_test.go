package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/jobs"
	"github.com/devotionsim/proposal-api/internal/kvstore"
)

type fakeDeleter struct {
	n   int64
	err error
}

func (f *fakeDeleter) DeleteExpired(context.Context) (int64, error) { return f.n, f.err }

func TestScheduler_AddRemove(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "@every 1h", func() {}))
	require.NoError(t, s.AddJob("a", "0 */5 * * * *", func() {}))
	assert.Error(t, s.AddJob("a", "@hourly", func() {}))
	assert.Error(t, s.AddJob("c", "not a cron", func() {}))

	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.JobNames())
}

func TestKVReaperJob(t *testing.T) {
	reaped := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_reaped"})

	jobs.NewKVReaperJob(&fakeDeleter{n: 4}, reaped, zap.NewNop(), time.Second).Run()
	assert.Equal(t, 4.0, testutil.ToFloat64(reaped))

	jobs.NewKVReaperJob(&fakeDeleter{err: errors.New("db down")}, reaped, zap.NewNop(), time.Second).Run()
	assert.Equal(t, 4.0, testutil.ToFloat64(reaped))
}

func TestRegisterKVReaperJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	added, err := jobs.RegisterKVReaperJob(s, kvstore.NewMemoryStore(), "@every 1m", nil, zap.NewNop(), time.Second)
	require.NoError(t, err)
	assert.False(t, added, "memory store expires on read")

	added, err = jobs.RegisterKVReaperJob(s, &fakeDeleter{}, "@every 1m", nil, zap.NewNop(), time.Second)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{jobs.KVReaperJobName}, s.JobNames())
}
