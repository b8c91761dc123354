package jobs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const KVReaperJobName = "kv_reaper"

// ExpiredDeleter purges rows whose TTL has passed; only the SQL store needs it
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// KVReaperJob deletes expired key-value rows
type KVReaperJob struct {
	store   ExpiredDeleter
	reaped  prometheus.Counter
	logger  *zap.Logger
	timeout time.Duration
}

func NewKVReaperJob(store ExpiredDeleter, reaped prometheus.Counter, logger *zap.Logger, timeout time.Duration) *KVReaperJob {
	return &KVReaperJob{store: store, reaped: reaped, logger: logger, timeout: timeout}
}

func (j *KVReaperJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.store.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("kv reaper failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	if j.reaped != nil {
		j.reaped.Add(float64(n))
	}
	if n > 0 {
		j.logger.Info("kv reaper removed expired rows",
			zap.Int64("rows", n),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterKVReaperJob schedules the reaper when the store supports it.
// It reports whether a job was added.
func RegisterKVReaperJob(s *Scheduler, store any, schedule string, reaped prometheus.Counter, logger *zap.Logger, timeout time.Duration) (bool, error) {
	deleter, ok := store.(ExpiredDeleter)
	if !ok {
		return false, nil
	}
	job := NewKVReaperJob(deleter, reaped, logger, timeout)
	if err := s.AddJob(KVReaperJobName, schedule, job.Run); err != nil {
		return false, err
	}
	return true, nil
}
