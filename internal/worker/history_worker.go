package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	HistoryBatchSize    = 50
	HistoryBatchTimeout = 2 * time.Second
	HistoryPollTimeout  = 1 * time.Second
)

// HistoryWorker consumes persist_history_queue and writes graded submission
// records to PostgreSQL in batches.
type HistoryWorker struct {
	historyRepo *repository.HistoryRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewHistoryWorker creates a new HistoryWorker.
func NewHistoryWorker(historyRepo *repository.HistoryRepository, rdb *redis.Client, log zerolog.Logger) *HistoryWorker {
	return &HistoryWorker{
		historyRepo: historyRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "history_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *HistoryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("HistoryWorker started")

	batch := make([]*model.ExamHistory, 0, HistoryBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= HistoryBatchSize || time.Since(lastFlush) >= HistoryBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			return

		default:
			item, err := w.rdb.BLPop(ctx, HistoryPollTimeout, config.WorkerKey.PersistHistoryQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var rec model.ExamHistory
			if err := json.Unmarshal([]byte(item[1]), &rec); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &rec)
		}
	}
}

// flushSafe tries the bulk insert first and falls back to per-record writes,
// requeueing anything that still fails.
func (w *HistoryWorker) flushSafe(ctx context.Context, batch []*model.ExamHistory) {
	if len(batch) == 0 {
		return
	}

	err := w.historyRepo.BulkCreate(ctx, batch)
	if err == nil {
		w.log.Info().Int("count", len(batch)).Msg("History batch persisted")
		return
	}
	w.log.Warn().Err(err).Msg("Bulk history insert failed, using fallback")

	for _, rec := range batch {
		if err := w.historyRepo.Create(ctx, rec); err != nil {
			w.log.Error().Err(err).
				Str("exam_id", rec.ExamID.String()).
				Int("user_id", rec.UserID).
				Msg("Single insert failed — requeueing")
			raw, _ := json.Marshal(rec)
			w.rdb.RPush(ctx, config.WorkerKey.PersistHistoryQueue, raw)
		}
	}
}

// drain empties whatever is left in the queue during shutdown.
func (w *HistoryWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistHistoryQueue).Result()
		if err != nil {
			break
		}

		var rec model.ExamHistory
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.historyRepo.Create(ctx, &rec); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistHistoryQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining records")
	}
}
