package usecase

import (
	"context"

	"TWPull/internal/domain/models"
	"TWPull/pkg/logger"
	"TWPull/pkg/queue"
)

// CollectJobType is the queue message type for async collection requests.
const CollectJobType = "instruments.collect"

// CollectJobPayload is the queue payload for a collection request.
type CollectJobPayload struct {
	Index string `json:"index"`
}

// CollectJob runs instrument collection from the job queue, letting the API
// accept collection requests without blocking on the upstream exchanges.
type CollectJob struct {
	collector *InstrumentCollector
	log       *logger.Logger
}

func NewCollectJob(collector *InstrumentCollector, log *logger.Logger) *CollectJob {
	return &CollectJob{collector: collector, log: log}
}

func (j *CollectJob) Name() string { return "collect-instruments" }

func (j *CollectJob) Type() string { return CollectJobType }

func (j *CollectJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[CollectJobPayload](payload)
	if err != nil {
		return err
	}
	index, err := models.ParseIndex(p.Index)
	if err != nil {
		return err
	}
	res, err := j.collector.Collect(ctx, index)
	if err != nil {
		return err
	}
	j.log.Info("queued collection done",
		logger.String("index", string(res.Index)),
		logger.Int("instruments", res.Instruments))
	return nil
}

var _ queue.Job = (*CollectJob)(nil)
