package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dungdata/dungdata-backend/internal/media"
	"github.com/dungdata/dungdata-backend/pkg/db/models"
	"github.com/dungdata/dungdata-backend/pkg/logger"
	"github.com/dungdata/dungdata-backend/pkg/metrics"
)

const taskName = "media_deletion"

type repository interface {
	FindByObjectKey(ctx context.Context, objectKey string) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type storage interface {
	Delete(ctx context.Context, objectKey string) error
}

// Consumer drains the media deletion queue: each message removes one bucket
// object and its library row.
type Consumer struct {
	repo         repository
	storage      storage
	subscription *pubsub.Subscriber
	logg         *logger.Logger
	metrics      *metrics.WorkerMetrics
	now          func() time.Time
}

// NewConsumer constructs a consumer that watches the provided subscription.
func NewConsumer(repo repository, store storage, subscription *pubsub.Subscriber, logg *logger.Logger, workerMetrics *metrics.WorkerMetrics) (*Consumer, error) {
	if repo == nil {
		return nil, errors.New("media repository is required")
	}
	if store == nil {
		return nil, errors.New("object storage is required")
	}
	if subscription == nil {
		return nil, errors.New("media subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		repo:         repo,
		storage:      store,
		subscription: subscription,
		logg:         logg,
		metrics:      workerMetrics,
		now:          time.Now,
	}, nil
}

// Run processes messages until the context is canceled or the subscription errors.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		started := c.now()
		result := c.process(ctx, msg)
		c.metrics.ObserveDuration(taskName, c.now().Sub(started))
		if result.nack {
			c.metrics.IncFailure(taskName)
			msg.Nack()
			return
		}
		c.metrics.IncSuccess(taskName)
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{"message_id": msg.ID})

	var req media.DeletionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		c.logg.Error(logCtx, "failed to unmarshal deletion request", err)
		return processResult{ack: true}
	}
	if strings.TrimSpace(req.ObjectKey) == "" {
		c.logg.Error(logCtx, "deletion request missing object key", errors.New("empty object_key"))
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"media_id":   req.MediaID.String(),
		"object_key": req.ObjectKey,
	})

	if err := c.storage.Delete(logCtx, req.ObjectKey); err != nil {
		c.logg.Error(logCtx, "failed to delete bucket object", err)
		return processResult{nack: true}
	}

	row, err := c.repo.FindByObjectKey(logCtx, req.ObjectKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Warn(logCtx, "media row already gone")
			return processResult{ack: true}
		}
		return c.handleDBError(logCtx, err)
	}

	if err := c.repo.Delete(logCtx, row.ID); err != nil {
		return c.handleDBError(logCtx, err)
	}

	c.logg.Info(logCtx, "media deleted")
	return processResult{ack: true}
}

func (c *Consumer) handleDBError(ctx context.Context, err error) processResult {
	c.logg.Error(ctx, "media persistence error", err)
	if isTransientDBError(err) {
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func isTransientDBError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
