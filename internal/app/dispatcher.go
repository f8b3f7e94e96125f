package app

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/notify"
	"anniversary_notifier/internal/domain/settings"
	"anniversary_notifier/internal/domain/tracking"
	"anniversary_notifier/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// Dispatcher sends each delivery through every enabled channel and then marks
// the records sent. A failing channel never stops the other channels or the
// record; there are no retries within a run.
type Dispatcher struct {
	channels []notify.Channel
	tracking tracking.Repository
	metrics  *metrics.Metrics
	logger   *logrus.Entry
	now      func() time.Time
}

func NewDispatcher(channels []notify.Channel, repo tracking.Repository, m *metrics.Metrics, logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		channels: channels,
		tracking: repo,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Dispatch attempts every delivery and returns how many were attempted. The
// only error returned is a PersistenceError from marking the records sent.
func (d *Dispatcher) Dispatch(ctx context.Context, cfg *settings.Configuration, deliveries []notify.Delivery) (int, error) {
	if len(deliveries) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(deliveries))
	for _, del := range deliveries {
		if del.Record == nil {
			continue
		}
		d.deliver(ctx, cfg, del)
		ids = append(ids, del.Record.ID)
	}

	sentAt := d.now()
	if err := d.tracking.MarkSent(ctx, ids, sentAt); err != nil {
		return len(ids), apperrors.NewPersistence("markSent", err)
	}
	for _, del := range deliveries {
		if del.Record != nil {
			del.Record.Sent = true
			del.Record.SentAt = sql.NullTime{Time: sentAt, Valid: true}
		}
	}
	return len(ids), nil
}

func (d *Dispatcher) deliver(ctx context.Context, cfg *settings.Configuration, del notify.Delivery) {
	recLogger := d.logger.WithFields(logrus.Fields{
		"record_id":  del.Record.ID,
		"contact_id": del.Record.ContactID,
	})
	if del.Contact == nil {
		recLogger.Warn("Contact no longer exists, marking record sent without notifying")
		return
	}

	for _, ch := range d.channels {
		if !ch.Enabled(cfg) {
			continue
		}
		err := ch.Send(ctx, cfg, del)
		d.metrics.ChannelDelivery(ch.Name(), err)
		if err == nil {
			recLogger.WithField("channel", ch.Name()).Debug("Notification sent")
			continue
		}

		deliveryErr := &apperrors.ChannelDeliveryError{Channel: ch.Name(), RecordID: del.Record.ID, Err: err}
		entry := recLogger.WithField("channel", ch.Name()).WithError(deliveryErr)
		if errors.Is(err, notify.ErrChannelMisconfigured) {
			entry.Warn("Channel misconfigured, skipping")
		} else {
			entry.Error("Channel send failed")
		}
	}
}
