package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"

	kafka "github.com/segmentio/kafka-go"
)

// Notifier consumes reservation lifecycle events and hands them to the
// notification sink (email dispatch lives behind that interface).
type Notifier struct {
	Reader *kafka.Reader
	Logger *logger.Logger
	Sink   NotificationSink
}

// NotificationSink receives lifecycle events worth telling the customer
// about.
type NotificationSink interface {
	Notify(ctx context.Context, event models.ReservationEvent) error
}

// LogSink is the default sink: it only records the event. Deployments with
// an email provider plug in their own.
type LogSink struct {
	Logger *logger.Logger
}

func (s *LogSink) Notify(_ context.Context, event models.ReservationEvent) error {
	s.Logger.Info("NOTIFY", fmt.Sprintf("%s: booking %s -> %s (%s)", event.Type, event.BookingCode, event.Status, event.CustomerEmail))
	return nil
}

func NewNotifier(brokers []string, topic, groupID string, log *logger.Logger, sink NotificationSink) *Notifier {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	if sink == nil {
		sink = &LogSink{Logger: log}
	}
	return &Notifier{Reader: reader, Logger: log, Sink: sink}
}

// Run consumes until the context is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	n.Logger.Info("KAFKA", "reservation event notifier started")
	for {
		msg, err := n.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				n.Logger.Info("KAFKA", "reservation event notifier stopped")
				return
			}
			n.Logger.Error("KAFKA", fmt.Sprintf("failed to read message: %v", err))
			continue
		}

		var event models.ReservationEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			n.Logger.Error("KAFKA", fmt.Sprintf("malformed reservation event: %v", err))
			continue
		}

		if err := n.Sink.Notify(ctx, event); err != nil {
			n.Logger.Error("NOTIFY", fmt.Sprintf("failed to notify for booking %s: %v", event.BookingCode, err))
		}
	}
}

func (n *Notifier) Close() error {
	return n.Reader.Close()
}
