package kafka

import (
	"context"
	"encoding/json"
	"time"

	"cafe-reservation/internal/models"

	kafka "github.com/segmentio/kafka-go"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// PublishReservationCreated streams the creation event, keyed by booking
// code so all events for one reservation land on the same partition.
func (p *Producer) PublishReservationCreated(res *models.Reservation) error {
	return p.publish(res, EventReservationCreated)
}

// PublishReservationStatusChanged streams verify/reject/complete/cancel
// outcomes.
func (p *Producer) PublishReservationStatusChanged(res *models.Reservation) error {
	return p.publish(res, eventTypeFor(res.Status))
}

func (p *Producer) publish(res *models.Reservation, eventType string) error {
	event := models.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		BookingCode:   res.BookingCode,
		CustomerEmail: res.CustomerEmail,
		Status:        string(res.Status),
		Timestamp:     time.Now(),
	}

	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(res.BookingCode),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

func eventTypeFor(status models.ReservationStatus) string {
	switch status {
	case models.StatusConfirmed:
		return EventReservationConfirmed
	case models.StatusRejected:
		return EventReservationRejected
	case models.StatusCompleted:
		return EventReservationCompleted
	case models.StatusCancelled:
		return EventReservationCancelled
	default:
		return EventReservationCreated
	}
}
