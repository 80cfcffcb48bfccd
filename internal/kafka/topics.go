package kafka

import (
	"net"
	"strconv"

	kafka "github.com/segmentio/kafka-go"
)

// Event types carried on the reservation events topic.
const (
	EventReservationCreated   = "reservation_created"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationRejected  = "reservation_rejected"
	EventReservationCompleted = "reservation_completed"
	EventReservationCancelled = "reservation_cancelled"
)

// CreateTopicIfNotExists provisions the topic on first publish in
// environments where auto-creation is disabled.
func CreateTopicIfNotExists(brokers []string, topic string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	return controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
