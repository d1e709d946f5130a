package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/models"

	"github.com/segmentio/kafka-go"
)

// Event is the message envelope streamed on the lifecycle topics.
type Event struct {
	Type         string             `json:"type"`
	OrderNumber  string             `json:"order_number,omitempty"`
	Status       models.OrderStatus `json:"status,omitempty"`
	TicketNumber string             `json:"ticket_number,omitempty"`
	Quantity     int                `json:"quantity,omitempty"`
	Total        int                `json:"total,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
}

type Producer struct {
	orderWriter  *kafka.Writer
	ticketWriter *kafka.Writer
	logger       *logger.Logger
}

func NewProducer(brokers []string, orderTopic, ticketTopic string, log *logger.Logger) *Producer {
	return &Producer{
		orderWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   orderTopic,
		}),
		ticketWriter: kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   ticketTopic,
		}),
		logger: log,
	}
}

func (p *Producer) publish(w *kafka.Writer, key string, event Event) error {
	event.Timestamp = time.Now()
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	); err != nil {
		return err
	}
	p.logger.LogKafka("PUBLISH", w.Topic, fmt.Sprintf("%s %s", event.Type, key))
	return nil
}

// PublishOrderCreated streams the order creation event.
func (p *Producer) PublishOrderCreated(order *models.Order) error {
	return p.publish(p.orderWriter, order.OrderNumber, Event{
		Type:        EventOrderCreated,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Quantity:    order.Quantity,
		Total:       order.Total,
	})
}

// PublishOrderDecided streams the admin decision outcome.
func (p *Producer) PublishOrderDecided(order *models.Order) error {
	eventType := EventOrderRejected
	if order.Status == models.StatusVerified {
		eventType = EventOrderVerified
	}
	return p.publish(p.orderWriter, order.OrderNumber, Event{
		Type:        eventType,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Quantity:    order.Quantity,
		Total:       order.Total,
	})
}

// PublishOrderExpired streams a TTL sweep eviction.
func (p *Producer) PublishOrderExpired(orderNumber string) error {
	return p.publish(p.orderWriter, orderNumber, Event{
		Type:        EventOrderExpired,
		OrderNumber: orderNumber,
		Status:      models.StatusExpired,
	})
}

// PublishTicketCheckedIn streams a gate redemption.
func (p *Producer) PublishTicketCheckedIn(result *models.ScanResult) error {
	return p.publish(p.ticketWriter, result.TicketNumber, Event{
		Type:         EventTicketCheckedIn,
		OrderNumber:  result.OrderNumber,
		TicketNumber: result.TicketNumber,
	})
}

func (p *Producer) Close() error {
	if err := p.orderWriter.Close(); err != nil {
		return err
	}
	return p.ticketWriter.Close()
}
