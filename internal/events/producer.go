package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"
)

//go:generate mockgen -source=producer.go -destination=./mocks/publisher_mock.go -package=mocks Publisher

// Publisher определяет интерфейс публикации события о размещенном заказе.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *model.Order, draft *model.OrderDraft) error
	Close()
}

// OrderPlaced - событие для нижестоящих сервисов (фулфилмент, аналитика).
type OrderPlaced struct {
	OrderNumber    string               `json:"order_number"`
	Status         model.OrderStatus    `json:"status"`
	DeliveryMethod model.DeliveryMethod `json:"delivery_method"`
	PaymentMethod  model.PaymentMethod  `json:"payment_method"`
	Amounts        model.Amounts        `json:"amounts"`
	Lines          []model.CartLine     `json:"lines"`
	PlacedAt       time.Time            `json:"placed_at"`
}

// Producer публикует события о размещенных заказах в Kafka.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer создает и настраивает продюсер событий.
func NewProducer(cfg config.KafkaConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer}
}

// PublishOrderPlaced отправляет событие о принятом заказе. Публикация
// выполняется по принципу best effort: ее отказ не откатывает уже принятый
// сервисом заказов заказ.
func (p *Producer) PublishOrderPlaced(ctx context.Context, order *model.Order, draft *model.OrderDraft) error {
	event := OrderPlaced{
		OrderNumber:    order.OrderNumber,
		Status:         order.Status,
		DeliveryMethod: draft.DeliveryMethod,
		PaymentMethod:  draft.Payment.Method,
		Amounts:        draft.Amounts,
		Lines:          draft.Lines,
		PlacedAt:       time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		metrics.OrderEventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("ошибка сериализации события: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: value,
	})
	if err != nil {
		metrics.OrderEventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("ошибка публикации события: %w", err)
	}

	metrics.OrderEventsPublished.WithLabelValues("success").Inc()
	return nil
}

// Close закрывает Kafka writer.
func (p *Producer) Close() {
	if err := p.writer.Close(); err != nil {
		log.Printf("Ошибка закрытия Kafka writer: %v", err)
	}
}
