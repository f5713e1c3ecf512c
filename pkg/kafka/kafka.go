package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nazeru/pizza-billing-go/pkg/contracts"
)

// DefaultTopic carries every billing event unless overridden.
const DefaultTopic = "pizzapos.events"

var ErrDisabled = errors.New("kafka disabled")

// Client holds the broker list. An empty list means eventing is switched
// off and every publish becomes a no-op at the call site.
type Client struct {
	Brokers []string
}

func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

func (c *Client) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

func PublishJSON(ctx context.Context, writer *kafka.Writer, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

// PublishEvent sends a billing event keyed by invoice id (falling back to
// item id) so per-invoice ordering is preserved within a partition.
func PublishEvent(ctx context.Context, writer *kafka.Writer, ev contracts.Event) error {
	key := ev.InvoiceID
	if key == "" {
		key = ev.ItemID
	}
	if key == "" {
		key = ev.EventID
	}
	return PublishJSON(ctx, writer, key, ev)
}
