package messaging

import "github.com/segmentio/kafka-go"

// MessageCarrier exposes kafka message headers as an otel TextMapCarrier
// so trace context survives the broker hop. Kafka headers may repeat a
// key; Get returns the first value and Set collapses duplicates.
type MessageCarrier struct {
	msg *kafka.Message
}

func NewMessageCarrier(msg *kafka.Message) *MessageCarrier {
	return &MessageCarrier{msg: msg}
}

func (c *MessageCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *MessageCarrier) Set(key, value string) {
	kept := c.msg.Headers[:0]
	for _, h := range c.msg.Headers {
		if h.Key != key {
			kept = append(kept, h)
		}
	}
	c.msg.Headers = append(kept, kafka.Header{
		Key:   key,
		Value: []byte(value),
	})
}

func (c *MessageCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
