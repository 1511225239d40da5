// Package kafkadest implements a Kafka-publishing destination, the
// RouteCraft generalization of a plugins/reporter/kafka/kafka.go-style
// reporter (which serialized a fixed packet type to a fixed topic). Here
// the message key, topic, and headers all come from the exchange instead
// of a packet-capture-specific struct.
package kafkadest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"

	"routecraft.dev/routecraft"
)

// Config mirrors a conventional reporter Config shape (brokers/topic/batch/compression
// /retries), generalized from a capture-agent reporter to a route
// destination.
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	Compression  string // none|gzip|snappy|lz4, default snappy
	MaxAttempts  int
	// KeyHeader, if set, reads the message key from this exchange header
	// instead of using the exchange id.
	KeyHeader string
}

// New builds a `to(kafka(cfg))`/`tap(kafka(cfg))` destination. One call
// creates one *kafka.Writer, shared across every exchange sent through it;
// callers should construct it once per route, not per message.
func New(cfg Config) (routecraft.Destination, func() error, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, routecraft.NewError(routecraft.CodeDestinationFailed, "kafka destination requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, nil, routecraft.NewError(routecraft.CodeDestinationFailed, "kafka destination requires a topic")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 100 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		MaxAttempts:  cfg.MaxAttempts,
		Async:        false,
	}
	switch cfg.Compression {
	case "none":
		writerConfig.CompressionCodec = nil
	case "gzip":
		writerConfig.CompressionCodec = compress.Gzip.Codec()
	case "lz4":
		writerConfig.CompressionCodec = compress.Lz4.Codec()
	case "", "snappy":
		writerConfig.CompressionCodec = compress.Snappy.Codec()
	default:
		return nil, nil, routecraft.NewError(routecraft.CodeDestinationFailed, "invalid compression type: %s", cfg.Compression)
	}

	writer := kafka.NewWriter(writerConfig)

	dest := routecraft.DestinationFunc(func(ex *routecraft.Exchange) (any, error) {
		value, err := json.Marshal(ex.Body)
		if err != nil {
			return nil, routecraft.WrapError(routecraft.CodeDestinationFailed, err)
		}

		key := ex.ID
		if cfg.KeyHeader != "" {
			if v := routecraft.HeaderString(ex, cfg.KeyHeader); v != "" {
				key = v
			}
		}

		msg := kafka.Message{
			Key:   []byte(key),
			Value: value,
			Time:  time.Now(),
		}
		for k, v := range ex.Headers {
			if s, ok := v.(string); ok {
				msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(s)})
			}
		}

		if err := writer.WriteMessages(context.Background(), msg); err != nil {
			return nil, routecraft.WrapError(routecraft.CodeDestinationFailed, err)
		}
		return nil, nil
	})

	return dest, writer.Close, nil
}
