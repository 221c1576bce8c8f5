package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/capitalize-ai/call-controller/internal/model"
)

// KafkaConfig holds Kafka mirror configuration.
type KafkaConfig struct {
	Brokers      []string
	TopicCalls   string
	TopicPartial string
	TopicFinal   string
}

// messageWriter is the subset of *kafka.Writer used by KafkaLog.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaLog mirrors records to Kafka topics, keyed by call id. Call-log records
// go to the calls topic; transcription records are split by finality.
type KafkaLog struct {
	calls   messageWriter
	partial messageWriter
	final   messageWriter
}

// NewKafkaLog creates a Kafka mirror. It returns nil when no brokers are
// configured.
func NewKafkaLog(cfg KafkaConfig) *KafkaLog {
	if len(cfg.Brokers) == 0 {
		return nil
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	return &KafkaLog{
		calls:   newWriter(cfg.TopicCalls),
		partial: newWriter(cfg.TopicPartial),
		final:   newWriter(cfg.TopicFinal),
	}
}

// Name implements Named.
func (k *KafkaLog) Name() string { return "kafka" }

// Append implements Log.
func (k *KafkaLog) Append(ctx context.Context, stream Stream, rec model.Record) error {
	w, err := k.writerFor(stream, rec)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(rec.CallID()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "stream", Value: []byte(stream)},
			{Key: "type", Value: []byte(rec.RecordType())},
		},
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write to kafka: %w", err)
	}
	return nil
}

func (k *KafkaLog) writerFor(stream Stream, rec model.Record) (messageWriter, error) {
	switch stream {
	case StreamCallLog:
		return k.calls, nil
	case StreamTranscripts:
		if ev, ok := rec.(*model.TranscriptionEvent); ok && ev.IsFinal {
			return k.final, nil
		}
		return k.partial, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStream, stream)
	}
}

// Close closes every writer.
func (k *KafkaLog) Close() error {
	var errs []error
	for _, w := range []messageWriter{k.calls, k.partial, k.final} {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
