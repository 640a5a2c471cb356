package eventsink

import (
	"encoding/json"

	"github.com/Shopify/sarama"
)

// KafkaConfig mirrors the teacher's datasync/chaindatafetcher/kafka
// KafkaConfig shape (a *sarama.Config plus brokers/partitions/replicas),
// narrowed to what a synchronous producer needs.
type KafkaConfig struct {
	SaramaConfig *sarama.Config
	Brokers      []string
	Topic        string
}

// DefaultKafkaConfig mirrors GetDefaultKafkaConfig in the teacher:
// Producer.Return.Successes is required for a SyncProducer.
func DefaultKafkaConfig(brokers []string, topic string) *KafkaConfig {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return &KafkaConfig{SaramaConfig: cfg, Brokers: brokers, Topic: topic}
}

// KafkaSink republishes every Event onto a Kafka topic as JSON, the same
// "publish domain events to a broker" responsibility the teacher's
// chaindatafetcher/kafka.repository carries for chain events — here
// applied to this module's own BalanceChange/NewTransaction/
// ConfirmationStateChange/TransferProgress events instead of block data.
type KafkaSink struct {
	topic    string
	producer sarama.SyncProducer
}

// NewKafkaSink constructs a KafkaSink backed by a sarama SyncProducer.
func NewKafkaSink(cfg *KafkaConfig) (*KafkaSink, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, cfg.SaramaConfig)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{topic: cfg.Topic, producer: producer}, nil
}

// Emit implements Sink. Publish failures are logged and swallowed,
// matching §7's "broadcast errors are absorbed" stance extended to the
// observability side-channel: a dropped event never blocks the core.
func (k *KafkaSink) Emit(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		logger.Error("failed to marshal event for kafka", "err", err)
		return
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		logger.Error("failed to publish event to kafka", "topic", k.topic, "err", err)
	}
}

// Close releases the underlying producer.
func (k *KafkaSink) Close() error { return k.producer.Close() }

// MultiSink fans Emit out to every wrapped Sink, letting callers combine
// the in-process Feed with a KafkaSink.
type MultiSink struct {
	Sinks []Sink
}

func (m MultiSink) Emit(e Event) {
	for _, s := range m.Sinks {
		s.Emit(e)
	}
}
