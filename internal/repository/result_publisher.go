package repository

import (
	"context"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	domrepo "github.com/MTxiong-wang/fundinsight-ai/internal/domain/repository"
	pkgkafka "github.com/MTxiong-wang/fundinsight-ai/pkg/kafka"
)

// RankPublisher emits finished runs to Kafka. Messages are keyed by
// sector so one sector's runs land on one partition, in order.
type RankPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewRankPublisher creates a Kafka-backed result publisher.
func NewRankPublisher(producer *pkgkafka.Producer, topic string) *RankPublisher {
	return &RankPublisher{producer: producer, topic: topic}
}

func (p *RankPublisher) PublishResult(ctx context.Context, result *models.RankResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(result.Sector), result)
}

func (p *RankPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.ResultPublisher = (*RankPublisher)(nil)
