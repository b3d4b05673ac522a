package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
)

const TopicVerdictRecorded = "verification.verdict.recorded"

// Publisher emits a verdict-recorded event after each persisted verdict.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers),
			Topic:    TopicVerdictRecorded,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *Publisher) VerdictRecorded(ctx context.Context, verdict *models.VerificationVerdict) error {
	event := models.VerdictRecordedEvent{
		VerificationID: verdict.VerificationID,
		InvoiceID:      verdict.InvoiceID,
		IsValid:        verdict.IsValid,
		RiskScore:      verdict.RiskScore,
		CreditRating:   verdict.CreditRating,
		PolicyVersion:  verdict.PolicyVersion,
		VerifiedAt:     verdict.VerifiedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(verdict.InvoiceID),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
