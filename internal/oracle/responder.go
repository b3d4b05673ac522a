// Package oracle serves the decentralized compute network that writes verdicts
// on-chain. Requests arrive over NATS request/reply and are answered with the
// compact payload; determinism of the pipeline guarantees independent callers
// converge on the same bytes for the same invoice.
package oracle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/yieldx/trade-finance/verification-service/internal/models"
	"github.com/yieldx/trade-finance/verification-service/internal/service"
	"github.com/yieldx/trade-finance/verification-service/internal/telemetry"
)

const (
	RequestSubject = "verification.oracle.request"
	queueGroup     = "verification"
)

type Responder struct {
	nc           *nats.Conn
	orchestrator *service.Orchestrator
	sub          *nats.Subscription
}

func NewResponder(nc *nats.Conn, orchestrator *service.Orchestrator) *Responder {
	return &Responder{nc: nc, orchestrator: orchestrator}
}

// Start queue-subscribes to the oracle request subject.
func (r *Responder) Start() error {
	sub, err := r.nc.QueueSubscribe(RequestSubject, queueGroup, r.handle)
	if err != nil {
		return err
	}
	r.sub = sub
	telemetry.Logger.Info("Oracle responder started", zap.String("subject", RequestSubject))
	return nil
}

func (r *Responder) Stop() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}

func (r *Responder) handle(msg *nats.Msg) {
	var req models.VerificationRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		telemetry.Logger.Warn("Oracle request malformed", zap.Error(err))
		r.respondError(msg, "malformed verification request")
		return
	}

	verdict, err := r.orchestrator.VerifyDocuments(context.Background(), &req)
	if err != nil && verdict == nil {
		telemetry.Logger.Error("Oracle verification failed without verdict", zap.Error(err))
		r.respondError(msg, "verification unavailable")
		return
	}

	payload, err := Compact(verdict).Encode()
	if err != nil {
		telemetry.Logger.Error("Oracle payload encoding failed",
			zap.String("verification_id", verdict.VerificationID),
			zap.Error(err),
		)
		r.respondError(msg, "payload encoding failed")
		return
	}

	if err := msg.Respond(payload); err != nil {
		telemetry.Logger.Warn("Oracle reply failed",
			zap.String("verification_id", verdict.VerificationID),
			zap.Error(err),
		)
	}
}

func (r *Responder) respondError(msg *nats.Msg, detail string) {
	payload, err := CompactVerdict{
		Valid:     false,
		RiskScore: 99,
		Rating:    string(models.RatingError),
		Detail:    detail,
		Timestamp: time.Now().Unix(),
	}.Encode()
	if err != nil {
		return
	}
	_ = msg.Respond(payload)
}
