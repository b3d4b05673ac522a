package models

import "time"

type PipelineStage string

const (
	StageReceived       PipelineStage = "RECEIVED"
	StageSnapshotStored PipelineStage = "SNAPSHOT_STORED"
	StageChecksRunning  PipelineStage = "CHECKS_RUNNING"
	StageAggregated     PipelineStage = "AGGREGATED"
	StagePersisted      PipelineStage = "PERSISTED"
	StageResponded      PipelineStage = "RESPONDED"
	StageFailed         PipelineStage = "FAILED"
)

type SanctionsStatus string

const (
	SanctionsClear   SanctionsStatus = "CLEAR"
	SanctionsFlagged SanctionsStatus = "FLAGGED"
	SanctionsError   SanctionsStatus = "ERROR"
)

type FraudStatus string

const (
	FraudPassed FraudStatus = "PASSED"
	FraudFailed FraudStatus = "FAILED"
	FraudError  FraudStatus = "ERROR"
)

type CommodityStatus string

const (
	CommodityApproved CommodityStatus = "APPROVED"
	CommodityRejected CommodityStatus = "REJECTED"
	CommodityError    CommodityStatus = "ERROR"
)

type EntityStatus string

const (
	EntityVerified EntityStatus = "VERIFIED"
	EntityError    EntityStatus = "ERROR"
)

type CreditRating string

const (
	RatingAAA   CreditRating = "AAA"
	RatingAA    CreditRating = "AA"
	RatingA     CreditRating = "A"
	RatingBBB   CreditRating = "BBB"
	RatingBB    CreditRating = "BB"
	RatingB     CreditRating = "B"
	RatingD     CreditRating = "D"
	RatingError CreditRating = "ERROR"
)

// RatingForScore maps a final risk score to its credit rating band.
func RatingForScore(score int) CreditRating {
	switch {
	case score <= 15:
		return RatingAAA
	case score <= 25:
		return RatingAA
	case score <= 40:
		return RatingA
	case score <= 55:
		return RatingBBB
	case score <= 70:
		return RatingBB
	case score <= 85:
		return RatingB
	default:
		return RatingD
	}
}

// InvoiceDetails carries the invoice fields the check services screen.
type InvoiceDetails struct {
	Commodity       string `json:"commodity" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	SupplierCountry string `json:"supplierCountry" binding:"required"`
	BuyerCountry    string `json:"buyerCountry" binding:"required"`
	ExporterName    string `json:"exporterName" binding:"required"`
	BuyerName       string `json:"buyerName" binding:"required"`
}

// VerificationRequest is the verify-documents request body. The same shape is
// accepted on the oracle subject.
type VerificationRequest struct {
	InvoiceID      string            `json:"invoiceId" binding:"required"`
	DocumentHash   string            `json:"documentHash" binding:"required"`
	InvoiceDetails InvoiceDetails    `json:"invoiceDetails" binding:"required"`
	Metadata       map[string]string `json:"metadata"`
}

// InvoiceSnapshot is the immutable record of the invoice data supplied at
// verification time. Resubmissions create new snapshots; nothing is deduplicated.
type InvoiceSnapshot struct {
	InvoiceID       string            `json:"invoiceId"`
	DocumentHash    string            `json:"documentHash"`
	Commodity       string            `json:"commodity"`
	Amount          string            `json:"amount"`
	SupplierCountry string            `json:"supplierCountry"`
	BuyerCountry    string            `json:"buyerCountry"`
	ExporterName    string            `json:"exporterName"`
	BuyerName       string            `json:"buyerName"`
	Metadata        map[string]string `json:"metadata"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// VerificationChecks holds the per-check statuses of one pipeline run.
type VerificationChecks struct {
	DocumentIntegrity  bool            `json:"documentIntegrity"`
	SanctionsCheck     SanctionsStatus `json:"sanctionsCheck"`
	FraudCheck         FraudStatus     `json:"fraudCheck"`
	CommodityCheck     CommodityStatus `json:"commodityCheck"`
	EntityVerification EntityStatus    `json:"entityVerification"`
}

// VerificationVerdict is the complete output of one pipeline run. Verdicts are
// append-only: once persisted they are never updated or deleted.
type VerificationVerdict struct {
	VerificationID   string             `json:"verificationId"`
	InvoiceID        string             `json:"invoiceId"`
	DocumentHash     string             `json:"documentHash"`
	IsValid          bool               `json:"isValid"`
	RiskScore        int                `json:"riskScore"`
	CreditRating     CreditRating       `json:"creditRating"`
	Checks           VerificationChecks `json:"checks"`
	Details          []string           `json:"details"`
	Recommendations  []string           `json:"recommendations"`
	PolicyVersion    string             `json:"policyVersion"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
	VerifiedAt       time.Time          `json:"verifiedAt"`
}

// VerdictRecordedEvent is published after every persisted verdict.
type VerdictRecordedEvent struct {
	VerificationID string       `json:"verification_id"`
	InvoiceID      string       `json:"invoice_id"`
	IsValid        bool         `json:"is_valid"`
	RiskScore      int          `json:"risk_score"`
	CreditRating   CreditRating `json:"credit_rating"`
	PolicyVersion  string       `json:"policy_version"`
	VerifiedAt     time.Time    `json:"verified_at"`
}

// VerificationStats is the aggregate view over all persisted verdicts.
type VerificationStats struct {
	Total              int            `json:"total"`
	ValidCount         int            `json:"validCount"`
	AverageRiskScore   float64        `json:"averageRiskScore"`
	RatingDistribution map[string]int `json:"ratingDistribution"`
}
