// Package loanterms is the legacy local-only loan terms step. It mirrors
// the loan requirement fields but never calls the backend; flows that
// skipped the remote sync still capture terms here.
package loanterms

import (
	"context"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
	"lead-intake/internal/wizard"
)

type Draft struct {
	LoanAmount      float64 `json:"loanAmount"`
	LoanPurpose     string  `json:"loanPurpose"`
	SourcingChannel string  `json:"sourcingChannel"`
	InterestRate    float64 `json:"interestRate"`
	TenureMonths    int     `json:"tenureMonths"`
}

func Seed(record models.StepRecord) Draft {
	if record == nil {
		return Draft{}
	}
	return Draft{
		LoanAmount:      record.Float("loanAmount"),
		LoanPurpose:     record.String("loanPurpose"),
		SourcingChannel: record.String("sourcingChannel"),
		InterestRate:    record.Float("interestRate"),
		TenureMonths:    int(record.Float("tenureMonths")),
	}
}

func (d Draft) Record() models.StepRecord {
	return models.StepRecord{
		"loanAmount":      d.LoanAmount,
		"loanPurpose":     d.LoanPurpose,
		"sourcingChannel": d.SourcingChannel,
		"interestRate":    d.InterestRate,
		"tenureMonths":    d.TenureMonths,
	}
}

type Handler struct {
	wizard *wizard.Controller
	logger logger.Logger
}

func NewHandler(w *wizard.Controller, log logger.Logger) *Handler {
	return &Handler{
		wizard: w,
		logger: log.WithFields(map[string]interface{}{"step": "loan-terms"}),
	}
}

func (h *Handler) Save(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	return h.wizard.Advance(ctx, sessionID, leadID, wizard.StepLoanTerms, draft.Record())
}

func (h *Handler) Exit(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	if err := h.wizard.SaveAndStay(ctx, sessionID, leadID, wizard.StepLoanTerms, draft.Record()); err != nil {
		return nil, err
	}
	return h.wizard.Exit(ctx, sessionID, leadID)
}
