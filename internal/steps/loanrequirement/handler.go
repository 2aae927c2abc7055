package loanrequirement

import (
	"context"
	"fmt"

	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/gateway"
	"lead-intake/internal/lead"
	"lead-intake/internal/session"
	"lead-intake/internal/wizard"
)

// LoanDetailsGateway is the slice of the backend gateway this step needs.
type LoanDetailsGateway interface {
	SaveLoanDetails(ctx context.Context, accessToken string, req *gateway.LoanDetailsRequest) (*gateway.Envelope, error)
}

// Handler owns the loan requirement step. Save order is fixed: local gate,
// then auth check, then the backend call, and only after remote success
// the local store update and navigation. The local store never records a
// save the backend rejected.
type Handler struct {
	wizard   *wizard.Controller
	leads    *lead.Store
	sessions *session.Store
	gateway  LoanDetailsGateway
	logger   logger.Logger
}

func NewHandler(w *wizard.Controller, leads *lead.Store, sessions *session.Store, gw LoanDetailsGateway, log logger.Logger) *Handler {
	return &Handler{
		wizard:   w,
		leads:    leads,
		sessions: sessions,
		gateway:  gw,
		logger:   log.WithFields(map[string]interface{}{"step": "loan-requirement"}),
	}
}

func (h *Handler) Save(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	record := draft.Record()

	// Gate first: a zero amount or missing rate never reaches the network.
	step, err := wizard.StepByNumber(wizard.StepLoanRequirement)
	if err != nil {
		return nil, err
	}
	if err := wizard.ValidateGate(step, record); err != nil {
		return nil, err
	}

	token, err := h.sessions.AccessToken(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	l, err := h.leads.Get(ctx, sessionID, leadID)
	if err != nil {
		return nil, err
	}
	// The cursor check must precede the remote call: an out-of-sequence
	// save the advance would reject must never create server-side state.
	if l.CurrentStep != wizard.StepLoanRequirement {
		return nil, commonerrors.NewSequenceViolationError(
			fmt.Sprintf("lead is at step %d, cannot save the loan requirement", l.CurrentStep))
	}

	env, err := h.gateway.SaveLoanDetails(ctx, token, &gateway.LoanDetailsRequest{
		ApplicationID:          l.AppID,
		LoanAmountRequested:    draft.LoanAmount,
		LoanPurpose:            draft.LoanPurpose,
		LoanPurposeDescription: draft.LoanPurposeDescription,
		ProductCode:            draft.ProductCode,
		InterestRate:           draft.InterestRate,
		TenureMonths:           draft.TenureMonths,
		SourcingChannel:        draft.SourcingChannel,
	})
	if err != nil {
		h.logger.Warn("loan details save rejected", map[string]interface{}{
			"leadId": leadID,
			"error":  err.Error(),
		})
		return nil, err
	}

	// Remote success: record the server-assigned application reference
	// before advancing.
	if env.ApplicationID != "" && env.ApplicationID != l.AppID {
		appID := env.ApplicationID
		if _, err := h.leads.Apply(ctx, sessionID, leadID, lead.Update{AppID: &appID}); err != nil {
			return nil, err
		}
	}

	return h.wizard.Advance(ctx, sessionID, leadID, wizard.StepLoanRequirement, record)
}

func (h *Handler) Exit(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	if err := h.wizard.SaveAndStay(ctx, sessionID, leadID, wizard.StepLoanRequirement, draft.Record()); err != nil {
		return nil, err
	}
	return h.wizard.Exit(ctx, sessionID, leadID)
}
