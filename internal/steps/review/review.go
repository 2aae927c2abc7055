// Package review is the final confirmation step. Confirming hands the
// lead off to payment-link generation, a side flow outside the step
// cursor. The review screen may also jump back to any earlier step via
// the controller's edit-from-review transition.
package review

import (
	"context"

	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/gateway"
	"lead-intake/internal/lead"
	"lead-intake/internal/models"
	"lead-intake/internal/session"
	"lead-intake/internal/wizard"
)

type Draft struct {
	MoveToNextStage bool `json:"moveToNextStage"`
}

func Seed(record models.StepRecord) Draft {
	if record == nil {
		return Draft{}
	}
	return Draft{MoveToNextStage: record.Bool("moveToNextStage")}
}

func (d Draft) Record() models.StepRecord {
	return models.StepRecord{"moveToNextStage": d.MoveToNextStage}
}

// PaymentLinkGateway is the slice of the backend gateway this step needs.
type PaymentLinkGateway interface {
	GeneratePaymentLink(ctx context.Context, accessToken, applicationID string) (*gateway.PaymentLinkResult, error)
}

type Handler struct {
	wizard   *wizard.Controller
	leads    *lead.Store
	sessions *session.Store
	gateway  PaymentLinkGateway
	logger   logger.Logger
}

func NewHandler(w *wizard.Controller, leads *lead.Store, sessions *session.Store, gw PaymentLinkGateway, log logger.Logger) *Handler {
	return &Handler{
		wizard:   w,
		leads:    leads,
		sessions: sessions,
		gateway:  gw,
		logger:   log.WithFields(map[string]interface{}{"step": "review"}),
	}
}

// Confirm requires the explicit move-to-next-stage checkbox, completes the
// wizard and generates the payment link.
func (h *Handler) Confirm(ctx context.Context, sessionID, leadID string, draft Draft) (*gateway.PaymentLinkResult, error) {
	if _, err := h.wizard.Advance(ctx, sessionID, leadID, wizard.StepReview, draft.Record()); err != nil {
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
	if l.AppID == "" {
		return nil, commonerrors.NewValidationFailedError("lead has no application reference, save the loan requirement first")
	}

	link, err := h.gateway.GeneratePaymentLink(ctx, token, l.AppID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("payment link generated", map[string]interface{}{
		"leadId":        leadID,
		"applicationId": l.AppID,
	})
	return link, nil
}

// Edit jumps to an earlier step for correction; completing that step's
// save returns here.
func (h *Handler) Edit(ctx context.Context, sessionID, leadID string, target int) (*wizard.Route, error) {
	return h.wizard.EditFromReview(ctx, sessionID, leadID, target)
}

// Exit keeps the draft and returns to the lead list.
func (h *Handler) Exit(ctx context.Context, sessionID, leadID string) (*wizard.Route, error) {
	return h.wizard.Exit(ctx, sessionID, leadID)
}
