// Package leadinfo is the customer identification step: legal name, PAN
// and date of birth. Local-only; no advance gate is defined for it.
package leadinfo

import (
	"context"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
	"lead-intake/internal/wizard"
)

type Draft struct {
	CustomerName string `json:"customerName"`
	PANNumber    string `json:"panNumber"`
	DOB          string `json:"dob"`
	Email        string `json:"email"`
	Address      string `json:"address"`
}

func Seed(record models.StepRecord) Draft {
	if record == nil {
		return Draft{}
	}
	return Draft{
		CustomerName: record.String("customerName"),
		PANNumber:    record.String("panNumber"),
		DOB:          record.String("dob"),
		Email:        record.String("email"),
		Address:      record.String("address"),
	}
}

func (d Draft) Record() models.StepRecord {
	return models.StepRecord{
		"customerName": d.CustomerName,
		"panNumber":    d.PANNumber,
		"dob":          d.DOB,
		"email":        d.Email,
		"address":      d.Address,
	}
}

type Handler struct {
	wizard *wizard.Controller
	logger logger.Logger
}

func NewHandler(w *wizard.Controller, log logger.Logger) *Handler {
	return &Handler{
		wizard: w,
		logger: log.WithFields(map[string]interface{}{"step": "new-lead-info"}),
	}
}

func (h *Handler) Save(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	return h.wizard.Advance(ctx, sessionID, leadID, wizard.StepLeadInfo, draft.Record())
}

func (h *Handler) Exit(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	if err := h.wizard.SaveAndStay(ctx, sessionID, leadID, wizard.StepLeadInfo, draft.Record()); err != nil {
		return nil, err
	}
	return h.wizard.Exit(ctx, sessionID, leadID)
}
