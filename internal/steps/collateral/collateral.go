// Package collateral is the collateral capture step. Property collateral
// additionally requires a sub-type; the gate in the wizard sequence
// enforces that conditional.
package collateral

import (
	"context"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
	"lead-intake/internal/wizard"
)

type Draft struct {
	CollateralType  string `json:"collateralType"`
	PropertySubType string `json:"propertySubType"`
	OwnershipType   string `json:"ownershipType"`
	PropertyValue   string `json:"propertyValue"`
}

func Seed(record models.StepRecord) Draft {
	if record == nil {
		return Draft{}
	}
	return Draft{
		CollateralType:  record.String("collateralType"),
		PropertySubType: record.String("propertySubType"),
		OwnershipType:   record.String("ownershipType"),
		PropertyValue:   record.String("propertyValue"),
	}
}

func (d Draft) Record() models.StepRecord {
	return models.StepRecord{
		"collateralType":  d.CollateralType,
		"propertySubType": d.PropertySubType,
		"ownershipType":   d.OwnershipType,
		"propertyValue":   d.PropertyValue,
	}
}

type Handler struct {
	wizard *wizard.Controller
	logger logger.Logger
}

func NewHandler(w *wizard.Controller, log logger.Logger) *Handler {
	return &Handler{
		wizard: w,
		logger: log.WithFields(map[string]interface{}{"step": "collateral"}),
	}
}

func (h *Handler) Save(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	return h.wizard.Advance(ctx, sessionID, leadID, wizard.StepCollateral, draft.Record())
}

func (h *Handler) Exit(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	if err := h.wizard.SaveAndStay(ctx, sessionID, leadID, wizard.StepCollateral, draft.Record()); err != nil {
		return nil, err
	}
	return h.wizard.Exit(ctx, sessionID, leadID)
}
