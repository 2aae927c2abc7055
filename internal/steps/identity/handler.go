package identity

import (
	"context"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/wizard"
)

// Handler owns the identity step's save and exit actions. The step is
// local-only: nothing here talks to the backend.
type Handler struct {
	wizard *wizard.Controller
	logger logger.Logger
}

func NewHandler(w *wizard.Controller, log logger.Logger) *Handler {
	return &Handler{
		wizard: w,
		logger: log.WithFields(map[string]interface{}{"step": "identity"}),
	}
}

// Save merges the draft into the lead and advances the cursor. The advance
// gate enforces the step's required fields, including the verified-mobile
// flag.
func (h *Handler) Save(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	return h.wizard.Advance(ctx, sessionID, leadID, wizard.StepIdentity, draft.Record())
}

// Exit persists the draft record (even if incomplete) and leaves the
// wizard; identity-less drafts are discarded by the controller.
func (h *Handler) Exit(ctx context.Context, sessionID, leadID string, draft Draft) (*wizard.Route, error) {
	if err := h.wizard.SaveAndStay(ctx, sessionID, leadID, wizard.StepIdentity, draft.Record()); err != nil {
		return nil, err
	}
	return h.wizard.Exit(ctx, sessionID, leadID)
}
