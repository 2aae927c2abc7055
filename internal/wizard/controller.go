package wizard

import (
	"context"
	"fmt"
	"strconv"

	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/lead"
	"lead-intake/internal/models"
)

// Controller advances and rewinds the per-lead step cursor. All navigation
// goes through here; step screens never touch the cursor directly.
type Controller struct {
	leads  *lead.Store
	logger logger.Logger
}

// Route tells the client which screen to render.
type Route struct {
	Name    string `json:"route"`
	Step    int    `json:"step,omitempty"`
	LeadID  string `json:"leadId,omitempty"`
	StepKey string `json:"stepKey,omitempty"`
}

func NewController(leads *lead.Store, log logger.Logger) *Controller {
	return &Controller{
		leads:  leads,
		logger: log.WithFields(map[string]interface{}{"component": "wizard"}),
	}
}

// Resolve picks the screen for the session: the lead list when no lead is
// current, otherwise the current lead's step.
func (c *Controller) Resolve(ctx context.Context, sessionID string) (*Route, error) {
	l, err := c.leads.Current(ctx, sessionID)
	if err != nil {
		if commonerrors.IsCode(err, commonerrors.ErrCodeNoCurrentLead) {
			return &Route{Name: RouteLeadList}, nil
		}
		return nil, err
	}

	step, err := StepByNumber(l.CurrentStep)
	if err != nil {
		return nil, err
	}
	return &Route{
		Name:    step.Route,
		Step:    step.Number,
		LeadID:  l.ID,
		StepKey: step.Key,
	}, nil
}

// Advance saves a step's merged record and moves the cursor forward. The
// record must already be the whole step record; the gate runs against it
// before anything is written. When the lead carries a return-to-review
// marker, completing an earlier step jumps back to review instead of the
// fixed successor.
func (c *Controller) Advance(ctx context.Context, sessionID, leadID string, stepNumber int, record models.StepRecord) (*Route, error) {
	step, err := StepByNumber(stepNumber)
	if err != nil {
		return nil, err
	}
	if err := ValidateGate(step, record); err != nil {
		metrics.LeadSaves.WithLabelValues(step.Key, "gate_failed").Inc()
		return nil, err
	}

	l, err := c.leads.Get(ctx, sessionID, leadID)
	if err != nil {
		return nil, err
	}
	if l.CurrentStep != stepNumber {
		return nil, commonerrors.NewSequenceViolationError(
			fmt.Sprintf("lead is at step %d, cannot advance from step %d", l.CurrentStep, stepNumber))
	}

	next, err := c.nextFor(l, step)
	if err != nil {
		return nil, err
	}

	upd := lead.Update{
		FormData: map[string]models.StepRecord{step.Key: record},
	}
	if l.ReturnToReview && step.Number != StepReview {
		off := false
		upd.ReturnToReview = &off
	}
	if next != nil {
		upd.CurrentStep = &next.Number
	}
	if _, err := c.leads.Apply(ctx, sessionID, leadID, upd); err != nil {
		metrics.LeadSaves.WithLabelValues(step.Key, "store_failed").Inc()
		return nil, err
	}

	metrics.LeadSaves.WithLabelValues(step.Key, "success").Inc()
	metrics.WizardAdvances.WithLabelValues(strconv.Itoa(step.Number)).Inc()

	if next == nil {
		// Review is terminal for the cursor; the payment-link handoff is a
		// side flow owned by the review screen.
		c.logger.Info("wizard completed", map[string]interface{}{"leadId": leadID})
		return &Route{Name: "payment-link", Step: StepReview, LeadID: leadID}, nil
	}

	c.logger.Info("wizard advanced", map[string]interface{}{
		"leadId": leadID,
		"from":   step.Number,
		"to":     next.Number,
	})
	return &Route{
		Name:    next.Route,
		Step:    next.Number,
		LeadID:  leadID,
		StepKey: next.Key,
	}, nil
}

// SaveAndStay replaces a step's record without moving the cursor; used by
// save paths that must persist before a remote call resolves navigation.
func (c *Controller) SaveAndStay(ctx context.Context, sessionID, leadID string, stepNumber int, record models.StepRecord) error {
	step, err := StepByNumber(stepNumber)
	if err != nil {
		return err
	}
	_, err = c.leads.Apply(ctx, sessionID, leadID, lead.Update{
		FormData: map[string]models.StepRecord{step.Key: record},
	})
	return err
}

// Exit persists the in-progress draft and returns to the lead list, unless
// no identifying customer data was ever entered, in which case the lead is
// discarded entirely.
func (c *Controller) Exit(ctx context.Context, sessionID, leadID string) (*Route, error) {
	l, err := c.leads.Get(ctx, sessionID, leadID)
	if err != nil {
		return nil, err
	}

	if !l.HasCustomerIdentity() {
		if err := c.leads.Delete(ctx, sessionID, leadID); err != nil {
			return nil, err
		}
		c.logger.Info("empty draft discarded on exit", map[string]interface{}{"leadId": leadID})
		return &Route{Name: RouteLeadList}, nil
	}

	if err := c.leads.ClearCurrent(ctx, sessionID); err != nil {
		return nil, err
	}
	c.logger.Info("draft kept on exit", map[string]interface{}{"leadId": leadID})
	return &Route{Name: RouteLeadList}, nil
}

// EditFromReview jumps the cursor back to an earlier step and marks the
// lead so that completing the edit returns to review.
func (c *Controller) EditFromReview(ctx context.Context, sessionID, leadID string, target int) (*Route, error) {
	step, err := StepByNumber(target)
	if err != nil {
		return nil, err
	}
	if target >= StepReview {
		return nil, commonerrors.NewSequenceViolationError("review can only edit earlier steps")
	}

	l, err := c.leads.Get(ctx, sessionID, leadID)
	if err != nil {
		return nil, err
	}
	if l.CurrentStep != StepReview {
		return nil, commonerrors.NewSequenceViolationError("edit-from-review requires the lead to be at review")
	}

	on := true
	if _, err := c.leads.Apply(ctx, sessionID, leadID, lead.Update{
		CurrentStep:    &target,
		ReturnToReview: &on,
	}); err != nil {
		return nil, err
	}

	c.logger.Info("editing earlier step from review", map[string]interface{}{
		"leadId": leadID,
		"step":   target,
	})
	return &Route{
		Name:    step.Route,
		Step:    step.Number,
		LeadID:  leadID,
		StepKey: step.Key,
	}, nil
}

// nextFor resolves the successor, honoring the return-to-review marker.
func (c *Controller) nextFor(l *models.Lead, step *Step) (*Step, error) {
	if l.ReturnToReview && step.Number != StepReview {
		return StepByNumber(StepReview)
	}
	return Successor(step.Number)
}
