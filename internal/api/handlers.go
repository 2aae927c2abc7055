// Package api exposes the intake wizard over HTTP. Handlers decode
// requests, delegate to the flows and stores, and answer in the same
// success/error envelope shape the backend uses.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"lead-intake/internal/auth"
	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/lead"
	"lead-intake/internal/models"
	"lead-intake/internal/steps/collateral"
	"lead-intake/internal/steps/documents"
	"lead-intake/internal/steps/identity"
	"lead-intake/internal/steps/leadinfo"
	"lead-intake/internal/steps/loanrequirement"
	"lead-intake/internal/steps/loanterms"
	"lead-intake/internal/steps/review"
	"lead-intake/internal/wizard"
)

// StepHandlers bundles the per-step save handlers.
type StepHandlers struct {
	Identity        *identity.Handler
	LeadInfo        *leadinfo.Handler
	LoanRequirement *loanrequirement.Handler
	Collateral      *collateral.Handler
	LoanTerms       *loanterms.Handler
	Documents       *documents.Handler
	Review          *review.Handler
}

type Handlers struct {
	auth      *auth.Flow
	leads     *lead.Store
	wizard    *wizard.Controller
	steps     StepHandlers
	responder *commonerrors.ErrorResponder
	logger    logger.Logger
}

func NewHandlers(flow *auth.Flow, leads *lead.Store, w *wizard.Controller, steps StepHandlers, log logger.Logger) *Handlers {
	return &Handlers{
		auth:      flow,
		leads:     leads,
		wizard:    w,
		steps:     steps,
		responder: commonerrors.NewErrorResponder(log),
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

type successEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func (h *Handlers) writeSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(successEnvelope{Success: true, Message: message, Data: data})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.responder.Respond(w, commonerrors.NewValidationFailedError("request body is not valid JSON"))
		return false
	}
	return true
}

// --- Auth ---

func (h *Handlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.RequestOTP(r.Context(), sessionID(r), req.Email); err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "OTP sent", nil)
}

func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.auth.VerifyOTP(r.Context(), sessionID(r), req.Email, req.OTP); err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "signed in", nil)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), sessionID(r)); err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "signed out", map[string]string{"route": "login"})
}

// --- Leads ---

func (h *Handlers) CreateLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.leads.Create(r.Context(), sessionID(r))
	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "lead created", l.Summary())
}

func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.List(r.Context(), sessionID(r))
	if err != nil {
		h.responder.Respond(w, err)
		return
	}

	summaries := make([]models.LeadSummary, 0, len(leads))
	for _, l := range leads {
		summaries = append(summaries, l.Summary())
	}
	counts, err := h.leads.CountByStatus(r.Context(), sessionID(r))
	if err != nil {
		h.responder.Respond(w, err)
		return
	}

	h.writeSuccess(w, "", map[string]interface{}{
		"leads":  summaries,
		"counts": counts,
	})
}

func (h *Handlers) GetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.leads.Get(r.Context(), sessionID(r), mux.Vars(r)["leadID"])
	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "", l)
}

func (h *Handlers) SelectLead(w http.ResponseWriter, r *http.Request) {
	leadID := mux.Vars(r)["leadID"]
	if _, err := h.leads.Get(r.Context(), sessionID(r), leadID); err != nil {
		h.responder.Respond(w, err)
		return
	}
	if err := h.leads.SetCurrent(r.Context(), sessionID(r), leadID); err != nil {
		h.responder.Respond(w, err)
		return
	}
	route, err := h.wizard.Resolve(r.Context(), sessionID(r))
	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "", route)
}

// --- Wizard ---

func (h *Handlers) ResolveRoute(w http.ResponseWriter, r *http.Request) {
	route, err := h.wizard.Resolve(r.Context(), sessionID(r))
	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "", route)
}

func (h *Handlers) ExitWizard(w http.ResponseWriter, r *http.Request) {
	route, err := h.wizard.Exit(r.Context(), sessionID(r), mux.Vars(r)["leadID"])
	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "draft saved", route)
}

func (h *Handlers) EditFromReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step int `json:"step"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	route, err := h.steps.Review.Edit(r.Context(), sessionID(r), mux.Vars(r)["leadID"], req.Step)
	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "", route)
}

// SaveStep dispatches a step save to the owning step handler by route name.
func (h *Handlers) SaveStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sid := sessionID(r)
	leadID := vars["leadID"]

	var (
		route *wizard.Route
		err   error
	)

	switch vars["step"] {
	case "step1":
		var draft identity.Draft
		if !h.decode(w, r, &draft) {
			return
		}
		route, err = h.steps.Identity.Save(r.Context(), sid, leadID, draft)
	case "new-lead-info":
		var draft leadinfo.Draft
		if !h.decode(w, r, &draft) {
			return
		}
		route, err = h.steps.LeadInfo.Save(r.Context(), sid, leadID, draft)
	case "loan-requirement":
		var draft loanrequirement.Draft
		if !h.decode(w, r, &draft) {
			return
		}
		route, err = h.steps.LoanRequirement.Save(r.Context(), sid, leadID, draft)
	case "step6":
		var draft collateral.Draft
		if !h.decode(w, r, &draft) {
			return
		}
		route, err = h.steps.Collateral.Save(r.Context(), sid, leadID, draft)
	case "step7":
		var draft loanterms.Draft
		if !h.decode(w, r, &draft) {
			return
		}
		route, err = h.steps.LoanTerms.Save(r.Context(), sid, leadID, draft)
	case "documents":
		var draft documents.Draft
		if !h.decode(w, r, &draft) {
			return
		}
		route, err = h.steps.Documents.Save(r.Context(), sid, leadID, draft)
	default:
		h.responder.Respond(w, commonerrors.NewValidationFailedError("unknown step route"))
		return
	}

	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "step saved", route)
}

// ConfirmReview completes the wizard and returns the payment link.
func (h *Handlers) ConfirmReview(w http.ResponseWriter, r *http.Request) {
	var draft review.Draft
	if !h.decode(w, r, &draft) {
		return
	}
	link, err := h.steps.Review.Confirm(r.Context(), sessionID(r), mux.Vars(r)["leadID"], draft)
	if err != nil {
		h.responder.Respond(w, err)
		return
	}
	h.writeSuccess(w, "moved to payment stage", map[string]string{
		"paymentLink": link.PaymentLink,
		"expiresAt":   link.ExpiresAt,
	})
}
