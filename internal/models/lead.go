// internal/models/lead.go
package models

import "time"

// Status is the ordered lead lifecycle. Only Draft is assigned locally;
// every later state is advanced by the backend.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusSubmitted Status = "Submitted"
	StatusApproved  Status = "Approved"
	StatusDisbursed Status = "Disbursed"
)

// Step record keys inside Lead.FormData.
const (
	StepKeyIdentity        = "step1"
	StepKeyLeadInfo        = "step2"
	StepKeyLoanRequirement = "step3"
	StepKeyCollateral      = "step6"
	StepKeyLoanTerms       = "step7"
	StepKeyDocuments       = "step8"
	StepKeyReview          = "step9"
)

// StepRecord holds one step's field values. Records are replaced whole on
// every save, never partially merged.
type StepRecord map[string]interface{}

// Lead is one loan application draft.
type Lead struct {
	ID             string                `json:"id"`
	AppID          string                `json:"appId,omitempty"`
	Status         Status                `json:"status"`
	CurrentStep    int                   `json:"currentStep"`
	ReturnToReview bool                  `json:"returnToReview,omitempty"`
	FormData       map[string]StepRecord `json:"formData"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// LeadSummary is the dashboard projection of a lead. Summary fields are
// derived from the per-step records at read time; the step records stay
// the single source of truth.
type LeadSummary struct {
	ID                string  `json:"id"`
	AppID             string  `json:"appId,omitempty"`
	Status            Status  `json:"status"`
	CurrentStep       int     `json:"currentStep"`
	CustomerFirstName string  `json:"customerFirstName,omitempty"`
	CustomerLastName  string  `json:"customerLastName,omitempty"`
	CustomerName      string  `json:"customerName,omitempty"`
	CustomerMobile    string  `json:"customerMobile,omitempty"`
	PANNumber         string  `json:"panNumber,omitempty"`
	DOB               string  `json:"dob,omitempty"`
	LoanAmount        float64 `json:"loanAmount,omitempty"`
	LoanPurpose       string  `json:"loanPurpose,omitempty"`
}

// Summary projects the denormalized dashboard fields from FormData.
func (l *Lead) Summary() LeadSummary {
	s := LeadSummary{
		ID:          l.ID,
		AppID:       l.AppID,
		Status:      l.Status,
		CurrentStep: l.CurrentStep,
	}

	if rec, ok := l.FormData[StepKeyIdentity]; ok {
		s.CustomerFirstName = rec.String("firstName")
		s.CustomerLastName = rec.String("lastName")
		s.CustomerMobile = rec.String("mobile")
	}
	if rec, ok := l.FormData[StepKeyLeadInfo]; ok {
		s.CustomerName = rec.String("customerName")
		s.PANNumber = rec.String("panNumber")
		s.DOB = rec.String("dob")
	}
	// Loan requirement wins over the legacy local-only loan terms step.
	if rec, ok := l.FormData[StepKeyLoanTerms]; ok {
		s.LoanAmount = rec.Float("loanAmount")
		s.LoanPurpose = rec.String("loanPurpose")
	}
	if rec, ok := l.FormData[StepKeyLoanRequirement]; ok {
		if amount := rec.Float("loanAmount"); amount > 0 {
			s.LoanAmount = amount
		}
		if purpose := rec.String("loanPurpose"); purpose != "" {
			s.LoanPurpose = purpose
		}
	}

	if s.CustomerName == "" && (s.CustomerFirstName != "" || s.CustomerLastName != "") {
		s.CustomerName = joinName(s.CustomerFirstName, s.CustomerLastName)
	}

	return s
}

// HasCustomerIdentity reports whether any identifying customer data was
// ever captured. Leads without it are discarded on exit instead of being
// kept as empty drafts.
func (l *Lead) HasCustomerIdentity() bool {
	s := l.Summary()
	return s.CustomerName != "" || s.CustomerMobile != ""
}

// SetStepRecord replaces one step's record whole.
func (l *Lead) SetStepRecord(key string, record StepRecord) {
	if l.FormData == nil {
		l.FormData = make(map[string]StepRecord)
	}
	l.FormData[key] = record
}

// StepData returns the record for a step key, or nil when unvisited.
func (l *Lead) StepData(key string) StepRecord {
	return l.FormData[key]
}

// String reads a string-typed field from the record.
func (r StepRecord) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// Float reads a numeric field from the record, tolerating the int types
// that show up before a record round-trips through JSON.
func (r StepRecord) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Bool reads a boolean field from the record.
func (r StepRecord) Bool(key string) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return false
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
