// Package wizard is the lead intake state machine: a declarative step
// sequence consumed uniformly by the controller, so ordering lives in data
// instead of per-screen control flow. The retired steps 4, 5 and 10 of the
// old client do not exist here.
package wizard

import (
	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/validation"
	"lead-intake/internal/models"
)

// Step numbers keep the historical cursor values so resumed drafts from
// the old client land on the same screens.
const (
	StepIdentity        = 1
	StepLeadInfo        = 2
	StepLoanRequirement = 3
	StepCollateral      = 6
	StepLoanTerms       = 7
	StepDocuments       = 8
	StepReview          = 9
)

// RouteLeadList is the route when no lead is current.
const RouteLeadList = "lead-list"

// Step describes one wizard stage: its cursor number, formData key, route
// name, advance gate and whether its save talks to the backend.
type Step struct {
	Number     int
	Key        string
	Route      string
	RemoteSync bool

	// GateSchema is the required-field predicate as a JSON schema; empty
	// means the step gates on nothing.
	GateSchema string

	// Check holds gate conditions a flat schema cannot express.
	Check func(record models.StepRecord) error
}

// Sequence is the fixed forward order of the wizard.
var Sequence = []Step{
	{
		Number: StepIdentity,
		Key:    models.StepKeyIdentity,
		Route:  "step1",
		GateSchema: `{
			"type": "object",
			"required": ["productType", "applicationType", "mobile", "firstName", "lastName", "isMobileVerified"],
			"properties": {
				"productType":      {"type": "string", "minLength": 1},
				"applicationType":  {"type": "string", "minLength": 1},
				"mobile":           {"type": "string", "minLength": 10},
				"firstName":        {"type": "string", "minLength": 1},
				"lastName":         {"type": "string", "minLength": 1},
				"isMobileVerified": {"type": "boolean", "enum": [true]}
			}
		}`,
		Check: func(record models.StepRecord) error {
			if mobile := record.String("mobile"); !validation.ValidateMobile(mobile) {
				return commonerrors.NewStepGateFailedError(models.StepKeyIdentity, "mobile is not a valid 10-digit number")
			}
			return nil
		},
	},
	{
		Number: StepLeadInfo,
		Key:    models.StepKeyLeadInfo,
		Route:  "new-lead-info",
	},
	{
		Number:     StepLoanRequirement,
		Key:        models.StepKeyLoanRequirement,
		Route:      "loan-requirement",
		RemoteSync: true,
		GateSchema: `{
			"type": "object",
			"required": ["loanAmount", "interestRate", "tenureMonths"],
			"properties": {
				"loanAmount":   {"type": "number", "exclusiveMinimum": 0},
				"interestRate": {"type": "number", "exclusiveMinimum": 0},
				"tenureMonths": {"type": "integer", "minimum": 1}
			}
		}`,
	},
	{
		Number: StepCollateral,
		Key:    models.StepKeyCollateral,
		Route:  "step6",
		GateSchema: `{
			"type": "object",
			"required": ["collateralType", "ownershipType", "propertyValue"],
			"properties": {
				"collateralType": {"type": "string", "minLength": 1},
				"ownershipType":  {"type": "string", "minLength": 1},
				"propertyValue":  {"type": "string", "minLength": 1}
			}
		}`,
		Check: func(record models.StepRecord) error {
			if record.String("collateralType") == "property" && record.String("propertySubType") == "" {
				return commonerrors.NewStepGateFailedError(models.StepKeyCollateral, "propertySubType is required for property collateral")
			}
			return nil
		},
	},
	{
		Number: StepLoanTerms,
		Key:    models.StepKeyLoanTerms,
		Route:  "step7",
		GateSchema: `{
			"type": "object",
			"required": ["loanAmount", "loanPurpose", "sourcingChannel", "interestRate", "tenureMonths"],
			"properties": {
				"loanAmount":      {"type": "number", "exclusiveMinimum": 0},
				"loanPurpose":     {"type": "string", "minLength": 1},
				"sourcingChannel": {"type": "string", "minLength": 1},
				"interestRate":    {"type": "number"},
				"tenureMonths":    {"type": "integer"}
			}
		}`,
	},
	{
		Number: StepDocuments,
		Key:    models.StepKeyDocuments,
		Route:  "documents",
	},
	{
		Number: StepReview,
		Key:    models.StepKeyReview,
		Route:  "step9",
		GateSchema: `{
			"type": "object",
			"required": ["moveToNextStage"],
			"properties": {
				"moveToNextStage": {"type": "boolean", "enum": [true]}
			}
		}`,
	},
}

// StepByNumber looks a step up by its cursor number.
func StepByNumber(number int) (*Step, error) {
	for i := range Sequence {
		if Sequence[i].Number == number {
			return &Sequence[i], nil
		}
	}
	return nil, commonerrors.NewUnknownStepError(number)
}

// Successor returns the next step in the fixed sequence, or nil when the
// step is terminal.
func Successor(number int) (*Step, error) {
	for i := range Sequence {
		if Sequence[i].Number == number {
			if i+1 < len(Sequence) {
				return &Sequence[i+1], nil
			}
			return nil, nil
		}
	}
	return nil, commonerrors.NewUnknownStepError(number)
}

// ValidateGate runs a step's required-field predicate against a merged
// record. Steps without a gate always pass.
func ValidateGate(step *Step, record models.StepRecord) error {
	result, err := validation.ValidateRecord(record, step.GateSchema)
	if err != nil {
		return commonerrors.NewStepGateFailedError(step.Key, err.Error())
	}
	if !result.Valid {
		return commonerrors.NewStepGateFailedError(step.Key, result.Summary())
	}
	if step.Check != nil {
		return step.Check(record)
	}
	return nil
}
