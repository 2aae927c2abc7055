// Package identity is the first wizard step: product selection plus the
// customer's verified mobile identity and consent.
package identity

import "lead-intake/internal/models"

// Draft holds the step's local field values before they are merged back
// into the lead's step record.
type Draft struct {
	ProductType      string `json:"productType"`
	ApplicationType  string `json:"applicationType"`
	Mobile           string `json:"mobile"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	IsMobileVerified bool   `json:"isMobileVerified"`
	ConsentAccepted  bool   `json:"consentAccepted"`
}

// Seed builds a draft from the lead's stored step record.
func Seed(record models.StepRecord) Draft {
	if record == nil {
		return Draft{}
	}
	return Draft{
		ProductType:      record.String("productType"),
		ApplicationType:  record.String("applicationType"),
		Mobile:           record.String("mobile"),
		FirstName:        record.String("firstName"),
		LastName:         record.String("lastName"),
		IsMobileVerified: record.Bool("isMobileVerified"),
		ConsentAccepted:  record.Bool("consentAccepted"),
	}
}

// Record returns the whole step record for a store write.
func (d Draft) Record() models.StepRecord {
	return models.StepRecord{
		"productType":      d.ProductType,
		"applicationType":  d.ApplicationType,
		"mobile":           d.Mobile,
		"firstName":        d.FirstName,
		"lastName":         d.LastName,
		"isMobileVerified": d.IsMobileVerified,
		"consentAccepted":  d.ConsentAccepted,
	}
}
