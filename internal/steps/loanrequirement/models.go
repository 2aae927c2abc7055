// Package loanrequirement is the remote-synchronized loan requirement
// step. Its save is the only wizard action that creates or updates the
// server-side application record.
package loanrequirement

import "lead-intake/internal/models"

type Draft struct {
	LoanAmount             float64 `json:"loanAmount"`
	LoanPurpose            string  `json:"loanPurpose"`
	LoanPurposeDescription string  `json:"loanPurposeDescription"`
	ProductCode            string  `json:"productCode"`
	InterestRate           float64 `json:"interestRate"`
	TenureMonths           int     `json:"tenureMonths"`
	SourcingChannel        string  `json:"sourcingChannel"`
}

func Seed(record models.StepRecord) Draft {
	if record == nil {
		return Draft{}
	}
	return Draft{
		LoanAmount:             record.Float("loanAmount"),
		LoanPurpose:            record.String("loanPurpose"),
		LoanPurposeDescription: record.String("loanPurposeDescription"),
		ProductCode:            record.String("productCode"),
		InterestRate:           record.Float("interestRate"),
		TenureMonths:           int(record.Float("tenureMonths")),
		SourcingChannel:        record.String("sourcingChannel"),
	}
}

func (d Draft) Record() models.StepRecord {
	return models.StepRecord{
		"loanAmount":             d.LoanAmount,
		"loanPurpose":            d.LoanPurpose,
		"loanPurposeDescription": d.LoanPurposeDescription,
		"productCode":            d.ProductCode,
		"interestRate":           d.InterestRate,
		"tenureMonths":           d.TenureMonths,
		"sourcingChannel":        d.SourcingChannel,
	}
}
