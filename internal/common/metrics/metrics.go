// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_otp_requests_total",
			Help: "Total number of OTP request attempts",
		},
		[]string{"result"},
	)

	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_otp_verifications_total",
			Help: "Total number of OTP verification attempts",
		},
		[]string{"result"},
	)

	LeadSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_lead_saves_total",
			Help: "Total number of step save attempts",
		},
		[]string{"step", "result"},
	)

	WizardAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_wizard_advances_total",
			Help: "Total number of wizard step advances",
		},
		[]string{"step"},
	)

	GatewayCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "intake_gateway_call_duration_seconds",
			Help: "Duration of calls to the lead collection backend",
		},
		[]string{"endpoint"},
	)
)
