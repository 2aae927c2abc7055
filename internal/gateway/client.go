// Package gateway wraps the remote lead collection REST API. Callers get
// stateless request/response functions; every response is discriminated on
// the envelope's success flag before any payload field is trusted.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/models"
)

const (
	requestOTPPath  = "/token/request-otp/"
	verifyOTPPath   = "/token/verify-otp/"
	loanDetailsPath = "/lead-collection/applications/loan-details/"
	paymentLinkPath = "/lead-collection/applications/payment-link/"
)

// Client talks to the lead collection backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	tracer     trace.Tracer
}

// Envelope is the backend's response envelope. Success responses may carry
// extra payload fields alongside it; error responses carry error/error_type.
type Envelope struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	ErrorType     string `json:"error_type,omitempty"`
	Details       string `json:"details,omitempty"`
	ApplicationID string `json:"application_id,omitempty"`
}

// VerifyOTPResult is the verify-otp success payload.
type VerifyOTPResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	UserInfo     struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		EmployeeCode string `json:"employee_code"`
		Branch       string `json:"branch"`
		State        string `json:"state"`
	} `json:"user_info"`
}

// Tokens converts the wire payload into the session token model.
func (r *VerifyOTPResult) Tokens() *models.Tokens {
	return &models.Tokens{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresIn:    r.ExpiresIn,
		IssuedAt:     time.Now().UTC(),
	}
}

// Profile converts the wire payload into the session user model.
func (r *VerifyOTPResult) Profile() *models.UserProfile {
	return &models.UserProfile{
		ID:           r.UserInfo.ID,
		Email:        r.UserInfo.Email,
		FirstName:    r.UserInfo.FirstName,
		LastName:     r.UserInfo.LastName,
		EmployeeCode: r.UserInfo.EmployeeCode,
		Branch:       r.UserInfo.Branch,
		State:        r.UserInfo.State,
	}
}

// LoanDetailsRequest is the loan-details persistence payload.
type LoanDetailsRequest struct {
	ApplicationID          string  `json:"application_id"`
	LoanAmountRequested    float64 `json:"loan_amount_requested"`
	LoanPurpose            string  `json:"loan_purpose"`
	LoanPurposeDescription string  `json:"loan_purpose_description,omitempty"`
	ProductCode            string  `json:"product_code"`
	InterestRate           float64 `json:"interest_rate"`
	TenureMonths           int     `json:"tenure_months"`
	SourcingChannel        string  `json:"sourcing_channel"`
}

// PaymentLinkResult is the payment-link success payload.
type PaymentLinkResult struct {
	Envelope
	PaymentLink string `json:"payment_link"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL:    trimTrailingSlash(baseURL),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithFields(map[string]interface{}{"component": "gateway"}),
		tracer:     otel.Tracer("lead-intake/internal/gateway"),
	}
}

// RequestOTP asks the backend to issue an OTP to the given email.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}

	var env Envelope
	if err := c.post(ctx, "request-otp", requestOTPPath, "", body, &env); err != nil {
		return err
	}
	if !env.Success {
		return commonerrors.NewBackendRejectedError(env.Error, env.Details)
	}
	return nil
}

// VerifyOTP exchanges email+code for tokens and the user profile.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*VerifyOTPResult, error) {
	body := map[string]string{"email": email, "otp": otp}

	var payload struct {
		Envelope
		VerifyOTPResult
	}
	if err := c.post(ctx, "verify-otp", verifyOTPPath, "", body, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, commonerrors.NewOTPMismatchError(payload.Error)
	}
	if payload.AccessToken == "" {
		return nil, commonerrors.NewResponseMalformedError(fmt.Errorf("verify-otp success without access_token"))
	}
	return &payload.VerifyOTPResult, nil
}

// SaveLoanDetails persists the loan requirement remotely. The returned
// envelope carries the server-assigned application id.
func (c *Client) SaveLoanDetails(ctx context.Context, accessToken string, req *LoanDetailsRequest) (*Envelope, error) {
	if accessToken == "" {
		return nil, commonerrors.NewAuthTokenMissingError()
	}

	var env Envelope
	if err := c.post(ctx, "loan-details", loanDetailsPath, accessToken, req, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, commonerrors.NewBackendRejectedError(env.Error, env.Details)
	}
	return &env, nil
}

// GeneratePaymentLink requests a payment link for a confirmed application.
func (c *Client) GeneratePaymentLink(ctx context.Context, accessToken, applicationID string) (*PaymentLinkResult, error) {
	if accessToken == "" {
		return nil, commonerrors.NewAuthTokenMissingError()
	}

	body := map[string]string{"application_id": applicationID}

	var payload PaymentLinkResult
	if err := c.post(ctx, "payment-link", paymentLinkPath, accessToken, body, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, commonerrors.NewBackendRejectedError(payload.Error, payload.Details)
	}
	return &payload, nil
}

// post sends a JSON body and decodes the response into out. Non-2xx
// responses are surfaced with the message extracted from the body when
// one is present.
func (c *Client) post(ctx context.Context, name, path, accessToken string, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "gateway."+name,
		trace.WithAttributes(attribute.String("http.route", path)))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.GatewayCallDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	jsonData, err := json.Marshal(body)
	if err != nil {
		return commonerrors.NewResponseMalformedError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return commonerrors.NewBackendUnavailableError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return commonerrors.NewBackendUnavailableError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return commonerrors.NewBackendUnavailableError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return commonerrors.NewAuthTokenExpiredError()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend returned error status", map[string]interface{}{
			"endpoint": name,
			"status":   resp.StatusCode,
		})
		// Try to pull a structured envelope out of the error body; fall back
		// to the raw text.
		var env Envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			return commonerrors.NewBackendRejectedError(env.Error, env.Details)
		}
		return commonerrors.NewBackendRejectedError("", string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return commonerrors.NewResponseMalformedError(err)
	}
	return nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
