// Package auth implements the two-phase email+OTP login flow. The flow is
// the only writer of session and pendingAuth state; failures of any kind
// leave the session exactly as it was.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/common/validation"
	"lead-intake/internal/gateway"
	"lead-intake/internal/models"
	"lead-intake/internal/session"
)

// Flow drives OTP request, verification and logout against one session.
type Flow struct {
	sessions       *session.Store
	gateway        OTPGateway
	resendCooldown time.Duration
	logger         logger.Logger
}

// OTPGateway is the slice of the backend gateway the flow needs.
type OTPGateway interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) (*gateway.VerifyOTPResult, error)
}

func NewFlow(sessions *session.Store, gw OTPGateway, resendCooldown time.Duration, log logger.Logger) *Flow {
	return &Flow{
		sessions:       sessions,
		gateway:        gw,
		resendCooldown: resendCooldown,
		logger:         log.WithFields(map[string]interface{}{"component": "auth-flow"}),
	}
}

// RequestOTP validates the email, asks the backend for an OTP and records
// pendingAuth. Repeat requests for the same email inside the resend
// cooldown are rejected locally. On any failure the session state is
// untouched.
func (f *Flow) RequestOTP(ctx context.Context, sessionID, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validation.ValidateEmail(email) {
		metrics.OTPRequests.WithLabelValues("invalid").Inc()
		return commonerrors.NewInvalidEmailError(email)
	}

	sess, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if f.resendCooldown > 0 && sess.PendingAuth != nil && sess.PendingAuth.Email == email {
		if wait := f.resendCooldown - time.Since(sess.PendingAuth.RequestedAt); wait > 0 {
			metrics.OTPRequests.WithLabelValues("cooldown").Inc()
			return commonerrors.NewValidationFailedError(
				fmt.Sprintf("please wait %d seconds before requesting another code", int(wait/time.Second)+1))
		}
	}

	if err := f.gateway.RequestOTP(ctx, email); err != nil {
		metrics.OTPRequests.WithLabelValues("failure").Inc()
		return err
	}

	sess.PendingAuth = &models.PendingAuth{
		Email:       email,
		RequestedAt: time.Now().UTC(),
	}
	if err := f.sessions.Save(ctx, sessionID, sess); err != nil {
		return err
	}

	metrics.OTPRequests.WithLabelValues("success").Inc()
	f.logger.Info("otp requested", map[string]interface{}{"email": email})
	return nil
}

// VerifyOTP exchanges the pending email and the user-supplied code for a
// signed-in session. A wrong or already-consumed code fails without
// touching pendingAuth so the caller can prompt a retry.
func (f *Flow) VerifyOTP(ctx context.Context, sessionID, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validation.ValidateOTP(code) {
		metrics.OTPVerifications.WithLabelValues("invalid").Inc()
		return commonerrors.NewInvalidOTPFormatError()
	}

	sess, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.PendingAuth == nil || sess.PendingAuth.Email != email {
		metrics.OTPVerifications.WithLabelValues("rejected").Inc()
		return commonerrors.NewNoPendingAuthError(email)
	}

	result, err := f.gateway.VerifyOTP(ctx, sess.PendingAuth.Email, code)
	if err != nil {
		metrics.OTPVerifications.WithLabelValues("failure").Inc()
		return err
	}

	sess.User = result.Profile()
	sess.Tokens = result.Tokens()
	sess.PendingAuth = nil
	if err := f.sessions.Save(ctx, sessionID, sess); err != nil {
		return err
	}

	metrics.OTPVerifications.WithLabelValues("success").Inc()
	f.logger.Info("user signed in", map[string]interface{}{
		"userId": sess.User.ID,
		"email":  sess.User.Email,
	})
	return nil
}

// Logout unconditionally clears the session and any pending auth.
func (f *Flow) Logout(ctx context.Context, sessionID string) error {
	if err := f.sessions.Clear(ctx, sessionID); err != nil {
		return err
	}
	f.logger.Info("user signed out", map[string]interface{}{"sessionId": sessionID})
	return nil
}
