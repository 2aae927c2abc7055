package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/gateway"
	"lead-intake/internal/session"
)

const validOTP = "342286"

// fakeGateway issues one valid code per requested email and consumes it on
// first successful verification.
type fakeGateway struct {
	issued       map[string]string
	requestCalls int
	verifyCalls  int
	requestErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{issued: make(map[string]string)}
}

func (g *fakeGateway) RequestOTP(_ context.Context, email string) error {
	g.requestCalls++
	if g.requestErr != nil {
		return g.requestErr
	}
	g.issued[email] = validOTP
	return nil
}

func (g *fakeGateway) VerifyOTP(_ context.Context, email, otp string) (*gateway.VerifyOTPResult, error) {
	g.verifyCalls++
	if g.issued[email] != otp {
		return nil, commonerrors.NewOTPMismatchError("invalid or expired OTP")
	}
	delete(g.issued, email)

	result := &gateway.VerifyOTPResult{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
	result.UserInfo.ID = "u1"
	result.UserInfo.Email = email
	result.UserInfo.FirstName = "Asha"
	result.UserInfo.LastName = "Verma"
	return result, nil
}

func newTestFlow(t *testing.T, resendCooldown time.Duration) (*Flow, *session.Store, *fakeGateway) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := session.NewStore(rdb, 0, logger.NewTestLogger(t))
	gw := newFakeGateway()
	return NewFlow(sessions, gw, resendCooldown, logger.NewTestLogger(t)), sessions, gw
}

func TestRequestOTPInvalidEmail(t *testing.T) {
	flow, sessions, gw := newTestFlow(t, 0)
	ctx := context.Background()

	err := flow.RequestOTP(ctx, "sess-1", "not-an-email")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidEmail, commonerrors.CodeOf(err))
	assert.Zero(t, gw.requestCalls, "invalid email must not reach the backend")

	sess, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, sess.PendingAuth)
}

func TestRequestOTPRecordsPendingAuth(t *testing.T) {
	flow, sessions, _ := newTestFlow(t, 0)
	ctx := context.Background()

	require.NoError(t, flow.RequestOTP(ctx, "sess-1", "User@Example.com"))

	sess, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, sess.PendingAuth)
	assert.Equal(t, "user@example.com", sess.PendingAuth.Email)
	assert.False(t, sess.Authenticated())
}

func TestRequestOTPGatewayFailureLeavesSessionUntouched(t *testing.T) {
	flow, sessions, gw := newTestFlow(t, 0)
	ctx := context.Background()
	gw.requestErr = commonerrors.NewBackendUnavailableError(assert.AnError)

	err := flow.RequestOTP(ctx, "sess-1", "user@example.com")
	require.Error(t, err)

	sess, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, sess.PendingAuth)
}

func TestRequestOTPResendCooldown(t *testing.T) {
	flow, _, gw := newTestFlow(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, flow.RequestOTP(ctx, "sess-1", "user@example.com"))
	require.Equal(t, 1, gw.requestCalls)

	err := flow.RequestOTP(ctx, "sess-1", "user@example.com")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeValidationFailed, commonerrors.CodeOf(err))
	assert.Equal(t, 1, gw.requestCalls, "a resend inside the cooldown must not reach the backend")

	// A different email is a fresh login attempt, not a resend.
	require.NoError(t, flow.RequestOTP(ctx, "sess-1", "other@example.com"))
	assert.Equal(t, 2, gw.requestCalls)
}

func TestVerifyOTPEndToEnd(t *testing.T) {
	flow, sessions, _ := newTestFlow(t, 0)
	ctx := context.Background()

	require.NoError(t, flow.RequestOTP(ctx, "sess-1", "user@example.com"))

	// A wrong code fails and leaves the pending request intact.
	err := flow.VerifyOTP(ctx, "sess-1", "user@example.com", "000000")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeOTPMismatch, commonerrors.CodeOf(err))

	sess, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, sess.PendingAuth)
	assert.False(t, sess.Authenticated())

	// The correct code signs the user in and clears pendingAuth.
	require.NoError(t, flow.VerifyOTP(ctx, "sess-1", "user@example.com", validOTP))

	sess, err = sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "user@example.com", sess.User.Email)
	assert.Equal(t, "access-token", sess.Tokens.AccessToken)
	assert.Nil(t, sess.PendingAuth)
}

func TestVerifyOTPConsumedCodeRejected(t *testing.T) {
	flow, _, _ := newTestFlow(t, 0)
	ctx := context.Background()

	require.NoError(t, flow.RequestOTP(ctx, "sess-1", "user@example.com"))
	require.NoError(t, flow.VerifyOTP(ctx, "sess-1", "user@example.com", validOTP))

	// Sign-in cleared pendingAuth, so a replay of the same code is rejected
	// before any backend call.
	err := flow.VerifyOTP(ctx, "sess-1", "user@example.com", validOTP)
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeNoPendingAuth, commonerrors.CodeOf(err))
}

func TestVerifyOTPRejectsBadFormat(t *testing.T) {
	flow, _, gw := newTestFlow(t, 0)

	err := flow.VerifyOTP(context.Background(), "sess-1", "user@example.com", "12ab56")
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidOTPFormat, commonerrors.CodeOf(err))
	assert.Zero(t, gw.verifyCalls)
}

func TestVerifyOTPWithoutPendingRequest(t *testing.T) {
	flow, _, gw := newTestFlow(t, 0)

	err := flow.VerifyOTP(context.Background(), "sess-1", "user@example.com", validOTP)
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeNoPendingAuth, commonerrors.CodeOf(err))
	assert.Zero(t, gw.verifyCalls)
}

func TestLogoutClearsSession(t *testing.T) {
	flow, sessions, _ := newTestFlow(t, 0)
	ctx := context.Background()

	require.NoError(t, flow.RequestOTP(ctx, "sess-1", "user@example.com"))
	require.NoError(t, flow.VerifyOTP(ctx, "sess-1", "user@example.com", validOTP))
	require.NoError(t, flow.Logout(ctx, "sess-1"))

	sess, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}
