package loanrequirement

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/gateway"
	"lead-intake/internal/lead"
	"lead-intake/internal/models"
	"lead-intake/internal/session"
	"lead-intake/internal/wizard"
)

const testSession = "sess-1"

type fakeLoanGateway struct {
	calls int
	appID string
	err   error
}

func (g *fakeLoanGateway) SaveLoanDetails(_ context.Context, _ string, _ *gateway.LoanDetailsRequest) (*gateway.Envelope, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Envelope{Success: true, ApplicationID: g.appID}, nil
}

type fixture struct {
	handler *Handler
	leads   *lead.Store
	gw      *fakeLoanGateway
	leadID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	ctx := context.Background()

	sessions := session.NewStore(rdb, 0, log)
	require.NoError(t, sessions.Save(ctx, testSession, &models.Session{
		User:   &models.UserProfile{ID: "u1"},
		Tokens: &models.Tokens{AccessToken: "tok", ExpiresIn: 0},
	}))

	leads := lead.NewStore(rdb, 0, log)
	l, err := leads.Create(ctx, testSession)
	require.NoError(t, err)
	step := wizard.StepLoanRequirement
	_, err = leads.Apply(ctx, testSession, l.ID, lead.Update{CurrentStep: &step})
	require.NoError(t, err)

	gw := &fakeLoanGateway{appID: "APP-42"}
	ctrl := wizard.NewController(leads, log)
	return &fixture{
		handler: NewHandler(ctrl, leads, sessions, gw, log),
		leads:   leads,
		gw:      gw,
		leadID:  l.ID,
	}
}

func validDraft() Draft {
	return Draft{
		LoanAmount:      500000,
		LoanPurpose:     "business expansion",
		ProductCode:     "LAP01",
		InterestRate:    12.5,
		TenureMonths:    24,
		SourcingChannel: "branch",
	}
}

func TestSaveZeroAmountNeverReachesBackend(t *testing.T) {
	f := newFixture(t)

	draft := validDraft()
	draft.LoanAmount = 0
	_, err := f.handler.Save(context.Background(), testSession, f.leadID, draft)
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeStepGateFailed, commonerrors.CodeOf(err))
	assert.Zero(t, f.gw.calls, "gate failure must short-circuit before any network call")
}

func TestSaveOutOfSequenceNeverReachesBackend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	step := wizard.StepCollateral
	_, err := f.leads.Apply(ctx, testSession, f.leadID, lead.Update{CurrentStep: &step})
	require.NoError(t, err)

	_, err = f.handler.Save(ctx, testSession, f.leadID, validDraft())
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeSequenceViolation, commonerrors.CodeOf(err))
	assert.Zero(t, f.gw.calls, "a save the cursor check rejects must never create server-side state")

	l, err := f.leads.Get(ctx, testSession, f.leadID)
	require.NoError(t, err)
	assert.Empty(t, l.AppID)
}

func TestSaveSuccessStoresAppIDAndAdvances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	route, err := f.handler.Save(ctx, testSession, f.leadID, validDraft())
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCollateral, route.Step)
	assert.Equal(t, 1, f.gw.calls)

	l, err := f.leads.Get(ctx, testSession, f.leadID)
	require.NoError(t, err)
	assert.Equal(t, "APP-42", l.AppID)
	assert.Equal(t, wizard.StepCollateral, l.CurrentStep)
	assert.Equal(t, float64(500000), l.FormData[models.StepKeyLoanRequirement].Float("loanAmount"))
}

func TestSaveBackendRejectionLeavesLeadUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.err = commonerrors.NewBackendRejectedError("loan amount below minimum", "")

	_, err := f.handler.Save(ctx, testSession, f.leadID, validDraft())
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeBackendRejected, commonerrors.CodeOf(err))

	l, err := f.leads.Get(ctx, testSession, f.leadID)
	require.NoError(t, err)
	assert.Empty(t, l.AppID)
	assert.Equal(t, wizard.StepLoanRequirement, l.CurrentStep)
	assert.NotContains(t, l.FormData, models.StepKeyLoanRequirement)
}

func TestSaveWithoutSignInFailsBeforeBackend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sessions := f.handler.sessions
	require.NoError(t, sessions.Clear(ctx, testSession))

	_, err := f.handler.Save(ctx, testSession, f.leadID, validDraft())
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeAuthTokenMissing, commonerrors.CodeOf(err))
	assert.Zero(t, f.gw.calls)
}

func TestExitKeepsDraftWithoutBackendCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Give the lead a customer identity so exit keeps it.
	_, err := f.leads.Apply(ctx, testSession, f.leadID, lead.Update{
		FormData: map[string]models.StepRecord{
			models.StepKeyIdentity: {"firstName": "Asha", "mobile": "9876543210"},
		},
	})
	require.NoError(t, err)

	route, err := f.handler.Exit(ctx, testSession, f.leadID, validDraft())
	require.NoError(t, err)
	assert.Equal(t, wizard.RouteLeadList, route.Name)
	assert.Zero(t, f.gw.calls, "exit saves locally only")

	l, err := f.leads.Get(ctx, testSession, f.leadID)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepLoanRequirement, l.CurrentStep)
	assert.Equal(t, "business expansion", l.FormData[models.StepKeyLoanRequirement].String("loanPurpose"))
}
