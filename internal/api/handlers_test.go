package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/auth"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/database"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/gateway"
	"lead-intake/internal/lead"
	"lead-intake/internal/session"
	"lead-intake/internal/steps/collateral"
	"lead-intake/internal/steps/documents"
	"lead-intake/internal/steps/identity"
	"lead-intake/internal/steps/leadinfo"
	"lead-intake/internal/steps/loanrequirement"
	"lead-intake/internal/steps/loanterms"
	"lead-intake/internal/steps/review"
	"lead-intake/internal/wizard"
)

// fakeBackend mimics the lead collection service well enough for the
// end-to-end flow: one hardcoded OTP, incrementing application ids.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token/request-otp/":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "OTP sent"})
		case "/token/verify-otp/":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["otp"] != "342286" {
				json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "invalid or expired OTP"})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success":      true,
				"access_token": "at",
				"token_type":   "Bearer",
				"expires_in":   3600,
				"user_info":    map[string]string{"id": "u1", "email": body["email"]},
			})
		case "/lead-collection/applications/loan-details/":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "application_id": "APP-42"})
		case "/lead-collection/applications/payment-link/":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "payment_link": "https://pay.example.com/abc"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	backend := fakeBackend(t)
	gw := gateway.NewClient(backend.URL, 5*time.Second, log)

	sessions := session.NewStore(rdb, 0, log)
	leads := lead.NewStore(rdb, 0, log)
	flow := auth.NewFlow(sessions, gw, 0, log)
	ctrl := wizard.NewController(leads, log)

	steps := StepHandlers{
		Identity:        identity.NewHandler(ctrl, log),
		LeadInfo:        leadinfo.NewHandler(ctrl, log),
		LoanRequirement: loanrequirement.NewHandler(ctrl, leads, sessions, gw, log),
		Collateral:      collateral.NewHandler(ctrl, log),
		LoanTerms:       loanterms.NewHandler(ctrl, log),
		Documents:       documents.NewHandler(ctrl, log),
		Review:          review.NewHandler(ctrl, leads, sessions, gw, log),
	}
	return NewRouter(NewHandlers(flow, leads, ctrl, steps, log), sessions)
}

type apiClient struct {
	t      *testing.T
	router *mux.Router
	sid    string
}

func (c *apiClient) do(method, path string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if c.sid != "" {
		req.Header.Set(SessionHeader, c.sid)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	if sid := rec.Header().Get(SessionHeader); sid != "" {
		c.sid = sid
	}
	var out map[string]interface{}
	if rec.Body.Len() > 0 && json.Unmarshal(rec.Body.Bytes(), &out) != nil {
		out = nil
	}
	return rec.Code, out
}

func (c *apiClient) signIn() {
	c.t.Helper()
	code, _ := c.do(http.MethodPost, "/auth/request-otp", map[string]string{"email": "rm@example.com"})
	require.Equal(c.t, http.StatusOK, code)
	code, _ = c.do(http.MethodPost, "/auth/verify-otp", map[string]string{"email": "rm@example.com", "otp": "342286"})
	require.Equal(c.t, http.StatusOK, code)
}

func TestSessionHeaderMintedAndEchoed(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}

	code, _ := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, c.sid)

	first := c.sid
	code, _ = c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, first, c.sid, "an existing session id must be echoed, not replaced")
}

func TestWizardRoutesRequireSignIn(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}

	code, body := c.do(http.MethodGet, "/wizard/route", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, _ = c.do(http.MethodPost, "/leads", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	c.signIn()
	code, body = c.do(http.MethodGet, "/wizard/route", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, wizard.RouteLeadList, body["data"].(map[string]interface{})["route"])
}

func TestAuthEndpoints(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}

	code, body := c.do(http.MethodPost, "/auth/request-otp", map[string]string{"email": "rm@example.com"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, body = c.do(http.MethodPost, "/auth/verify-otp", map[string]string{"email": "rm@example.com", "otp": "000000"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, false, body["success"])

	code, body = c.do(http.MethodPost, "/auth/verify-otp", map[string]string{"email": "rm@example.com", "otp": "342286"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
}

func TestRequestOTPInvalidEmailReturns400(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}

	code, body := c.do(http.MethodPost, "/auth/request-otp", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestFullWizardFlow(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}
	c.signIn()

	// Create a lead; the wizard routes to step 1.
	code, body := c.do(http.MethodPost, "/leads", nil)
	require.Equal(t, http.StatusOK, code)
	leadID := body["data"].(map[string]interface{})["id"].(string)

	code, body = c.do(http.MethodGet, "/wizard/route", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "step1", body["data"].(map[string]interface{})["route"])

	// Walk the steps in order.
	saves := []struct {
		step    string
		payload interface{}
	}{
		{"step1", map[string]interface{}{
			"productType": "LAP", "applicationType": "new", "mobile": "9876543210",
			"firstName": "Asha", "lastName": "Verma", "isMobileVerified": true,
		}},
		{"new-lead-info", map[string]interface{}{"customerName": "Asha Verma", "panNumber": "ABCDE1234F"}},
		{"loan-requirement", map[string]interface{}{
			"loanAmount": 500000, "loanPurpose": "business expansion", "productCode": "LAP01",
			"interestRate": 12.5, "tenureMonths": 24, "sourcingChannel": "branch",
		}},
		{"step6", map[string]interface{}{
			"collateralType": "property", "propertySubType": "residential",
			"ownershipType": "self", "propertyValue": "2500000",
		}},
		{"step7", map[string]interface{}{
			"loanAmount": 500000, "loanPurpose": "business expansion", "sourcingChannel": "branch",
			"interestRate": 12.5, "tenureMonths": 24,
		}},
		{"documents", map[string]interface{}{}},
	}
	for _, save := range saves {
		code, body = c.do(http.MethodPost, "/wizard/"+leadID+"/steps/"+save.step, save.payload)
		require.Equal(t, http.StatusOK, code, "saving %s: %v", save.step, body)
	}

	// Confirm review: the payment link comes back.
	code, body = c.do(http.MethodPost, "/wizard/"+leadID+"/review/confirm", map[string]interface{}{"moveToNextStage": true})
	require.Equal(t, http.StatusOK, code, "%v", body)
	assert.Equal(t, "https://pay.example.com/abc", body["data"].(map[string]interface{})["paymentLink"])
}

func TestSaveStepGateFailureReturns400(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}
	c.signIn()

	code, body := c.do(http.MethodPost, "/leads", nil)
	require.Equal(t, http.StatusOK, code)
	leadID := body["data"].(map[string]interface{})["id"].(string)

	code, body = c.do(http.MethodPost, "/wizard/"+leadID+"/steps/step1", map[string]interface{}{
		"firstName": "Asha",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])
}

func TestGetLeadUnknownIDReturns404(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}
	c.signIn()

	code, body := c.do(http.MethodGet, "/leads/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
}

func TestExitDiscardsEmptyDraftOverHTTP(t *testing.T) {
	c := &apiClient{t: t, router: newTestRouter(t)}
	c.signIn()

	code, body := c.do(http.MethodPost, "/leads", nil)
	require.Equal(t, http.StatusOK, code)
	leadID := body["data"].(map[string]interface{})["id"].(string)

	code, body = c.do(http.MethodPost, "/wizard/"+leadID+"/exit", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, wizard.RouteLeadList, body["data"].(map[string]interface{})["route"])

	code, body = c.do(http.MethodGet, "/leads", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"].(map[string]interface{})["leads"])
}
