package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-intake/internal/session"
)

func NewRouter(h *Handlers, sessions *session.Store) *mux.Router {
	r := mux.NewRouter()
	r.Use(sessionMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/auth/request-otp", h.RequestOTP).Methods("POST")
	r.HandleFunc("/auth/verify-otp", h.VerifyOTP).Methods("POST")
	r.HandleFunc("/auth/logout", h.Logout).Methods("POST")

	requireAuth := authRequired(sessions, h.responder)

	leads := r.PathPrefix("/leads").Subrouter()
	leads.Use(requireAuth)
	leads.HandleFunc("", h.ListLeads).Methods("GET")
	leads.HandleFunc("", h.CreateLead).Methods("POST")
	leads.HandleFunc("/{leadID}", h.GetLead).Methods("GET")
	leads.HandleFunc("/{leadID}/select", h.SelectLead).Methods("POST")

	wiz := r.PathPrefix("/wizard").Subrouter()
	wiz.Use(requireAuth)
	wiz.HandleFunc("/route", h.ResolveRoute).Methods("GET")
	wiz.HandleFunc("/{leadID}/steps/{step}", h.SaveStep).Methods("POST")
	wiz.HandleFunc("/{leadID}/review/confirm", h.ConfirmReview).Methods("POST")
	wiz.HandleFunc("/{leadID}/review/edit", h.EditFromReview).Methods("POST")
	wiz.HandleFunc("/{leadID}/exit", h.ExitWizard).Methods("POST")

	return r
}
