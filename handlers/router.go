package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"nfl-survivor-go/middleware"
)

// RouterDeps bundles everything the HTTP surface needs
type RouterDeps struct {
	Auth        *AuthHandler
	Picks       *PickHandler
	Weeks       *WeekHandler
	Dashboard   *DashboardHandler
	Reconcile   *ReconcileHandler
	Health      *HealthHandler
	AuthMW      *middleware.AuthMiddleware
	BehindProxy bool
}

// NewRouter wires routes and middleware
func NewRouter(deps RouterDeps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders(deps.BehindProxy))

	r.HandleFunc("/healthz", deps.Health.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/tasks/update-week-results", deps.Reconcile.UpdateWeekResults).
		Methods(http.MethodGet, http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signup", deps.Auth.Signup).Methods(http.MethodPost)
	api.HandleFunc("/login", deps.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/logout", deps.Auth.Logout).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(deps.AuthMW.RequireAuth)
	authed.HandleFunc("/me", deps.Auth.Me).Methods(http.MethodGet)
	authed.HandleFunc("/weeks", deps.Weeks.ListWeeks).Methods(http.MethodGet)
	authed.HandleFunc("/weeks/{week:[0-9]+}", deps.Weeks.GetWeek).Methods(http.MethodGet)
	authed.HandleFunc("/dashboard", deps.Dashboard.GetDashboard).Methods(http.MethodGet)
	authed.HandleFunc("/picks", deps.Picks.ListPicks).Methods(http.MethodGet)
	authed.HandleFunc("/picks", deps.Picks.SubmitPick).Methods(http.MethodPost)

	return r
}
