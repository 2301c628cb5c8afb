package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/nurser/dutyboard/internal/domain/auth"
)

// RouterOptions groups everything the router needs.
type RouterOptions struct {
	Logger *slog.Logger

	Auth     AuthServiceInterface
	Users    UserServiceInterface
	Shifts   ShiftServiceInterface
	Duties   DutyServiceInterface
	Patients PatientServiceInterface

	// ClientBaseURL is the frontend origin login redirects return to.
	ClientBaseURL string
}

// NewRouter builds the full API routing table.
//
// Authorization layering: RequireAuth gates everything under /api, role
// middleware gates roster and patient mutations at the route level, and
// per-record rules (self-or-admin profile edits, transition legality) live
// in the services.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandlers := &AuthHandlers{Svc: opts.Auth, ClientBaseURL: opts.ClientBaseURL, Logger: logger}
	userHandlers := &UserHandlers{Svc: opts.Users}
	shiftHandlers := &ShiftHandlers{Svc: opts.Shifts}
	dutyHandlers := &DutyHandlers{Svc: opts.Duties}
	patientHandlers := &PatientHandlers{Svc: opts.Patients}

	requireAuth := RequireAuth(opts.Auth)
	requireHeadNurse := RequireRole(domainauth.RoleHeadNurse)
	requireAdmin := RequireRole(domainauth.RoleAdmin)

	authed := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}
	headNurse := func(h http.HandlerFunc) http.Handler {
		return requireAuth(requireHeadNurse(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(requireAdmin(h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	// Login handshake and token lifecycle.
	mux.HandleFunc("GET /auth/github", authHandlers.Login)
	mux.HandleFunc("GET /auth/github/callback", authHandlers.Callback)
	mux.HandleFunc("GET /auth/verify", authHandlers.Verify)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)

	// Users.
	mux.Handle("GET /api/users", authed(userHandlers.List))
	mux.Handle("GET /api/users/me", authed(userHandlers.Me))
	mux.Handle("GET /api/users/{id}", authed(userHandlers.Get))
	mux.Handle("PUT /api/users/{id}", authed(userHandlers.Update))
	mux.Handle("PATCH /api/users/{id}/active", admin(userHandlers.SetActive))

	// Shifts. Listing scopes non-admin staff to their own roster (in the
	// handler); roster changes are for head nurses and above, approval and
	// deletion for admins.
	mux.Handle("GET /api/shifts", authed(shiftHandlers.List))
	mux.Handle("GET /api/shifts/{id}", authed(shiftHandlers.Get))
	mux.Handle("POST /api/shifts", headNurse(shiftHandlers.Create))
	mux.Handle("PUT /api/shifts/{id}", headNurse(shiftHandlers.Update))
	mux.Handle("POST /api/shifts/{id}/approve", admin(shiftHandlers.Approve))
	mux.Handle("POST /api/shifts/{id}/nurses", headNurse(shiftHandlers.AssignNurse))
	mux.Handle("DELETE /api/shifts/{id}/nurses/{nurseID}", headNurse(shiftHandlers.UnassignNurse))
	mux.Handle("DELETE /api/shifts/{id}", admin(shiftHandlers.Delete))

	// Duties. Nurses work their own duties, so mutations stay open to all
	// authenticated staff.
	mux.Handle("GET /api/duties", authed(dutyHandlers.List))
	mux.Handle("GET /api/duties/{id}", authed(dutyHandlers.Get))
	mux.Handle("POST /api/duties", headNurse(dutyHandlers.Create))
	mux.Handle("PUT /api/duties/{id}", authed(dutyHandlers.Update))
	mux.Handle("POST /api/duties/{id}/tasks/{index}/complete", authed(dutyHandlers.CompleteTask))
	mux.Handle("DELETE /api/duties/{id}", headNurse(dutyHandlers.Delete))

	// Patients. Admission, record edits and discharge are head-nurse actions.
	mux.Handle("GET /api/patients", authed(patientHandlers.List))
	mux.Handle("GET /api/patients/{id}", authed(patientHandlers.Get))
	mux.Handle("POST /api/patients", headNurse(patientHandlers.Create))
	mux.Handle("PUT /api/patients/{id}", headNurse(patientHandlers.Update))
	mux.Handle("POST /api/patients/{id}/medications", authed(patientHandlers.AddMedication))
	mux.Handle("POST /api/patients/{id}/discharge", headNurse(patientHandlers.Discharge))

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
