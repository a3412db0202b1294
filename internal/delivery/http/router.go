package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"hackinvite/internal/delivery/http/controllers"
	"hackinvite/internal/delivery/http/middleware"
	"hackinvite/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	verifier domain.TokenVerifier,
	logger *slog.Logger,
	authController *controllers.AuthController,
	hackathonController *controllers.HackathonController,
	invitationController *controllers.InvitationController,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Hackathons
	mux.HandleFunc("POST /hackathons", auth(hackathonController.Create))
	mux.HandleFunc("GET /hackathons", auth(hackathonController.List))
	mux.HandleFunc("GET /hackathons/my", auth(hackathonController.ListMy))
	mux.HandleFunc("GET /hackathons/{hackathonID}", auth(hackathonController.GetByID))
	mux.HandleFunc("PATCH /hackathons/{hackathonID}", auth(hackathonController.Update))
	mux.HandleFunc("DELETE /hackathons/{hackathonID}/participants", auth(hackathonController.RemoveParticipant))

	// Invitations
	mux.HandleFunc("POST /hackathons/{hackathonID}/invitations", auth(invitationController.Invite))
	mux.HandleFunc("GET /hackathons/{hackathonID}/invitations", auth(invitationController.ListInvitations))
	mux.HandleFunc("POST /hackathons/{hackathonID}/invitations/batch", auth(invitationController.BatchInvite))
	mux.HandleFunc("POST /hackathons/{hackathonID}/invitations/csv", auth(invitationController.ImportCSV))
	mux.HandleFunc("POST /hackathons/{hackathonID}/invitations/txt", auth(invitationController.ImportTxt))
	mux.HandleFunc("POST /hackathons/{hackathonID}/join", auth(invitationController.Join))

	// Confirmation codes: requested by the invitee before they have an
	// account, so these stay outside the auth wrapper.
	mux.HandleFunc("POST /hackathons/{hackathonID}/send-code", invitationController.SendCode)
	mux.HandleFunc("POST /confirmation-codes/verify", invitationController.VerifyCode)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
