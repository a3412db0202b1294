package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"

	"hackinvite/config"
	_ "hackinvite/docs"
	"hackinvite/internal/adapters/auth"
	"hackinvite/internal/adapters/email"
	"hackinvite/internal/adapters/invitetoken"
	httpdelivery "hackinvite/internal/delivery/http"
	"hackinvite/internal/delivery/http/controllers"
	"hackinvite/internal/delivery/http/middleware"
	"hackinvite/internal/repository/postgres"
	"hackinvite/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title hackinvite API
// @version 1.0
// @description Hackathon participant invitations: signed single-use tokens, batch imports, confirmation codes.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(db)
	hackathonRepo := postgres.NewHackathonRepository(db)
	recipientRepo := postgres.NewRecipientRepository(db)
	tokenRepo := postgres.NewInviteTokenRepository(db)

	hasher := auth.NewBcryptHasher(auth.DefaultBcryptCost)
	sessionCodec := auth.NewJWTCodec(cfg.JWTSecret)
	inviteCodec := invitetoken.NewCodec(cfg.InviteSecret, cfg.InviteTokenMaxAge)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	authService := services.NewAuthService(userRepo, hasher, sessionCodec, cfg.JWTExpiry)
	hackathonService := services.NewHackathonService(hackathonRepo, userRepo, serviceTimeout)
	invitationService := services.NewInvitationService(
		hackathonRepo, userRepo, recipientRepo, tokenRepo,
		inviteCodec, emailService, logger,
		cfg.JoinLinkBase, cfg.NotifierTimeout, serviceTimeout,
	)

	authController := controllers.NewAuthController(logger, authService)
	hackathonController := controllers.NewHackathonController(logger, hackathonService)
	invitationController := controllers.NewInvitationController(logger, invitationService)

	mux := httpdelivery.NewRouter(sessionCodec, logger, authController, hackathonController, invitationController)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	addr := ":" + cfg.Port
	logger.Info("starting server", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
