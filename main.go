package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"talentgate/api"
	"talentgate/handlers"
	"talentgate/internal/database"
	"talentgate/services/accounts"
	"talentgate/services/assessments"
	"talentgate/services/attempts"
	"talentgate/services/invitations"
	"talentgate/services/notifier"
	"talentgate/services/scheduler"
	"talentgate/services/sessions"
	"talentgate/utils"
)

func main() {
	dataDir := envDefault("TALENTGATE_DATA_DIR", "./data")
	addr := envDefault("TALENTGATE_ADDR", ":8080")
	baseURL := envDefault("TALENTGATE_BASE_URL", "http://localhost:8080")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, "logs", "talentgate.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}))

	if origins := os.Getenv("TALENTGATE_ALLOWED_ORIGINS"); origins != "" {
		utils.SetAllowedOrigins(strings.Split(origins, ","))
	}

	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(dataDir, "talentgate.db")})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accountsSvc, err := accounts.NewService(dataDir)
	if err != nil {
		log.Fatalf("init accounts service: %v", err)
	}

	sessionsSvc, err := sessions.NewService(dataDir, sessions.DefaultSessionDuration)
	if err != nil {
		log.Fatalf("init sessions service: %v", err)
	}

	assessmentsSvc, err := assessments.NewService(dataDir)
	if err != nil {
		log.Fatalf("init assessments service: %v", err)
	}

	var sender notifier.Sender = notifier.LogSender{}
	if smtpAddr := os.Getenv("TALENTGATE_SMTP_ADDR"); smtpAddr != "" {
		sender = &notifier.SMTPSender{
			Addr: smtpAddr,
			From: envDefault("TALENTGATE_SMTP_FROM", "no-reply@talentgate.local"),
		}
	}
	notifierSvc := notifier.NewService(sender, baseURL)

	invitationRepo := database.NewInvitationRepository(db.Connection())
	resultRepo := database.NewResultRepository(db.Connection())

	invitationsSvc := invitations.NewService(invitationRepo, assessmentsSvc, notifierSvc)
	attemptsSvc := attempts.NewService(invitationsSvc, resultRepo, assessmentsSvc)

	sweepInterval := scheduler.DefaultSweepInterval
	if v := os.Getenv("TALENTGATE_SWEEP_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			sweepInterval = time.Duration(minutes) * time.Minute
		}
	}
	schedulerSvc := scheduler.NewService(invitationsSvc, sessionsSvc, sweepInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedulerSvc.Start(ctx)
	defer schedulerSvc.Stop()

	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc)
	accountsHandler := handlers.NewAccountsHandler(accountsSvc)
	assessmentsHandler := handlers.NewAssessmentsHandler(assessmentsSvc)
	invitationsHandler := handlers.NewInvitationsHandler(invitationsSvc)
	assessmentHandler := handlers.NewAssessmentHandler(invitationsSvc, attemptsSvc, assessmentsSvc)

	router := utils.NewRouter()

	// Public routes: login plus the candidate-facing assessment session flow,
	// where the invitation token is the sole credential.
	public := router.PathPrefix("/api").Subrouter()
	public.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/assessment/session", assessmentHandler.Session).Methods(http.MethodGet)
	public.HandleFunc("/assessment/submit", assessmentHandler.Submit).Methods(http.MethodPost)

	// Employee routes behind session auth.
	secured := router.PathPrefix("/api").Subrouter()
	secured.Use(api.AuthMiddleware(sessionsSvc))
	secured.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	secured.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	secured.HandleFunc("/assessments", assessmentsHandler.Create).Methods(http.MethodPost)
	secured.HandleFunc("/assessments", assessmentsHandler.List).Methods(http.MethodGet)
	secured.HandleFunc("/assessments/{assessmentID}", assessmentsHandler.Get).Methods(http.MethodGet)
	secured.HandleFunc("/invitations", invitationsHandler.Create).Methods(http.MethodPost)
	secured.HandleFunc("/invitations", invitationsHandler.List).Methods(http.MethodGet)
	secured.HandleFunc("/invitations/{invitationID}", invitationsHandler.Delete).Methods(http.MethodDelete)
	secured.HandleFunc("/invitations/{invitationID}/revoke", invitationsHandler.Revoke).Methods(http.MethodPost)
	secured.HandleFunc("/assessment/results/by-invitation/{invitationID}", assessmentHandler.ResultByInvitation).Methods(http.MethodGet)

	// Admin-only account management.
	admin := router.PathPrefix("/api").Subrouter()
	admin.Use(api.AuthMiddleware(sessionsSvc), api.AdminOnlyMiddleware())
	admin.HandleFunc("/accounts", accountsHandler.Create).Methods(http.MethodPost)
	admin.HandleFunc("/accounts", accountsHandler.List).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("talentgate listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
