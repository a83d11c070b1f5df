package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"expensetracker/internal/auth"
	database "expensetracker/internal/db"
	"expensetracker/internal/expense/application"
	"expensetracker/internal/expense/infrastructure"
	"expensetracker/internal/expense/interfaces"
	"expensetracker/internal/user"
)

type Response struct {
	Message string `json:"message"`
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s in %v", r.URL.Path, time.Since(start))
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errs ...[]string) {
	payload := map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	}
	if len(errs) > 0 && len(errs[0]) > 0 {
		payload["errors"] = errs[0]
	}
	respondJSON(w, status, payload)
}

type Server struct {
	router         *http.ServeMux
	dbService      *database.DBService
	authHandler    *auth.Handler
	authService    auth.Service
	userHandler    *user.Handler
	expenseHandler *interfaces.ExpenseHandler
}

func NewServer(dbService *database.DBService, authHandler *auth.Handler, authService auth.Service, userHandler *user.Handler, expenseHandler *interfaces.ExpenseHandler) *Server {
	return &Server{
		router:         http.NewServeMux(),
		dbService:      dbService,
		authHandler:    authHandler,
		authService:    authService,
		userHandler:    userHandler,
		expenseHandler: expenseHandler,
	}
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(Response{Message: "Path not found"})
}

func checkConfiguration() error {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		return errors.New("no JWT_SECRET Provided")
	}
	return nil
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.dbService.Health())
}

func (s *Server) RegisterRoutes() {
	mux := http.NewServeMux()
	protected := s.authService.JWTAccessTokenMiddleware()
	refresh := s.authService.JWTRefreshTokenMiddleware()

	// Public routes
	mux.Handle("POST /api/users/register", http.HandlerFunc(s.userHandler.HandleRegister))
	mux.Handle("POST /api/users/login", http.HandlerFunc(s.authHandler.HandleLogin))
	mux.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	mux.Handle("GET /api/users/app-version", http.HandlerFunc(s.userHandler.HandleAppVersion))

	// Refresh token route (refresh cookie, not access token)
	mux.Handle("POST /api/users/refresh-token", refresh(http.HandlerFunc(s.authHandler.RefreshAccessToken)))

	// User routes
	mux.Handle("POST /api/users/logout", protected(http.HandlerFunc(s.authHandler.HandleLogout)))
	mux.Handle("GET /api/users/current-user", protected(http.HandlerFunc(s.userHandler.HandleGetCurrentUser)))
	mux.Handle("DELETE /api/users/delete-account", protected(http.HandlerFunc(s.userHandler.HandleDeleteAccount)))
	mux.Handle("PATCH /api/users/update-categories", protected(http.HandlerFunc(s.userHandler.HandleUpdateCategories)))
	mux.Handle("PATCH /api/users/update-profile", protected(http.HandlerFunc(s.userHandler.HandleUpdateProfile)))

	// Expense routes
	mux.Handle("GET /api/expenses", protected(http.HandlerFunc(s.expenseHandler.GetAllExpenses)))
	mux.Handle("POST /api/expenses", protected(http.HandlerFunc(s.expenseHandler.CreateExpense)))
	mux.Handle("POST /api/expenses/import", protected(http.HandlerFunc(s.expenseHandler.ImportExpenses)))
	mux.Handle("GET /api/expenses/stats", protected(http.HandlerFunc(s.expenseHandler.GetExpenseStats)))
	mux.Handle("GET /api/expenses/dashboard", protected(http.HandlerFunc(s.expenseHandler.GetDashboardExpenses)))
	mux.Handle("GET /api/expenses/{expenseID}", protected(http.HandlerFunc(s.expenseHandler.GetExpenseByID)))
	mux.Handle("PATCH /api/expenses/{expenseID}", protected(http.HandlerFunc(s.expenseHandler.UpdateExpense)))
	mux.Handle("DELETE /api/expenses/{expenseID}", protected(http.HandlerFunc(s.expenseHandler.DeleteExpense)))

	mux.Handle("/", http.HandlerFunc(notFoundHandler))

	s.router = mux
}

func main() {
	if err := checkConfiguration(); err != nil {
		log.Fatalf("Missing configuration, update to start server")
	}

	dbService, err := database.NewDBService()
	if err != nil {
		log.Fatalf("Could not initialize database: %v", err)
	}
	defer dbService.Close()

	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := dbService.Migrate(migrationsDir); err != nil {
		log.Fatalf("Could not apply migrations: %v", err)
	}

	userRepo := user.NewUserRepository(dbService.DB)
	userService := user.NewUserService(userRepo)

	jwtManager := auth.NewJWTManager()
	authService := auth.NewAuthService(userService, jwtManager)
	authHandler := auth.NewHandler(authService)

	userHandler := user.NewHandler(userService, authService.IssueTokenPair)

	expenseRepo := infrastructure.NewExpenseRepository(dbService.DB)
	counterRepo := infrastructure.NewCounterRepository(dbService.DB)
	expenseService := application.NewExpenseService(expenseRepo, counterRepo)
	expenseHandler := interfaces.NewExpenseHandler(expenseService, respondJSON, respondError)

	server := NewServer(dbService, authHandler, authService, userHandler, expenseHandler)
	server.RegisterRoutes()

	if err := StartCounterReconciler(expenseService); err != nil {
		log.Fatalf("Scheduler didn't start, stopping the app ...")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	handler := loggingMiddleware(server.router)
	log.Printf("Server starting on port %s...", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// StartCounterReconciler periodically recomputes every user's expense
// counter from the expense store, repairing any drift.
func StartCounterReconciler(expenseService *application.ExpenseService) error {
	c := cron.New()
	_, err := c.AddFunc("@every 6h", func() {
		if err := expenseService.ReconcileCounters(context.Background()); err != nil {
			log.Printf("Error reconciling expense counters: %v", err)
		} else {
			log.Println("Expense counters reconciled successfully.")
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}
