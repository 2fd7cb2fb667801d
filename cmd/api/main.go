// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"librecord/internal/catalog"
	"librecord/internal/circulation"
	"librecord/internal/config"
	"librecord/internal/membership"
	"librecord/internal/rest"
	"librecord/internal/storage"
	"librecord/internal/telemetry"
	"librecord/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	db, err := storage.Open(cfg.PGDSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	books := catalog.NewService(db, log)
	customers := membership.NewService(db, log)
	loans := circulation.NewService(db, customers, log)

	bookHandler := catalog.NewHandler(books, log)
	customerHandler := membership.NewHandler(customers, log)
	loanHandler := circulation.NewHandler(loans, log)

	router := chi.NewRouter()
	router.Use(rest.RequestID)
	router.Use(rest.RequestLogger(log))
	router.Use(rest.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		rest.JSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Library"})
	})

	router.Get("/books", bookHandler.HandleListBooks)
	router.Post("/add_book", bookHandler.HandleAddBook)
	router.Get("/books/{id}", bookHandler.HandleGetBook)
	router.Put("/books/{id}", bookHandler.HandleUpdateBook)
	router.Delete("/books/{id}", bookHandler.HandleDeleteBook)

	router.Get("/customers", customerHandler.HandleListCustomers)
	router.Post("/add_customer", customerHandler.HandleAddCustomer)
	router.Get("/customers/{id}", customerHandler.HandleGetCustomer)
	router.Put("/customers/{id}", customerHandler.HandleUpdateCustomer)
	router.Delete("/customers/{id}", customerHandler.HandleDeleteCustomer)

	router.Get("/loans", loanHandler.HandleListLoans)
	router.Get("/loans/{email}", loanHandler.HandleListLoansByEmail)
	router.Post("/add_loan", loanHandler.HandleIssueLoan)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}
