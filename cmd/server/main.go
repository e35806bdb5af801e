// Package main initializes and starts the BookKeeper catalog server,
// setting up configuration, logging, database connections, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/BookKeeper/internal/config"
	"github.com/atinyakov/BookKeeper/internal/db"
	"github.com/atinyakov/BookKeeper/internal/logger"
	"github.com/atinyakov/BookKeeper/internal/repository"
	"github.com/atinyakov/BookKeeper/internal/server/handler/http"
	"github.com/atinyakov/BookKeeper/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	cleanerInterval = time.Hour
	verifyTimeout   = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	// Parse command-line and environment configuration.
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := options.Validate(); err != nil {
		log.Fatal(err)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	l := logger.New()
	if err := l.Init(options.LogLevel); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Log.Sync() }()
	zapLogger := l.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	// Purge soft-deleted books past retention.
	db.StartSoftDeleteCleaner(ctx, postgresDB, cleanerInterval, options.Retention, zapLogger.Named("cleaner"))

	// Initialize repositories for users and books.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	bookRepo := repository.NewPostgresBookRepository(postgresDB)

	// Initialize business-logic services.
	verifier := service.NewUserInfoVerifier(options.AuthDomain, &nethttp.Client{Timeout: verifyTimeout})
	authService := service.NewAuthService(authRepo, verifier)
	bookService := service.NewBookService(bookRepo)

	// Build the router with middleware and routes.
	router := http.NewRouter(
		http.NewGraphQLHandler(bookService, zapLogger.Named("graphql")),
		&http.AuthHandler{AuthService: authService},
		authService,
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	useTLS := options.TLSCert != ""
	if useTLS {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown", zap.Error(err))
		}
	}()

	zapLogger.Info("starting server", zap.String("addr", options.Port), zap.Bool("tls", useTLS))
	if useTLS {
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
