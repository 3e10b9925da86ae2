package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcus/scribe/internal/devserver"
	"go.uber.org/zap"
)

var (
	addr      = flag.String("addr", ":8080", "listen address")
	usersPath = flag.String("users", "", "JSON file of users to serve (default: built-in sample)")
	rps       = flag.Float64("rps", 0, "requests per second limit (0 disables)")
	failUsers = flag.Bool("fail-users", false, "answer GET /users with 500")
	devFlag   = flag.Bool("dev", false, "human-readable development logging")
)

func main() {
	flag.Parse()

	logger, err := newLogger(*devFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	users, err := devserver.LoadUsers(*usersPath)
	if err != nil {
		logger.Fatal("load users", zap.Error(err))
	}

	srv := devserver.New(devserver.Options{
		Users:     users,
		RPS:       *rps,
		FailUsers: *failUsers,
	}, logger)

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", *addr), zap.Int("users", len(users)))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
