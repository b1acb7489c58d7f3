package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cask/internal/auth"
	"cask/internal/cask"
	"cask/internal/storage"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// getenv returns the value of the environment variable named by key or
// fallback if the variable is not present.
func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func Run(ctx context.Context) error {

	host := flag.String("host", getenv("HOST", "0.0.0.0"), "address to bind")
	port := flag.String("port", getenv("PORT", "9000"), "port to listen on")
	bucket := flag.String("bucket", getenv("BUCKET", "simple-bucket"), "bucket name reported in listings")
	accessKey := flag.String("access-key", getenv("ACCESS_KEY", "mykey"), "access key")
	secretKey := flag.String("secret-key", getenv("SECRET_KEY", "mysecret"), "secret key")
	dataDir := flag.String("data-dir", getenv("DATA_DIR", "./s3-data"), "directory to store object data")

	flag.Parse()

	handler := log.NewWithOptions(os.Stdout, log.Options{
		Level:           log.DebugLevel,
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
		TimeFunction:    log.NowUTC,
	})

	slog.SetDefault(slog.New(handler))

	// Ensure data directory is absolute for easier debugging.
	absDataDir, err := filepath.Abs(*dataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	verifier := auth.NewVerifier(auth.Credentials{
		AccessKeyID:     *accessKey,
		SecretAccessKey: *secretKey,
	})

	server, err := cask.NewServer(cask.Config{
		BucketName: *bucket,
		Store:      storage.NewLocalObjectStore(absDataDir),
		Verifier:   verifier,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", *host, *port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 20 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	eg.Go(func() error {
		slog.Info("Starting server", "addr", httpServer.Addr, "bucket", *bucket, "data_dir", absDataDir)
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	return eg.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
