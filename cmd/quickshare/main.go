// Copyright 2025 The quickshare Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/odysafe/quickshare/pkg/config"
	"github.com/odysafe/quickshare/pkg/qslog"
	"github.com/odysafe/quickshare/pkg/storage"
	"github.com/odysafe/quickshare/service/share"
)

func main() {
	if err := config.Initconfig(); err != nil {
		qslog.Fatalf("Failed to initialize configuration: %v", err)
	}

	cfg := config.Get()

	logLevel, err := qslog.ParseLevel(cfg.LogLevel)
	if err != nil {
		qslog.Warnf("Invalid initial log level '%s': %v. Using default.", cfg.LogLevel, err)
	}
	qslog.SetLevel(logLevel)
	qslog.Infof("Logger initialized with level: %s", cfg.LogLevel)

	// An uncreatable storage root is the only fatal startup condition.
	store, err := storage.New(storage.Config{
		Root:      cfg.StorageDir,
		Retention: time.Duration(cfg.RetentionHours) * time.Hour,
		MaxBytes:  cfg.MaxSizeMB * 1024 * 1024,
	})
	if err != nil {
		qslog.Fatalf("Failed to initialize storage: %v", err)
	}

	handler := share.NewHandler(store)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           cors.AllowAll().Handler(share.Logging(handler.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Serve returns ErrServerClosed as soon as Shutdown starts; main must
	// wait for the drain to finish before exiting.
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		qslog.Info("Shutting down server...")

		if err := store.Close(); err != nil {
			qslog.Errorf("Error closing storage: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			qslog.Errorf("Server shutdown error: %v", err)
		}

		qslog.Info("Server shutdown complete")
	}()

	qslog.Infof("Server starting on %v (storage=%s, retention=%dh, max=%dMB)",
		cfg.Addr, cfg.StorageDir, cfg.RetentionHours, cfg.MaxSizeMB)

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		if _, err := os.Stat(cfg.CertFile); err == nil {
			if _, err := os.Stat(cfg.KeyFile); err == nil {
				qslog.Infof("Starting HTTPS server with certificates: %s, %s", cfg.CertFile, cfg.KeyFile)
				if err := srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
					qslog.Fatalf("Failed to start HTTPS server: %v", err)
				}
				<-shutdownDone
				return
			}
		}
		qslog.Warnf("Certificate files not found, falling back to HTTP mode")
	}

	qslog.Infof("Starting HTTP server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		qslog.Fatalf("Failed to start HTTP server: %v", err)
	}
	<-shutdownDone
}
