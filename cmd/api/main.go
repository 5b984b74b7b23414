// Package main provides the entry point for the Lectern server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/di"
	"github.com/lecternapp/lectern-server/internal/di/providers"
	"github.com/lecternapp/lectern-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// Storage handles need explicit shutdown since they use wrapper types
	if catalogHandle, err := do.Invoke[*providers.CatalogHandle](injector); err == nil {
		log.Info("Closing course catalog...")
		if err := catalogHandle.Shutdown(); err != nil {
			log.Error("Failed to close course catalog", "error", err)
		} else {
			log.Info("Course catalog closed successfully")
		}
	}

	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing progress store...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close progress store", "error", err)
		} else {
			log.Info("Progress store closed successfully")
		}
	}

	if searchHandle, err := do.Invoke[*providers.SearchIndexHandle](injector); err == nil {
		log.Info("Closing search index...")
		if err := searchHandle.Shutdown(); err != nil {
			log.Error("Failed to close search index", "error", err)
		} else {
			log.Info("Search index closed successfully")
		}
	}

	log.Info("Class dismissed.")
}
