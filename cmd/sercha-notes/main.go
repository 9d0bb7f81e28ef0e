// Command sercha-notes is the retrieval and evaluation CLI for a markdown notes vault.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-notes/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-notes/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-notes/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-notes/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-notes/internal/connectors/vault"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-notes/internal/core/services"
	"github.com/custodia-labs/sercha-notes/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// vaultEnv overrides the vault.path setting.
const vaultEnv = "SERCHA_NOTES_VAULT"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute(ctx)
	cleanup()
	if err != nil {
		os.Exit(1)
	}
}

// wire builds the service graph and installs it into the command tree.
func wire() (func(), error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, err
	}

	vaultPath := settings.Vault.Path
	if env := os.Getenv(vaultEnv); env != "" {
		vaultPath = env
	}
	if vaultPath == "" {
		if vaultPath, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("resolve vault: %w", err)
		}
	}

	engine := services.NewContextEngine(vault.New(vaultPath), *settings)
	backends := services.NewLocalBackends(engine)
	router := services.NewQueryRouter()
	search := services.NewHybridSearchService(router, backends, backends, backends, settings.Search)
	loader := services.NewGoldenDatasetLoader()

	cleanup := func() {}
	var runStore driven.RunStore
	store, err := sqlite.NewStore("")
	if err != nil {
		storeErr := err
		cli.OnStart(func() {
			logger.Warn("Run history kept in memory only: %v", storeErr)
		})
		runStore = memory.NewRunStore()
	} else {
		runStore = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close run store: %v", err)
			}
		}
	}

	agent := services.NewRetrievalAgent(search, settings.Bench.TopK)
	benchmark := services.NewBenchmarkRunner(loader, agent, runStore, *settings)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Router:    router,
		Search:    search,
		Context:   engine,
		Dataset:   loader,
		Benchmark: benchmark,
		Settings:  settingsService,
	})
	return cleanup, nil
}
