//
// See the file COPYRIGHT for copyright information.
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
//

package cmd

import (
	"context"
	"fmt"
	"github.com/fieldcad/cadfield/api"
	"github.com/fieldcad/cadfield/cadclient"
	"github.com/fieldcad/cadfield/cadclient/fakecad"
	"github.com/fieldcad/cadfield/cadstate"
	"github.com/fieldcad/cadfield/conf"
	"github.com/fieldcad/cadfield/directory"
	"github.com/fieldcad/cadfield/lib/attachment"
	"github.com/fieldcad/cadfield/lib/log"
	"github.com/fieldcad/cadfield/manifest"
	"github.com/fieldcad/cadfield/metrics"
	"github.com/fieldcad/cadfield/report"
	"github.com/fieldcad/cadfield/status"
	"github.com/fieldcad/cadfield/store"
	"github.com/fieldcad/cadfield/store/actionlog"
	"github.com/fieldcad/cadfield/store/caddb"
	"github.com/fieldcad/cadfield/summary"
	"github.com/fieldcad/cadfield/workflow"
	"github.com/spf13/cobra"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	envfileFlagName    = "envfile"
	envFileDefaultName = ".env"

	printConfigFlagName = "print-config"

	// exitShutdown is returned after a graceful shutdown.
	exitShutdown = 69
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Launch the companion server",
	Long: "Launch the companion server\n\n" +
		"Configuration will be read from the env file, and can be overridden by environment variables.",
	Run: runServer,
}

func runServer(cmd *cobra.Command, args []string) {
	cfg := mustApplyEnvConfig(conf.DefaultCAD(), envFilename)
	os.Exit(runServerInternal(context.Background(), cfg, printConfig, make(chan string, 1)))
}

// runServerInternal starts the companion server and blocks until it is terminated.
//
// The supplied channel will be provided with the address of the server at the time when
// the server is started and ready to accept connections.
func runServerInternal(
	ctx context.Context, unvalidatedCfg *conf.CADConfig,
	printConfig bool, listeningAddr chan<- string,
) (exitCode int) {
	must(unvalidatedCfg.Validate())
	cfg := unvalidatedCfg

	configureLogger(cfg)

	if printConfig {
		stderrPrintf("Here's the final redacted CADConfig:\n\n%v\n\n", cfg.PrintRedacted())
	}

	catalog := mustLoadCatalog(cfg)
	policy := status.NewPolicy(catalog)

	cadDB, err := store.SqlDB(ctx, cfg.Store, true)
	must(err)
	cadDBQ := store.New(cadDB, caddb.New())
	officers := mustOfficerStore(ctx, cfg, cadDBQ)

	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	client := mustBackendClient(notifyCtx, cfg)
	collector := metrics.NewCollector()
	cadStore := cadstate.New(catalog)
	syncer := cadstate.NewSyncer(cadStore, client, client, cfg.Backend.PollInterval).WithObserver(collector)
	if err = syncer.SyncNow(ctx); err != nil {
		// Run keeps trying
		slog.Warn("Initial CAD sync failed", "error", err)
	}
	go syncer.Run(notifyCtx)

	auditLog := actionlog.NewLogger(cadDBQ, cfg.Store.ActionLogEnabled, false)
	wf := workflow.New(policy, client, cadStore,
		workflow.WithSubmitTimeout(cfg.Workflow.SubmitTimeout),
		workflow.WithValidator(manifest.New(cadDBQ, cfg.Manifest.CacheTTL, cfg.Manifest.StaleGrace)),
		workflow.WithAuditor(auditLog),
		workflow.WithAuditor(collector),
		workflow.WithObserver(collector.ObserveWorkflowState),
	)

	var attachments report.Store
	switch cfg.AttachmentsStore.Type {
	case conf.AttachmentsStoreLocal:
		attachments, err = attachment.NewLocal(cfg.AttachmentsStore.Local.Dir)
		must(err)
	case conf.AttachmentsStoreS3:
		attachments, err = attachment.NewS3(ctx, cfg.AttachmentsStore.S3.Bucket, cfg.AttachmentsStore.S3.CommonKeyPrefix)
		must(err)
	case conf.AttachmentsStoreNone:
	}

	eventSource := api.NewEventSourcerer()
	sessions := api.NewSessions(notifyCtx, cadStore, eventSource, collector)
	mux := api.AddToMux(nil, cfg, api.Services{
		Store:     cadStore,
		Syncer:    syncer,
		Policy:    policy,
		Workflow:  wf,
		Summaries: summary.Default(catalog),
		Officers:  officers,
		Reports:   report.NewFiler(cadDBQ, attachments, client),
		Backend:   client,
		CadDBQ:    cadDBQ,
		Metrics:   collector,
		Sessions:  sessions,
		Events:    eventSource,
	})

	s := &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// This needs to be long to support long-lived EventSource calls.
		// After this duration, a client will be disconnected and forced
		// to reconnect.
		WriteTimeout:   30 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	s.RegisterOnShutdown(func() {
		sessions.Close()
		eventSource.Close()
	})

	addr := fmt.Sprintf("%v:%v", cfg.Core.Host, cfg.Core.Port)
	listener, err := net.Listen("tcp", addr)
	must(err)
	addr = fmt.Sprintf("%v:%v", cfg.Core.Host, listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err := s.Serve(listener)
		slog.Error("Serve", "err", err)
	}()

	slog.Info("Companion server is ready for connections", "addr", addr, "backend", cfg.Backend.Type)

	listeningAddr <- addr
	close(listeningAddr)
	// The goroutine will hang here until the NotifyContext is done
	<-notifyCtx.Done()
	stop()
	slog.Error("Shutting down gracefully, press Ctrl+C again to force")

	// Don't parent this ctx on the notifyCtx, because it's already done.
	timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err = s.Shutdown(timeoutCtx)
	slog.Error("Server shut down", "err", err)
	auditLog.Close()
	if err = cadDB.Close(); err != nil {
		slog.Error("Failed to close CAD DB", "err", err)
	}
	return exitShutdown
}

func configureLogger(cfg *conf.CADConfig) {
	var logLevel slog.Level
	must(logLevel.UnmarshalText([]byte(cfg.Core.LogLevel)))
	logger := slog.New(
		log.New(
			&slog.HandlerOptions{Level: logLevel},
		),
	)
	slog.SetDefault(logger)
}

func mustLoadCatalog(cfg *conf.CADConfig) *status.Catalog {
	if cfg.Core.CatalogFile == "" {
		return status.Default()
	}
	catalog, err := status.LoadCatalog(cfg.Core.CatalogFile)
	must(err)
	slog.Info("Loaded status catalog", "file", cfg.Core.CatalogFile, "statuses", len(catalog.All()))
	return catalog
}

// mustBackendClient connects to the configured CAD backend. The fake backend is started
// in-process and stops when ctx is done.
func mustBackendClient(ctx context.Context, cfg *conf.CADConfig) *cadclient.Client {
	baseURL := cfg.Backend.BaseURL
	if cfg.Backend.Type == conf.BackendTypeFake {
		var err error
		baseURL, _, err = fakecad.Start(ctx, "127.0.0.1:0")
		must(err)
	}
	client, err := cadclient.New(baseURL, cfg.Backend.APIKey, cfg.Backend.RequestTimeout, cfg.Backend.StreamRetry)
	must(err)
	return client
}

func mustOfficerStore(ctx context.Context, cfg *conf.CADConfig, cadDBQ *store.DBQ) *directory.OfficerStore {
	if cfg.Store.Type == conf.DBStoreTypeFake && len(cfg.Directory.TestOfficers) > 0 {
		must(directory.SeedOfficers(ctx, cadDBQ, cfg.Directory.TestOfficers))
	}
	var officers *directory.OfficerStore
	var err error
	if cfg.Directory.Directory == conf.DirectoryTypeTestOfficers {
		officers, err = directory.NewOfficerStore(cfg.Directory.TestOfficers, nil, cfg.Directory.InMemoryCacheTTL)
	} else {
		officers, err = directory.NewOfficerStore(nil, cadDBQ, cfg.Directory.InMemoryCacheTTL)
	}
	must(err)
	return officers
}

var (
	envFilename string
	printConfig bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&envFilename, envfileFlagName, envFileDefaultName,
		"An env file from which to load server configuration. "+
			"Defaults to '.env' in the current directory")
	serveCmd.Flags().BoolVar(&printConfig, printConfigFlagName, true,
		"Whether to print the redacted CADConfig on server startup")
}

// must logs an error and panics. This should only be done for
// startup errors, not after the server is up and running.
func must(err error) {
	if err != nil {
		panic("got a startup error: " + err.Error())
	}
}

func stderrPrintf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
