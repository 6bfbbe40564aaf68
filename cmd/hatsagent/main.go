// hatsagent - LLM agent worker for hats triggers.
// Entry point: serve | migrate | token | version.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Lay3rLabs/wavs-hats/internal/api"
	"github.com/Lay3rLabs/wavs-hats/internal/domain/agent"
	"github.com/Lay3rLabs/wavs-hats/internal/domain/run"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/config"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/ethereum"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/eventbus"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/llm"
	"github.com/Lay3rLabs/wavs-hats/internal/infra/sqlite"
	"github.com/Lay3rLabs/wavs-hats/internal/server"
	"github.com/Lay3rLabs/wavs-hats/internal/version"
	pkgauth "github.com/Lay3rLabs/wavs-hats/pkg/auth"
)

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout))
}

func runCLI(args []string, out io.Writer) int {
	if len(args) == 0 {
		printHelp(out)
		return 0
	}

	switch args[0] {
	case "version", "--version":
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	case "help", "--help":
		printHelp(out)
		return 0
	case "migrate":
		return runMigrate(args[1:], out)
	case "token":
		return runToken(args[1:], out)
	case "serve":
		return runServe(args[1:], out)
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", args[0]) //nolint:errcheck
		printHelp(out)
		return 2
	}
}

func runMigrate(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}

	db, err := sqlite.NewDB(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}
	defer db.Close()

	if err := sqlite.MigrateUp(db); err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}

	applied, err := sqlite.MigrationVersion(db)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}
	fmt.Fprintf(out, "migrations applied, schema version %d\n", applied) //nolint:errcheck
	return 0
}

func runToken(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Path to config file")
	subject := fs.String("subject", "operator", "Token subject")
	ttl := fs.Duration("ttl", pkgauth.DefaultTokenTTL, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}
	if !cfg.Server.AuthEnabled() {
		fmt.Fprintln(out, "ERROR: no JWT secret configured (set SERVER_JWT_SECRET)") //nolint:errcheck
		return 1
	}

	token, err := pkgauth.GenerateToken([]byte(cfg.Server.JWTSecret), *subject, *ttl)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}
	fmt.Fprintln(out, token) //nolint:errcheck
	return 0
}

func runServe(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}

	if err := serve(cfg); err != nil {
		fmt.Fprintf(out, "ERROR: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

func serve(cfg config.Config) error {
	db, err := sqlite.NewDB(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close()
		return err
	}

	client, err := llm.NewClient(clientConfig(cfg.LLM), cfg.LLM.Model)
	if err != nil {
		db.Close()
		return err
	}

	journal := run.NewJournal(db)
	bus := eventbus.New()
	// Subscribe before the server accepts requests so no event is lost.
	completed := bus.Subscribe(eventbus.TopicRunCompleted)
	failed := bus.Subscribe(eventbus.TopicRunFailed)
	go logRunEvents(completed, failed)

	deps := api.Deps{
		Runner:    agent.NewLoop(client),
		Journal:   journal,
		Bus:       bus,
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		JWTSecret: cfg.Server.JWTSecret,
	}

	if cfg.Chain.HatContract != "" {
		caller, dialErr := ethereum.Dial(context.Background(), cfg.Chain.RPCURL)
		if dialErr != nil {
			db.Close()
			return dialErr
		}
		defer caller.Close()
		deps.Hats = ethereum.NewNFTReader(caller, common.HexToAddress(cfg.Chain.HatContract))
	}

	serverCfg := server.DefaultConfig()
	serverCfg.Addr = cfg.Server.Addr
	srv := server.NewServer(api.NewRouter(deps), db, serverCfg)

	// Serve until interrupted, then drain.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case serveErr := <-errCh:
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return serveErr
	}
}

// clientConfig maps the LLM config section onto the completion client.
func clientConfig(cfg config.LLMConfig) llm.ClientConfig {
	switch llm.Provider(cfg.Provider) {
	case llm.ProviderOpenAI:
		return llm.ClientConfig{Provider: llm.ProviderOpenAI, APIKey: cfg.OpenAIKey}
	case llm.ProviderAnthropic:
		return llm.ClientConfig{Provider: llm.ProviderAnthropic, APIKey: cfg.AnthropicKey}
	default:
		return llm.ClientConfig{Provider: llm.Provider(cfg.Provider), BaseURL: cfg.OllamaBaseURL}
	}
}

// logRunEvents consumes run lifecycle events and logs them.
func logRunEvents(completed, failed <-chan eventbus.Event) {
	for {
		select {
		case evt := <-completed:
			if payload, ok := evt.Payload.(eventbus.RunEvent); ok {
				slog.Info("run completed", "run_id", payload.RunID, "trigger", payload.TriggerType)
			}
		case evt := <-failed:
			if payload, ok := evt.Payload.(eventbus.RunEvent); ok {
				slog.Warn("run failed", "run_id", payload.RunID, "trigger", payload.TriggerType)
			}
		}
	}
}

func printHelp(out io.Writer) {
	helpText := `hatsagent - LLM agent worker for hats triggers

Usage:
  hatsagent <command> [options]

Commands:
  serve        Start the HTTP server
  migrate      Apply database migrations
  token        Mint an API bearer token
  version      Show version information

Options:
  -config      Path to a YAML config file (env vars override it)

Examples:
  hatsagent serve -config config.yaml
  hatsagent migrate
  hatsagent token -subject operator -ttl 24h
  hatsagent version`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
