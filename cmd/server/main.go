package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-esaf-workflow/internal/client"
	"github.com/pesio-ai/be-esaf-workflow/internal/config"
	"github.com/pesio-ai/be-esaf-workflow/internal/handler"
	"github.com/pesio-ai/be-esaf-workflow/internal/inbox"
	"github.com/pesio-ai/be-esaf-workflow/internal/intake"
	"github.com/pesio-ai/be-esaf-workflow/internal/logger"
	"github.com/pesio-ai/be-esaf-workflow/internal/orchestrator"
	"github.com/pesio-ai/be-esaf-workflow/internal/policy"
	"github.com/pesio-ai/be-esaf-workflow/internal/protocol"
	"github.com/pesio-ai/be-esaf-workflow/internal/summary"
)

func main() {
	root := &cobra.Command{
		Use:   "be-esaf-workflow",
		Short: "ESAF spend-authorisation workflow services",
	}

	root.AddCommand(
		newServiceCmd("intake", "Run the intake collector service", buildIntake),
		newServiceCmd("policy", "Run the policy evaluator service", buildPolicy),
		newServiceCmd("status", "Run the status/lifecycle orchestrator service", buildStatus),
		newServiceCmd("approver", "Run the approval inbox service", buildApprover),
		newAllCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// server is one HTTP listener ready to run.
type server struct {
	name   string
	listen string
	mux    *http.ServeMux
}

type buildFunc func(cfg *config.Config, log zerolog.Logger, env *environment) server

func newServiceCmd(name, short string, build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, env, err := bootstrap(name)
			if err != nil {
				return err
			}
			defer env.close()
			return run(cmd.Context(), log, build(cfg, log, env))
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run all four workflow services in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, env, err := bootstrap("all")
			if err != nil {
				return err
			}
			defer env.close()
			return run(cmd.Context(), log,
				buildIntake(cfg, log, env),
				buildPolicy(cfg, log, env),
				buildStatus(cfg, log, env),
				buildApprover(cfg, log, env),
			)
		},
	}
}

// environment holds what every service shares: the client registry and the
// optional workflow event publisher.
type environment struct {
	registry *protocol.Registry
	events   *client.WorkflowEventPublisher
}

func (e *environment) close() {
	e.events.Close()
}

func bootstrap(command string) (*config.Config, zerolog.Logger, *environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("command", command).
		Str("environment", cfg.Service.Environment).
		Msg("Starting ESAF workflow service")

	events, err := client.NewWorkflowEventPublisher(cfg.NATSURL, log)
	if err != nil {
		// Event delivery is best-effort; a missing broker never blocks startup.
		log.Warn().Err(err).Msg("NATS unavailable; workflow events disabled")
		events = nil
	}

	env := &environment{
		registry: protocol.NewRegistry(&http.Client{}),
		events:   events,
	}
	return cfg, log, env, nil
}

func buildIntake(cfg *config.Config, log zerolog.Logger, env *environment) server {
	policyClient := client.NewPolicyClient(env.registry, cfg.Endpoints.PolicyURL)
	statusClient := client.NewOrchestratorClient(env.registry, cfg.Endpoints.StatusURL)
	service := intake.NewService(policyClient, statusClient, env.events, log)

	mux := protocol.NewServeMux(protocol.Descriptor{
		Name:        "esaf-intake",
		Description: "Collects completed spend requests and starts the approval workflow.",
		Version:     cfg.Service.Version,
		Intents:     []protocol.Intent{protocol.IntentSubmitRequest},
	}, handler.NewIntakeHandler(service, log), log)

	return server{name: "intake", listen: cfg.Endpoints.IntakeListen, mux: mux}
}

func buildPolicy(cfg *config.Config, log zerolog.Logger, env *environment) server {
	policyCfg := policy.Config{
		ManagerOnlyMax:        cfg.Policy.ManagerOnlyMax,
		ManagerAndDirectorMin: cfg.Policy.ManagerAndDirectorMin,
		DisallowedSpendTypes:  cfg.Policy.DisallowedSpendTypes,
	}

	mux := protocol.NewServeMux(protocol.Descriptor{
		Name:        "esaf-policy",
		Description: "Derives the required approval path for a spend request.",
		Version:     cfg.Service.Version,
		Intents:     []protocol.Intent{protocol.IntentEvaluatePolicy},
	}, handler.NewPolicyHandler(policyCfg, log), log)

	return server{name: "policy", listen: cfg.Endpoints.PolicyListen, mux: mux}
}

func buildStatus(cfg *config.Config, log zerolog.Logger, env *environment) server {
	var generator summary.Generator
	if cfg.Endpoints.SummaryURL != "" {
		generator = summary.NewHTTPGenerator(nil, cfg.Endpoints.SummaryURL)
	}

	inboxClient := client.NewInboxClient(env.registry, cfg.Endpoints.ApproverURL)
	dispatcher := orchestrator.NewDispatcher(inboxClient, log)
	service := orchestrator.NewService(orchestrator.NewStatusStore(), dispatcher, generator, env.events, log)

	mux := protocol.NewServeMux(protocol.Descriptor{
		Name:        "esaf-status",
		Description: "Owns the canonical status record of every spend request.",
		Version:     cfg.Service.Version,
		Intents: []protocol.Intent{
			protocol.IntentPolicyResult,
			protocol.IntentApproverDecision,
			protocol.IntentStatusQuery,
		},
	}, handler.NewOrchestratorHandler(service, log), log)

	return server{name: "status", listen: cfg.Endpoints.StatusListen, mux: mux}
}

func buildApprover(cfg *config.Config, log zerolog.Logger, env *environment) server {
	statusClient := client.NewOrchestratorClient(env.registry, cfg.Endpoints.StatusURL)
	service := inbox.NewService(inbox.NewStore(), statusClient, log)

	mux := protocol.NewServeMux(protocol.Descriptor{
		Name:        "esaf-approver",
		Description: "Per-role inbox of spend requests awaiting an approver decision.",
		Version:     cfg.Service.Version,
		Intents: []protocol.Intent{
			protocol.IntentNotifyApprovalRequired,
			protocol.IntentListPending,
			protocol.IntentSubmitDecision,
		},
	}, handler.NewInboxHandler(service, log), log)

	return server{name: "approver", listen: cfg.Endpoints.ApproverListen, mux: mux}
}

// run serves every listener until SIGINT/SIGTERM, then shuts down gracefully.
func run(ctx context.Context, log zerolog.Logger, servers ...server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, len(servers))
	httpServers := make([]*http.Server, 0, len(servers))

	for _, srv := range servers {
		httpSrv := &http.Server{
			Addr:    srv.listen,
			Handler: srv.mux,
		}
		httpServers = append(httpServers, httpSrv)

		log.Info().
			Str("service", srv.name).
			Str("listen", srv.listen).
			Msg("HTTP server listening")

		go func(name string, s *http.Server) {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s server: %w", name, err)
			}
		}(srv.name, httpSrv)
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range httpServers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Graceful shutdown failed")
		}
	}
	return nil
}
