package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"factory-assistant/internal/analyzer"
	"factory-assistant/internal/auth"
	"factory-assistant/internal/calc"
	"factory-assistant/internal/classifier"
	"factory-assistant/internal/config"
	"factory-assistant/internal/db"
	"factory-assistant/internal/executor"
	"factory-assistant/internal/formatter"
	httphandler "factory-assistant/internal/http"
	"factory-assistant/internal/http/middleware"
	"factory-assistant/internal/logger"
	"factory-assistant/internal/planner"
	"factory-assistant/internal/schema"
	"factory-assistant/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "factory-assistant",
		Short:         "Answer questions about factory production, defects and machine failures",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), askCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chatbot endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			tokenParser := auth.NewParser(app.cfg.Auth.AccessSecret)
			if !tokenParser.Enabled() {
				app.log.Warn().Msg("JWT_ACCESS_SECRET not set, bearer tokens will be rejected")
			}

			handler := httphandler.NewHandler(app.assistant, app.log)
			router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), app.cfg.Environment, app.cfg.HTTP.AllowedOrigins, app.log)

			addr := fmt.Sprintf("%s:%d", app.cfg.HTTP.Host, app.cfg.HTTP.Port)
			app.log.Info().Str("addr", addr).Msg("starting factory assistant")
			if err := router.Run(addr); err != nil {
				return fmt.Errorf("run server: %w", err)
			}
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()

			answer, err := app.assistant.Ask(app.log.WithContext(cmd.Context()), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

type application struct {
	cfg       *config.Config
	log       zerolog.Logger
	manager   *db.Manager
	assistant *service.Assistant
}

func (a *application) close() {
	if err := a.manager.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close document store")
	}
}

func bootstrap(ctx context.Context) (*application, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	appLogger := logger.New(cfg.Environment)

	table, err := schema.Load(cfg.Query.AliasesPath)
	if err != nil {
		return nil, fmt.Errorf("load alias table: %w", err)
	}

	intents := classifier.Load(cfg.Classifier.ModelPath, cfg.Classifier.ConfidenceThreshold, appLogger)

	manager := db.NewManager(
		db.PostgresOpener(cfg.DB, appLogger),
		db.RetryPolicy{Attempts: cfg.DB.ConnectAttempts, Delay: cfg.DB.ConnectDelay, MaxDelay: cfg.DB.ConnectMaxDelay},
		db.RetryPolicy{Attempts: cfg.DB.ReconnectAttempt, Delay: cfg.DB.ConnectDelay, MaxDelay: cfg.DB.ConnectMaxDelay},
		appLogger,
	)
	if err := manager.Connect(ctx); err != nil {
		appLogger.Warn().Err(err).Msg("starting without document store")
	}

	queryPlanner := planner.New(table, cfg.Query.DefaultLimit, cfg.Query.ScanLimit)
	assistant := service.NewAssistant(
		analyzer.New(),
		intents,
		queryPlanner,
		executor.New(queryPlanner),
		calc.New(table),
		formatter.New(),
		manager,
		appLogger,
	)

	return &application{cfg: cfg, log: appLogger, manager: manager, assistant: assistant}, nil
}
