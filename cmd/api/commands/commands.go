package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crmmini/core/internal/adapters/repository"
	"github.com/crmmini/core/internal/application/services"
	"github.com/crmmini/core/internal/infrastructure/config"
	"github.com/crmmini/core/internal/infrastructure/database"
	"github.com/crmmini/core/internal/infrastructure/logger"
	"github.com/crmmini/core/internal/infrastructure/server"
	"github.com/crmmini/core/internal/ports"
)

// Version information, overridden at build time with -ldflags
var (
	Version   = "1.0.0"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the CRM Mini API server",
		Long:  "Start the CRM Mini API server with the customer routes and operational endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the customer_records schema used by the postgres storage driver (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.OutOrStdout(), database.MigrateUp)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd.OutOrStdout(), database.MigrateDown)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion(cmd.OutOrStdout())
		},
	})

	return migrateCmd
}

// NewCustomerCommand creates the customer management command
func NewCustomerCommand() *cobra.Command {
	customerCmd := &cobra.Command{
		Use:   "customer",
		Short: "Customer record commands",
		Long:  "Inspect and create customer records directly against the configured store",
	}

	customerCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every customer record as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCustomerService(func(svc ports.CustomerService) error {
				customers, err := svc.ListCustomers(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), customers)
			})
		},
	})

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a customer record",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _ := cmd.Flags().GetString("data")
			body, err := parseBody(data)
			if err != nil {
				return err
			}

			return withCustomerService(func(svc ports.CustomerService) error {
				customer, err := svc.CreateCustomer(cmd.Context(), body)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), customer)
			})
		},
	}
	createCmd.Flags().String("data", "{}", "Customer fields as a JSON object")

	customerCmd.AddCommand(createCmd)
	return customerCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CRM Mini version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "CRM Mini v%s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	repo, closeRepo, err := NewCustomerRepository(cfg, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to initialize customer store", "error", err)
		return err
	}
	defer closeRepo()

	srv, err := server.New(cfg, services.NewCustomerService(repo, appLogger), appLogger)
	if err != nil {
		appLogger.Errorw("Failed to initialize server", "error", err)
		return err
	}

	appLogger.Infow("Starting CRM Mini API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Address())
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Warnw("Graceful shutdown failed", "error", err)
		}
		return <-errCh
	case err := <-errCh:
		if err != nil {
			appLogger.Errorw("Server failed", "error", err)
		}
		return err
	}
}

// NewCustomerRepository builds the store selected by cfg.Storage.Driver.
// The returned func releases any connection the store holds.
func NewCustomerRepository(cfg *config.Config, appLogger *logger.Logger) (ports.CustomerRepository, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repository.NewPostgresRepository(db, appLogger), db.Close, nil
	case config.DriverFile, "":
		repo := repository.NewFileRepository(
			cfg.Storage.DataFile,
			appLogger,
			repository.WithCorruptRecovery(cfg.Storage.RecoverCorrupt),
		)
		return repo, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func withCustomerService(fn func(ports.CustomerService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger := logger.NewNop()
	repo, closeRepo, err := NewCustomerRepository(cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeRepo()

	return fn(services.NewCustomerService(repo, appLogger))
}

func runMigration(out io.Writer, direction string) error {
	db, sourceURL, err := openMigrationDB()
	if err != nil {
		return err
	}
	defer db.Close()

	changed, err := db.Migrate(sourceURL, direction)
	if err != nil {
		return err
	}

	if !changed {
		fmt.Fprintln(out, "No migrations to run")
	} else {
		fmt.Fprintf(out, "Migration %s completed successfully\n", direction)
	}
	return nil
}

func showMigrationVersion(out io.Writer) error {
	db, sourceURL, err := openMigrationDB()
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := db.MigrationVersion(sourceURL)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Current migration version: %d\n", version)
	fmt.Fprintf(out, "Dirty: %t\n", dirty)
	return nil
}

func openMigrationDB() (*database.DB, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, cfg.Database.MigrationsPath, nil
}

func parseBody(data string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("--data must be a JSON object: %w", err)
	}
	if body == nil {
		body = map[string]interface{}{}
	}
	return body, nil
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
