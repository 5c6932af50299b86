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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"portfolio-site/internal/app"
	"portfolio-site/internal/config"
	"portfolio-site/internal/service"
	"portfolio-site/pkg/logger"
	"portfolio-site/pkg/validator"
)

var envFile string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Personal portfolio site",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	root.AddCommand(serve, newExportCommand(), newImportCommand())
	return root
}

// loadConfig reads the dotenv file, then the environment, and prepares the
// shared logger and validator.
func loadConfig() *config.Config {
	envErr := godotenv.Load(envFile)

	cfg := config.New()
	logger.Init(cfg.Environment)
	validator.Init()

	if envErr != nil {
		logger.Info("No .env file found, using environment variables", map[string]interface{}{"file": envFile})
	}
	return cfg
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			logger.Info("Starting portfolio site", nil)

			application, err := app.New(cfg, app.Options{})
			if err != nil {
				logger.Error(err, "Failed to initialize application", nil)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hangup := make(chan os.Signal, 1)
			signal.Notify(hangup, syscall.SIGHUP)
			defer signal.Stop(hangup)

			serverErr := make(chan error, 1)
			go func() {
				if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error(err, "Failed to start server", nil)
					serverErr <- err
				}
			}()

		wait:
			for {
				select {
				case <-hangup:
					logger.Info("Reloading content", nil)
					if err := application.Site().Reload(ctx); err != nil {
						logger.Error(err, "Content reload failed", nil)
					}
				case <-ctx.Done():
					logger.Info("Shutting down server...", nil)
					break wait
				case err := <-serverErr:
					logger.Error(err, "Server error occurred, initiating shutdown", nil)
					stop()
					break wait
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := application.Shutdown(shutdownCtx); err != nil {
				logger.Error(err, "Server forced to shutdown", nil)
				return err
			}

			logger.Info("Server exited gracefully", nil)
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var outputDir, siteURL string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render every page to static HTML",
		Long: `Export renders each content page, the not-found page and a redirect
stub for every external asset into the output directory, then copies the
static directory next to them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			cfg.WatchContent = false
			if outputDir == "" {
				outputDir = cfg.OutputDir
			}
			if siteURL == "" {
				siteURL = cfg.SiteURL
			}

			application, err := app.New(cfg, app.Options{})
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if err := application.Shutdown(context.Background()); err != nil {
					logger.Error(err, "Failed to release resources", nil)
				}
			}()

			report, err := application.Site().Export(cmd.Context(), service.ExportOptions{
				OutputDir: outputDir,
				StaticDir: cfg.StaticDir,
				SiteURL:   siteURL,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d pages, %d assets and %d static files to %s\n",
				report.Pages, report.Assets, report.Static, outputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&siteURL, "site-url", "", "absolute site URL used for canonical links (default SITE_URL)")
	return cmd
}

func newImportCommand() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy markdown content into the database",
		Long: `Import reads the markdown content tree and creates a page row for every
file whose route is not in the pages table yet. Existing rows are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			cfg.ContentSource = config.ContentSourceDatabase
			cfg.WatchContent = false
			if from == "" {
				from = cfg.ContentDir
			}

			application, err := app.New(cfg, app.Options{})
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if err := application.Shutdown(context.Background()); err != nil {
					logger.Error(err, "Failed to release resources", nil)
				}
			}()

			report, err := application.ImportContent(cmd.Context(), os.DirFS(from))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d pages from %s, %d already present\n",
				report.Created, from, report.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "markdown content directory (default CONTENT_DIR)")
	return cmd
}
