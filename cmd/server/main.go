package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Brownie44l1/rice-leaf-api/internal/config"
	"github.com/Brownie44l1/rice-leaf-api/internal/container"
	"github.com/Brownie44l1/rice-leaf-api/internal/model"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "server",
		Short: "🌾 Rice leaf disease classifier",
		Long: `Classifies photos of rice leaves into bacterial leaf blight, brown spot,
leaf smut or healthy, in English or Bahasa Indonesia.

Without a subcommand the HTTP server is started.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		RunE:              runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(botCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}

	logger, err = config.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)
	return nil
}

// loadApp opens the checkpoint once and builds the shared services. A load
// failure means nothing is served.
func loadApp() (*container.Container, *model.Classifier, error) {
	logger.Info("loading model", "path", cfg.Model.Path)

	loader := model.NewLoader(model.ONNXOpener(model.SessionOptions{
		ModelPath:      cfg.Model.Path,
		LibraryPath:    cfg.Model.LibraryPath,
		IntraOpThreads: cfg.Model.IntraOpThreads,
		InterOpThreads: cfg.Model.InterOpThreads,
	}, cfg.Model.MetadataPath))

	classifier, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Info("model loaded", "classes", classifier.Metadata.Classes)

	return container.New(classifier, logger), classifier, nil
}
