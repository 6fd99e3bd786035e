// Package main provides the chatapi CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aschepis/backscratcher/chatapi/config"
	chatlogger "github.com/aschepis/backscratcher/chatapi/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logger zerolog.Logger
	cfg    *config.ClientConfig
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		logFile string
		pretty  bool
	)

	cmd := &cobra.Command{
		Use:           "chatapi",
		Short:         "Send chat requests to OpenAI-compatible, Anthropic and Cohere models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logFile != "" && pretty {
				return fmt.Errorf("--logfile and --pretty are mutually exclusive")
			}

			var err error
			logger, err = chatlogger.InitWithOptions(logFile, pretty)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			configPath := config.GetClientConfigPath()
			cfg, err = config.LoadClientConfig(configPath)
			if err != nil {
				logger.Warn().Err(err).Str("path", configPath).Msg("Failed to load client configuration, using defaults")
				defaults := config.DefaultClientConfig()
				cfg = &defaults
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logFile, "logfile", "", "Path to log file. If not set, logs to stderr")
	cmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "Use pretty console output (only valid when logfile is not set)")

	cmd.AddCommand(
		chatCmd(),
		modelsCmd(),
		usageCmd(),
	)
	return cmd
}
