package main

import (
	"context"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"feedback-service-server/config"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

var logLevel string

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "feedback-service-server",
		Short: "Customer feedback collection with AI generated replies",
		Long: `feedback-service-server stores star ratings and reviews, answers each one
with a generated reply, summary and action list, and serves dashboard
statistics to admins.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (trace,debug,info,warn,error), overrides LOG_LEVEL")

	rootCmd.AddCommand(
		NewServeCommand(),
		NewAnalyticsCommand(),
		NewReprocessCommand(),
		NewVersionCommand(),
	)
	return rootCmd
}

// setup loads .env and the environment, then configures logging
func setup() error {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}
	config.Load()

	levelName := config.AppConfig.Log.Level
	if logLevel != "" {
		levelName = logLevel
	}
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = "2006-01-02T15:04:05.999Z07:00"
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)
	log.Debug("debug logging enabled")
	return nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Fatal("could not execute root command")
	}
}
