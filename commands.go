package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"feedback-service-server/config"
	"feedback-service-server/database"
	"feedback-service-server/jobs"
	"feedback-service-server/models"
	"feedback-service-server/services"
)

type analyticsFlags struct {
	file      string
	dateRange string
	rating    int
	startDate string
	endDate   string
	stats     bool
}

func (f *analyticsFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.file, "file", "", "Submissions file to read, defaults to SUBMISSIONS_FILE")
	fs.StringVar(&f.dateRange, "date-range", services.RangeAll, "One of all, week, month, year")
	fs.IntVar(&f.rating, "rating", 0, "Only count reviews with this rating")
	fs.StringVar(&f.startDate, "start-date", "", "Inclusive start, YYYY-MM-DD or ISO-8601")
	fs.StringVar(&f.endDate, "end-date", "", "Inclusive end, YYYY-MM-DD or ISO-8601")
	fs.BoolVar(&f.stats, "stats", false, "Print the headline stats instead of the full analytics")
}

func (f *analyticsFlags) query() (services.AnalyticsQuery, error) {
	q := services.AnalyticsQuery{DateRange: f.dateRange, Rating: f.rating}
	if f.startDate != "" {
		start, err := services.ParseAnalyticsDate(f.startDate, false)
		if err != nil {
			return q, err
		}
		q.Start = &start
	}
	if f.endDate != "" {
		end, err := services.ParseAnalyticsDate(f.endDate, true)
		if err != nil {
			return q, err
		}
		q.End = &end
	}
	return q, nil
}

// NewAnalyticsCommand prints the dashboard aggregates for a submissions file
func NewAnalyticsCommand() *cobra.Command {
	f := &analyticsFlags{}
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print review analytics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalytics(cmd.OutOrStdout(), f, time.Now())
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}

func runAnalytics(out io.Writer, f *analyticsFlags, now time.Time) error {
	path := f.file
	if path == "" {
		path = config.AppConfig.Storage.SubmissionsFile
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "submissions file %s", path)
	}

	q, err := f.query()
	if err != nil {
		return err
	}

	store, err := database.NewSubmissionStore(path)
	if err != nil {
		return err
	}
	subs, err := store.Load(models.SubmissionFilter{})
	if err != nil {
		return err
	}

	var result interface{} = services.ComputeAnalytics(subs, q, now)
	if f.stats {
		result = services.ComputeStats(subs)
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// NewReprocessCommand runs one reprocessing pass over a submissions file
func NewReprocessCommand() *cobra.Command {
	f := &storageFlags{}
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Regenerate AI packs for failed submissions or ones without a prediction",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			f.apply(cfg)

			store, err := database.NewSubmissionStore(cfg.Storage.SubmissionsFile)
			if err != nil {
				return errors.Wrap(err, "open submissions store")
			}
			ctx := cmd.Context()
			submissions := services.NewSubmissionService(store, newAIService(ctx, cfg.AI), nil)
			count := jobs.NewReprocessJob(submissions, time.Hour).RunOnce(ctx)
			log.WithField("count", count).Info("✅ Reprocess pass finished")
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}

// NewVersionCommand prints the build version
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
