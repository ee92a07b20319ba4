package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	measurement "github.com/trifle-io/measurement_go"
)

type statsOptions struct {
	configPath  string
	trackingID  string
	granularity string
	from        string
	to          string
}

func newStatsCommand() *cobra.Command {
	opts := &statsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print recorded hit counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := measurement.LoadConfigFile(opts.configPath)
			if err != nil {
				return err
			}
			if opts.trackingID == "" {
				opts.trackingID = fc.TrackingID
			}
			from, to, err := statsRange(opts, time.Now())
			if err != nil {
				return err
			}

			driver, closer, err := measurement.OpenStatsDriver(cmd.Context(), fc.Stats)
			if err != nil {
				return err
			}
			defer closer.Close()
			log.Debugf("stats: reading %s from %s", opts.trackingID, driver.Description())

			timeline, err := measurement.HitStats(fc.Stats.StatsConfig(driver), opts.trackingID, from, to, opts.granularity)
			if err != nil {
				return err
			}
			return printTimeline(cmd.OutOrStdout(), timeline)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.trackingID, "tid", "", "Tracking id")
	flags.StringVar(&opts.granularity, "granularity", "1h", "Bucket width, e.g. 1m, 1h, 1d")
	flags.StringVar(&opts.from, "from", "", "Start time, RFC 3339 (default 24h ago)")
	flags.StringVar(&opts.to, "to", "", "End time, RFC 3339 (default now)")
	return cmd
}

func statsRange(opts *statsOptions, now time.Time) (time.Time, time.Time, error) {
	from, to := now.Add(-24*time.Hour), now
	var err error
	if opts.from != "" {
		if from, err = time.Parse(time.RFC3339, opts.from); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
	}
	if opts.to != "" {
		if to, err = time.Parse(time.RFC3339, opts.to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
	}
	return from, to, nil
}

func printTimeline(out io.Writer, timeline measurement.Timeline) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AT\tHITS\t2XX\t4XX\t5XX\tERRORS\tBYTES")
	for i, at := range timeline.At {
		values := timeline.Values[i]
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n",
			at.Format(time.RFC3339),
			measurement.Counter(values, "count"),
			measurement.Counter(values, "outcome.2xx"),
			measurement.Counter(values, "outcome.4xx"),
			measurement.Counter(values, "outcome.5xx"),
			measurement.Counter(values, "outcome.error"),
			measurement.Counter(values, "bytes"),
		)
	}
	fmt.Fprintf(w, "TOTAL\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n",
		timeline.Sum("count"),
		timeline.Sum("outcome.2xx"),
		timeline.Sum("outcome.4xx"),
		timeline.Sum("outcome.5xx"),
		timeline.Sum("outcome.error"),
		timeline.Sum("bytes"),
	)
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "mean send time: %.1fms\n", timeline.Ratio("duration", "count"))
	return err
}
