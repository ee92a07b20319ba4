package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	measurement "github.com/trifle-io/measurement_go"
)

type sendOptions struct {
	configPath  string
	trackingID  string
	clientID    string
	secure      bool
	debug       bool
	sets        []string
	adds        []string
	action      string
	dimensions  []string
	metricsFile string
}

func newSendCommand() *cobra.Command {
	opts := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send <hit-type>",
		Short: "Build one hit and send it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), cmd.OutOrStdout(), cmd.Flags().Changed, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.trackingID, "tid", "", "Tracking id, e.g. UA-XXXX-Y")
	flags.StringVar(&opts.clientID, "cid", "", "Client id (a random UUID when empty)")
	flags.BoolVar(&opts.secure, "secure", false, "Use https")
	flags.BoolVar(&opts.debug, "debug", false, "Send to the validation endpoint")
	flags.StringArrayVar(&opts.sets, "set", nil, "Set a field, Field=value")
	flags.StringArrayVar(&opts.adds, "add", nil, "Add a compound item, Kind:key=value,key=value")
	flags.StringVar(&opts.action, "action", "", "Product action, e.g. purchase")
	flags.StringArrayVar(&opts.dimensions, "dimension", nil, "Custom dimension, n=value")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus hit metrics to this file")
	return cmd
}

func runSend(ctx context.Context, out io.Writer, changed func(string) bool, opts *sendOptions, hitType string) error {
	fc, err := measurement.LoadConfigFile(opts.configPath)
	if err != nil {
		return err
	}
	if changed("secure") {
		fc.Secure = opts.secure
	}
	if changed("debug") {
		fc.Debug = opts.debug
	}
	if opts.trackingID != "" {
		fc.TrackingID = opts.trackingID
	}

	cfg, err := fc.Config()
	if err != nil {
		return err
	}
	cfg.Logger = log.Log

	if opts.metricsFile != "" {
		fc.MetricsFile = opts.metricsFile
	}

	var recorders []measurement.Recorder
	if fc.Stats.Driver != "" {
		driver, closer, err := measurement.OpenStatsDriver(ctx, fc.Stats)
		if err != nil {
			return err
		}
		defer closer.Close()
		recorder, err := measurement.NewStatsRecorder(fc.Stats.StatsConfig(driver))
		if err != nil {
			return err
		}
		defer recorder.Close()
		recorders = append(recorders, recorder)
	}
	var metrics *prometheus.Registry
	if fc.MetricsFile != "" {
		metrics = prometheus.NewRegistry()
		recorder, err := measurement.NewPrometheusRecorder(metrics)
		if err != nil {
			return err
		}
		recorders = append(recorders, recorder)
	}
	switch len(recorders) {
	case 0:
	case 1:
		cfg.Recorder = recorders[0]
	default:
		cfg.Recorder = measurement.NewMultiRecorder(recorders...)
	}

	a, err := measurement.New(cfg)
	if err != nil {
		return err
	}
	if err := applySendOptions(a, opts); err != nil {
		return err
	}

	resp, err := a.Send(ctx, hitType)
	if metrics != nil {
		if werr := prometheus.WriteToTextfile(fc.MetricsFile, metrics); werr != nil {
			return errors.Join(err, fmt.Errorf("write metrics: %w", werr))
		}
	}
	var statusErr *measurement.StatusError
	if err != nil && !errors.As(err, &statusErr) {
		return err
	}

	fmt.Fprintf(out, "%s %s\n", resp.Request.Method, resp.Request.URL.Redacted())
	fmt.Fprintf(out, "status: %d\n", resp.StatusCode())
	if cfg.Debug {
		results, verr := resp.Validation()
		if verr != nil {
			return verr
		}
		for _, result := range results {
			fmt.Fprintf(out, "valid: %t\n", result.Valid)
			for _, msg := range result.ParserMessages {
				fmt.Fprintf(out, "  %s %s: %s\n", msg.MessageType, msg.Parameter, msg.Description)
			}
		}
	}
	return err
}

func applySendOptions(a *measurement.Analytics, opts *sendOptions) error {
	clientID := opts.clientID
	if clientID == "" {
		clientID = measurement.NewClientID()
	}
	if err := a.Set(measurement.ClientID, clientID); err != nil {
		return err
	}

	registry := measurement.DefaultRegistry()
	for _, raw := range opts.sets {
		kind, value, err := parseSet(registry, raw)
		if err != nil {
			return err
		}
		if err := a.Set(kind, value); err != nil {
			return err
		}
	}
	for _, raw := range opts.adds {
		kind, item, err := parseAdd(raw)
		if err != nil {
			return err
		}
		if _, err := a.Add(kind, item); err != nil {
			return err
		}
	}
	if opts.action != "" {
		if err := a.SetProductActionTo(opts.action); err != nil {
			return err
		}
	}
	for _, raw := range opts.dimensions {
		index, value, err := parseDimension(raw)
		if err != nil {
			return err
		}
		if err := a.SetCustomDimension(index, value); err != nil {
			return err
		}
	}
	return nil
}

// parseSet reads Field=value. Monetary fields are validated as exact amounts.
func parseSet(registry *measurement.Registry, raw string) (measurement.FieldKind, any, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("--set %q: expected Field=value", raw)
	}
	kind := measurement.FieldKind(name)
	desc, err := registry.Lookup(kind)
	if err != nil {
		return "", nil, err
	}
	if desc.Monetary {
		amount, err := measurement.ParseAmount(value)
		if err != nil {
			return "", nil, err
		}
		return kind, amount, nil
	}
	return kind, value, nil
}

// parseAdd reads Kind:key=value,key=value.
func parseAdd(raw string) (measurement.FieldKind, measurement.Item, error) {
	name, rest, ok := strings.Cut(raw, ":")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("--add %q: expected Kind:key=value,...", raw)
	}
	item := measurement.Item{}
	if rest == "" {
		return measurement.FieldKind(name), item, nil
	}
	for _, pair := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("--add %q: bad pair %q", raw, pair)
		}
		item[key] = value
	}
	return measurement.FieldKind(name), item, nil
}

func parseDimension(raw string) (int, string, error) {
	index, value, ok := strings.Cut(raw, "=")
	if !ok {
		return 0, "", fmt.Errorf("--dimension %q: expected n=value", raw)
	}
	n, err := strconv.Atoi(index)
	if err != nil {
		return 0, "", fmt.Errorf("--dimension %q: %w", raw, err)
	}
	return n, value, nil
}
