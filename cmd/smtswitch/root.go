package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vhavlena/smtswitch/pkg/config"
	"github.com/vhavlena/smtswitch/pkg/log"
	"github.com/vhavlena/smtswitch/pkg/metrics"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	logJSON    bool
	metrics    bool
	noColor    bool

	cfg      config.Config
	logger   *log.Logger
	registry *prometheus.Registry
	col      *metrics.Collectors
}

func (a *app) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&a.configPath, "config", "", "path to a YAML session configuration")
	fs.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	fs.BoolVar(&a.logJSON, "log-json", false, "log in JSON format")
	fs.BoolVar(&a.metrics, "metrics", false, "print solver metrics to stderr on exit")
	fs.BoolVar(&a.noColor, "no-color", false, "disable colored output")
}

// setup loads the configuration and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}
	if flags.Changed("metrics") {
		cfg.Metrics = a.metrics
	}
	if a.noColor {
		color.NoColor = true
	}
	a.cfg = cfg
	a.logger = log.NewLogger(log.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: cmd.ErrOrStderr()})

	if cfg.Metrics {
		a.registry = prometheus.NewRegistry()
		col, err := metrics.NewCollectors(a.registry, cfg.Backend)
		if err != nil {
			return err
		}
		a.col = col
	}
	return nil
}

// dumpMetrics writes every gathered sample as "name{labels} value".
func (a *app) dumpMetrics(w io.Writer) error {
	if a.registry == nil {
		return nil
	}
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			sort.Strings(labels)
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = m.GetHistogram().GetSampleSum()
			}
			fmt.Fprintf(w, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), v)
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "smtswitch",
		Short:         "Solver-agnostic SMT sessions",
		Long:          `Build canonical SMT terms once and decide them on any registered backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.dumpMetrics(cmd.ErrOrStderr())
		},
	}
	a.bindFlags(root.PersistentFlags())
	root.AddCommand(newCheckCmd(a), newSortCmd(), newBackendsCmd())
	return root
}
