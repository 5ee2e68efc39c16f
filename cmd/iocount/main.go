package main

import (
	"io"
	"os"
	"strconv"

	humanize "github.com/dustin/go-humanize"
	"github.com/influxdata/iocounter/kit/cli"
	"github.com/influxdata/iocounter/logger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Flags shared by every command.
type Flags struct {
	logLevel    zapcore.Level
	human       bool
	metricsFile string
}

type app struct {
	flags Flags

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	log      *zap.Logger
	registry *prometheus.Registry

	// configErr is the first option that could not be read from the
	// environment; commands refuse to run while it is set.
	configErr error
}

func main() {
	cmd := newRootCmd(cli.NewViper("iocount"), os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		log:      zap.NewNop(),
		registry: prometheus.NewRegistry(),
	}

	cmd := &cobra.Command{
		Use:          "iocount",
		Short:        "Count the bytes flowing through streams",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if a.configErr != nil {
				return a.configErr
			}
			a.log = logger.New(a.stderr, a.flags.logLevel)
			return nil
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	a.bind(v, cmd, []cli.Opt{
		{
			DestP:      &a.flags.logLevel,
			Flag:       "log-level",
			Default:    zapcore.InfoLevel,
			Desc:       "supported log levels are debug, info, warn and error",
			Persistent: true,
		},
		{
			DestP:      &a.flags.human,
			Flag:       "human",
			Desc:       "print byte counts in human readable units",
			Persistent: true,
		},
		{
			DestP:      &a.flags.metricsFile,
			Flag:       "metrics-file",
			Desc:       "write the transfer counters in prometheus text format to this file",
			Persistent: true,
		},
	})

	cmd.AddCommand(
		a.newCopyCmd(v),
		a.newCountCmd(),
	)

	return cmd
}

func (a *app) bind(v *viper.Viper, cmd *cobra.Command, opts []cli.Opt) {
	if err := cli.BindOptions(v, cmd, opts); err != nil && a.configErr == nil {
		a.configErr = err
	}
}

// formatBytes returns n as a bare number, or with a binary unit when
// human readable output is requested.
func (a *app) formatBytes(n uint64) string {
	if a.flags.human {
		return humanize.IBytes(n)
	}
	return strconv.FormatUint(n, 10)
}

// formatSize is formatBytes with the unit always present.
func (a *app) formatSize(n uint64) string {
	if a.flags.human {
		return humanize.IBytes(n)
	}
	return strconv.FormatUint(n, 10) + " bytes"
}

// register adds c to the metrics registry. A collector that duplicates an
// existing one, for instance the same input counted twice, is skipped.
func (a *app) register(c prometheus.Collector) {
	if err := a.registry.Register(c); err != nil {
		a.log.Warn("Skipping metric", zap.Error(err))
	}
}

// finish writes the metrics file, whether or not the command succeeded,
// and reports a failure to write it unless the command already failed.
func (a *app) finish(err *error) {
	defer a.log.Sync()
	if merr := a.writeMetrics(); merr != nil {
		if *err == nil {
			*err = merr
		} else {
			a.log.Error("Failed to write metrics", zap.Error(merr))
		}
	}
}

func (a *app) writeMetrics() error {
	if a.flags.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.flags.metricsFile, a.registry); err != nil {
		return errors.Wrap(err, "writing metrics")
	}
	a.log.Debug("Wrote metrics", zap.String("path", a.flags.metricsFile))
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (a *app) openInput(path string) (string, io.ReadCloser, error) {
	if path == "" || path == "-" {
		return "stdin", io.NopCloser(a.stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "opening input %q", path)
	}
	return path, f, nil
}

func (a *app) openOutput(path string) (string, io.WriteCloser, error) {
	if path == "" || path == "-" {
		return "stdout", nopWriteCloser{a.stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return "", nil, errors.Wrapf(err, "creating output %q", path)
	}
	return path, f, nil
}
