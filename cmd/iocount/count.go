package main

import (
	"io"
	"text/tabwriter"

	"github.com/influxdata/iocounter/metrics"
	"github.com/influxdata/iocounter/pkg/iocounter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [file...]",
		Short: "Count the bytes of each file, or of stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			return a.countF(args)
		},
	}
}

func (a *app) countF(paths []string) (err error) {
	defer a.finish(&err)

	tw := tabwriter.NewWriter(a.stdout, 0, 8, 1, ' ', 0)
	for _, path := range paths {
		name, n, err := a.countOne(path)
		if err != nil {
			// Rows already counted are still printed.
			tw.Flush()
			return err
		}
		if _, err := io.WriteString(tw, a.formatBytes(n)+"\t"+name+"\n"); err != nil {
			return errors.Wrap(err, "writing result")
		}
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "writing result")
	}
	return nil
}

func (a *app) countOne(path string) (string, uint64, error) {
	name, in, err := a.openInput(path)
	if err != nil {
		return "", 0, err
	}
	r := iocounter.NewReader(in)
	defer r.Close()

	a.register(metrics.NewCollector("read", "Bytes read from the input.", r,
		prometheus.Labels{"command": "count", "input": name}))

	if _, err := io.Copy(io.Discard, r); err != nil {
		a.log.Error("Count failed",
			zap.String("input", name),
			zap.Uint64("bytes_read", r.Count()),
			zap.Error(err))
		return "", 0, errors.Wrapf(err, "reading %q", name)
	}

	a.log.Debug("Counted input", zap.String("input", name), zap.Uint64("bytes_read", r.Count()))
	return name, r.Count(), nil
}
