package main

import (
	"fmt"
	"io"
	"time"

	"github.com/influxdata/iocounter/kit/cli"
	"github.com/influxdata/iocounter/metrics"
	"github.com/influxdata/iocounter/pkg/iocounter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CopyFlags are the options of the copy command.
type CopyFlags struct {
	input  string
	output string
}

func (a *app) newCopyCmd(v *viper.Viper) *cobra.Command {
	var flags CopyFlags

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy input to output, counting the bytes read and written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.copyF(flags)
		},
	}

	a.bind(v, cmd, []cli.Opt{
		{
			DestP: &flags.input,
			Flag:  "input",
			Desc:  "file to read from, stdin when empty or -",
		},
		{
			DestP: &flags.output,
			Flag:  "output",
			Desc:  "file to write to, stdout when empty or -",
		},
	})

	return cmd
}

func (a *app) copyF(flags CopyFlags) (err error) {
	defer a.finish(&err)

	inName, in, err := a.openInput(flags.input)
	if err != nil {
		return err
	}
	r := iocounter.NewReader(in)
	defer r.Close()

	outName, out, err := a.openOutput(flags.output)
	if err != nil {
		return err
	}
	w := iocounter.NewWriter(out)
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing output")
		}
	}()

	labels := prometheus.Labels{"command": "copy"}
	a.register(metrics.NewCollector("read", "Bytes read from the input.", r, labels))
	a.register(metrics.NewCollector("written", "Bytes written to the output.", w, labels))

	log := a.log.With(zap.String("input", inName), zap.String("output", outName))
	start := time.Now()

	if _, err := io.Copy(w, r); err != nil {
		log.Error("Copy failed",
			zap.Uint64("bytes_read", r.Count()),
			zap.Uint64("bytes_written", w.Count()),
			zap.Error(err))
		return errors.Wrap(err, "copying")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flushing output")
	}

	log.Info("Copy complete",
		zap.Uint64("bytes_read", r.Count()),
		zap.Uint64("bytes_written", w.Count()),
		zap.Duration("elapsed", time.Since(start)))

	// stdout may be the data sink, so the summary goes to stderr.
	fmt.Fprintf(a.stderr, "read %s, wrote %s\n", a.formatSize(r.Count()), a.formatSize(w.Count()))
	return nil
}
