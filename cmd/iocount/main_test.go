package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/influxdata/iocounter/kit/cli"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin []byte, args ...string) result {
	t.Helper()

	var stdout bytes.Buffer
	res := runWithStdout(t, &stdout, stdin, args...)
	res.stdout = stdout.String()
	return res
}

func runWithStdout(t *testing.T, stdout io.Writer, stdin []byte, args ...string) result {
	t.Helper()

	var stderr bytes.Buffer
	cmd := newRootCmd(cli.NewViper("iocount"), bytes.NewReader(stdin), stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stderr: stderr.String(), err: err}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestCopy_StdinToStdout(t *testing.T) {
	res := run(t, []byte{1, 2, 3, 4, 5}, "copy")
	require.NoError(t, res.err)

	require.Equal(t, string([]byte{1, 2, 3, 4, 5}), res.stdout)
	require.Contains(t, res.stderr, "read 5 bytes, wrote 5 bytes")
	require.Contains(t, res.stderr, "Copy complete")
}

func TestCopy_Files(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("counted "), 10000)
	in := writeFile(t, dir, "in.bin", data)
	out := filepath.Join(dir, "out.bin")

	res := run(t, nil, "copy", "--input", in, "--output", out, "--log-level", "error")
	require.NoError(t, res.err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.Empty(t, res.stdout)
	require.Equal(t, "read 80000 bytes, wrote 80000 bytes\n", res.stderr)
}

func TestCopy_MissingInput(t *testing.T) {
	res := run(t, nil, "copy", "--input", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "opening input")
}

func TestCopy_Human(t *testing.T) {
	res := run(t, bytes.Repeat([]byte{0}, 2048), "copy", "--human", "--log-level", "error")
	require.NoError(t, res.err)
	require.Equal(t, "read 2.0 KiB, wrote 2.0 KiB\n", res.stderr)
}

func TestCopy_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iocount.prom")

	res := run(t, []byte{0xAA, 0xBB, 0xCC}, "copy", "--metrics-file", path)
	require.NoError(t, res.err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), `iocount_read_bytes_total{command="copy"} 3`)
	require.Contains(t, string(got), `iocount_written_bytes_total{command="copy"} 3`)
}

func TestCount_Files(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", []byte{1, 2, 3, 4, 5})
	b := writeFile(t, dir, "b", nil)

	res := run(t, nil, "count", a, b)
	require.NoError(t, res.err)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, []string{"5", a}, strings.Fields(lines[0]))
	require.Equal(t, []string{"0", b}, strings.Fields(lines[1]))
}

func TestCount_Stdin(t *testing.T) {
	res := run(t, []byte("hello, world"), "count")
	require.NoError(t, res.err)
	require.Equal(t, []string{"12", "stdin"}, strings.Fields(res.stdout))
}

func TestCount_DuplicateInputMetrics(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", []byte("abc"))
	path := filepath.Join(dir, "iocount.prom")

	res := run(t, nil, "count", "--metrics-file", path, a, a)
	require.NoError(t, res.err)
	require.Contains(t, res.stderr, "Skipping metric")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), `iocount_read_bytes_total{command="count",input="`+a+`"} 3`)
}

func TestCount_EnvHuman(t *testing.T) {
	t.Setenv("IOCOUNT_HUMAN", "true")

	dir := t.TempDir()
	a := writeFile(t, dir, "a", bytes.Repeat([]byte{1}, 3*1024*1024))

	res := run(t, nil, "count", a)
	require.NoError(t, res.err)
	require.Equal(t, []string{"3.0", "MiB", a}, strings.Fields(res.stdout))
}

func TestRoot_InvalidEnvLogLevel(t *testing.T) {
	t.Setenv("IOCOUNT_LOG_LEVEL", "loud")

	var res result
	require.NotPanics(t, func() { res = run(t, []byte("abc"), "copy") })
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), `invalid log-level "loud" from environment`)
	require.Empty(t, res.stdout)
}

func TestCount_MetricsFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a", []byte{1, 2, 3, 4})
	missing := filepath.Join(dir, "missing")
	path := filepath.Join(dir, "iocount.prom")

	res := run(t, nil, "count", "--metrics-file", path, a, missing)
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "opening input")
	require.Equal(t, []string{"4", a}, strings.Fields(res.stdout))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), `iocount_read_bytes_total{command="count",input="`+a+`"} 4`)
}

func TestCopy_MetricsFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "iocount.prom")

	res := run(t, nil, "copy", "--input", filepath.Join(dir, "missing"), "--metrics-file", path)
	require.Error(t, res.err)

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestCount_WriteFailure(t *testing.T) {
	res := runWithStdout(t, errWriter{}, []byte("hello"), "count")
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "writing result")
}
