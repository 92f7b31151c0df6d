package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"topbook/internal/replay"
	"topbook/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses the command line and replays the feed. It returns the process
// exit code: 0 on success, 1 when the replay fails and 2 on bad usage.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("topbook", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: topbook [flags] FILE\n\nReplays an order feed and prints every top of book change.\nUse - as FILE to read standard input.\n\n")
		flags.PrintDefaults()
	}

	shards := flags.Int("shards", 1, "Number of book shards; with more than 1, output order across tickers\nis not kept and the output written before a failure varies between runs")
	lenient := flags.Bool("lenient", false, "Skip malformed records instead of stopping")
	logLevel := flags.String("log-level", "info", "Log level: ['debug', 'info', 'warn', 'error']")
	logJSON := flags.Bool("log-json", false, "Log JSON lines instead of console output")

	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 1 || *shards < 1 {
		flags.Usage()
		return 2
	}

	logger, err := utils.SetupLogger(utils.LogConfig{
		Level: *logLevel,
		JSON:  *logJSON,
		Out:   stderr,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	in := stdin
	if path := flags.Arg(0); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("unable to open feed")
			return 1
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Error().Err(err).Str("path", path).Msg("unable to close feed")
			}
		}()
		in = f
	}

	cfg := replay.Config{Shards: *shards, Lenient: *lenient}
	if _, err := replay.New(cfg, logger).Run(ctx, in, stdout); err != nil {
		logger.Error().Err(err).Msg("replay failed")
		return 1
	}
	return 0
}
