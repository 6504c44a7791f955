// Command authdash is a terminal front end for the auth dashboard API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/guard"
	promexport "github.com/MrEthical07/goAuthClient/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	exitOK            = 0
	exitError         = 1
	exitUsage         = 2
	exitLoginRequired = 3
)

var (
	errUsage = errors.New("usage error")
	// errShown marks a failure the view already rendered.
	errShown = errors.New("view failed")
)

const usageText = `usage: authdash [-api URL] [-store file|redis|memory] [-log-level LEVEL] [-metrics] [-events] <command> [flags]

commands:
  login -u USER [-p PASS]
  register -u USER -e EMAIL [-p PASS]
  dashboard
  profile
  admin
  whoami
  status
  logout
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	cfg := loadConfig(getenv)

	fs := flag.NewFlagSet("authdash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	var (
		apiURL   = fs.String("api", cfg.APIURL, "API base URL")
		store    = fs.String("store", cfg.SessionStore, "session store: file, redis or memory")
		logLevel = fs.String("log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
		metrics  = fs.Bool("metrics", false, "print Prometheus metrics to stderr after the command")
		events   = fs.Bool("events", false, "print session events as JSON to stderr")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	level, err := zerolog.ParseLevel(strings.ToLower(*logLevel))
	if err != nil {
		fmt.Fprintf(stderr, "invalid log level %q\n", *logLevel)
		return exitUsage
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	cfg.APIURL = *apiURL
	cfg.SessionStore = *store

	nav := newNavigator(stdout)
	var sink goAuthClient.EventSink = nav
	if *events {
		sink = goAuthClient.MultiSink{nav, goAuthClient.NewJSONWriterSink(stderr)}
	}

	builder := goAuthClient.New().
		WithBaseURL(cfg.APIURL).
		WithLogger(logger).
		WithEventSink(sink).
		WithMetricsEnabled(*metrics).
		WithLatencyHistograms(*metrics)

	cleanup, err := configureStore(builder, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer cleanup()

	client, err := builder.Build()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	a := &app{
		client: client,
		guard:  guard.New(client, guard.WithRedirect(nav.redirect)),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	err = a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	client.Close()

	if *metrics {
		if out, rerr := promexport.NewCollector(client).Render(); rerr == nil {
			fmt.Fprint(stderr, out)
		} else {
			logger.Error().Err(rerr).Msg("render metrics")
		}
	}

	if err != nil && !errors.Is(err, errUsage) && !errors.Is(err, errShown) && !errors.Is(err, guard.ErrDenied) {
		fmt.Fprintf(stderr, "error: %s\n", goAuthClient.ErrorMessage(err))
	}

	switch {
	case nav.LoginRequired():
		return exitLoginRequired
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "%v\n\n%s", err, usageText)
		return exitUsage
	default:
		return exitError
	}
}

// configureStore selects the session backend on builder and returns the function
// that releases it.
func configureStore(b *goAuthClient.Builder, cfg cliConfig, logger zerolog.Logger) (func(), error) {
	switch cfg.SessionStore {
	case "file":
		b.WithFileSessionStore(cfg.SessionDir)
		return func() {}, nil
	case "memory":
		return func() {}, nil
	case "redis":
		addr := cfg.RedisAddr
		var mr *miniredis.Miniredis
		if addr == "" {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, fmt.Errorf("start miniredis: %w", err)
			}
			addr = mr.Addr()
			logger.Warn().Str("addr", addr).Msg("AUTHDASH_REDIS_ADDR not set; using in-process miniredis, the session ends with this process")
		}
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{addr},
			Password: cfg.RedisPassword,
		})
		b.WithRedisSessionStore(rdb, cfg.RedisPrefix)
		return func() {
			_ = rdb.Close()
			if mr != nil {
				mr.Close()
			}
		}, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
