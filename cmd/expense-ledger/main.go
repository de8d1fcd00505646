package main

import (
	"database/sql"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	_ "github.com/lib/pq"
	"github.com/oklog/oklog/pkg/group"
	"github.com/redis/go-redis/v9"

	"github.com/khaliullov/expense-ledger/pkg/endpoint"
	"github.com/khaliullov/expense-ledger/pkg/fxrate"
	"github.com/khaliullov/expense-ledger/pkg/repository"
	"github.com/khaliullov/expense-ledger/pkg/service"
	"github.com/khaliullov/expense-ledger/pkg/transport"
)

func main() {
	fs := flag.NewFlagSet("expense-ledger", flag.ExitOnError)
	var (
		httpAddr   = fs.String("http-addr", ":"+strconv.Itoa(envInt("HTTP_PORT", 8000)), "HTTP listen address")
		dbHost     = fs.String("db-host", envString("DB_HOST", "localhost"), "postgresql host")
		dbPort     = fs.Int("db-port", envInt("DB_PORT", 5432), "postgresql port")
		dbName     = fs.String("db-name", envString("DB_NAME", "ledgerdb"), "postgresql database name")
		dbUser     = fs.String("db-user", envString("DB_USER", "postgres"), "postgresql user")
		dbPassword = fs.String("db-password", envString("DB_PASSWORD", "postgres"), "postgresql password")
		dbMigrate  = fs.Bool("db-migrate", envBool("DB_MIGRATE", true), "run schema migrations at start-up")
		fxURL      = fs.String("fx-url", envString("FX_URL", "localhost:8100"), "FX rate service address")
		redisAddr  = fs.String("redis-addr", envString("REDIS_ADDR", ""), "redis address for FX rate caching, empty to disable")
		fxCacheTTL = fs.Int("fx-cache-ttl", envInt("FX_CACHE_TTL_SECONDS", 60), "FX rate cache TTL in seconds")
	)
	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	_ = fs.Parse(os.Args[1:])

	// Logging domain.
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = level.NewFilter(logger, level.AllowDebug())
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	_ = level.Info(logger).Log("msg", "expense ledger started")
	defer func() {
		_ = level.Info(logger).Log("msg", "expense ledger ended")
	}()

	var db *sql.DB
	{
		var err error
		DSN := &url.URL{
			Scheme:   "postgresql",
			RawQuery: "sslmode=disable",
			Host:     *dbHost + ":" + strconv.Itoa(*dbPort),
			Path:     *dbName,
			User:     url.UserPassword(*dbUser, *dbPassword),
		}
		db, err = sql.Open("postgres", DSN.String())
		if err != nil {
			_ = level.Error(logger).Log("db", err)
			os.Exit(1)
		}
		defer db.Close()
		if *dbMigrate {
			if err = repository.Migrate(db); err != nil {
				_ = level.Error(logger).Log("db", "migrate", "err", err)
				os.Exit(1)
			}
		}
	}

	var rates fxrate.Provider
	{
		var err error
		rates, err = fxrate.NewHTTPProvider(*fxURL, logger)
		if err != nil {
			_ = level.Error(logger).Log("fx", *fxURL, "err", err)
			os.Exit(1)
		}
		if *redisAddr != "" {
			client := redis.NewClient(&redis.Options{Addr: *redisAddr})
			defer client.Close()
			rates = fxrate.NewCachedProvider(rates, client, time.Duration(*fxCacheTTL)*time.Second, logger)
		}
	}

	// Build the layers of the service "onion" from the inside out. First, the
	// business logic service; then, the set of endpoints that wrap the service;
	// and finally, a series of concrete transport adapters.
	var (
		repository  = repository.New(db, logger)
		service     = service.New(repository, rates, logger)
		endpoints   = endpoint.New(service, logger)
		httpHandler = transport.NewHTTPHandler(endpoints, logger)
	)

	var g group.Group
	{
		// The HTTP listener mounts the Go kit HTTP handler we created.
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			_ = level.Error(logger).Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		g.Add(func() error {
			_ = level.Info(logger).Log("transport", "HTTP", "addr", *httpAddr)
			return http.Serve(httpListener, httpHandler)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	// Run!
	_ = level.Error(logger).Log("exit", g.Run())
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func envString(env, fallback string) string {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	return e
}

func envInt(env string, fallback int) int {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	v, err := strconv.Atoi(e)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(env string, fallback bool) bool {
	e := os.Getenv(env)
	if e == "" {
		return fallback
	}
	v, err := strconv.ParseBool(e)
	if err != nil {
		return fallback
	}
	return v
}
