package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/star/eopgo/internal/api"
	"github.com/star/eopgo/internal/auth"
	"github.com/star/eopgo/internal/eop"
	"github.com/star/eopgo/internal/metrics"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("EOPGO_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	srvCfg := loadServerConfig(logger)
	dataCfg := loadDataConfig(logger)

	provider := eop.NewProvider(logger)
	eopCache := eop.NewCache(dataCfg.CacheDir, dataCfg.MaxFiles)

	// Attempt to load cached EOP data on startup, falling back to the
	// packaged product.
	data, ts, err := eopCache.LoadLatest(cacheProduct(dataCfg.Source))
	if err != nil {
		logger.Info("no EOP cache found, loading packaged data", "error", err)
		if err := loadDefault(provider, dataCfg); err != nil {
			logger.Error("failed to load packaged EOP data", "error", err)
			os.Exit(1)
		}
	} else if err := loadBytes(provider, dataCfg, data); err != nil {
		logger.Warn("failed to parse cached EOP data, loading packaged data", "error", err)
		if err := loadDefault(provider, dataCfg); err != nil {
			logger.Error("failed to load packaged EOP data", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("loaded EOP data from cache", "records", provider.Len(), "cached_at", ts.Format(time.RFC3339))
	}
	metrics.IncLoad(provider.Source().String())
	metrics.SetRecordsLoaded(provider.Len())
	metrics.SetDataMJDMax(provider.MJDMax())

	fetcher := eop.NewFetcher(dataCfg.C04URL, dataCfg.StandardURL, logger)

	srv := api.NewServer(addr, logger, srvCfg, authCfg, provider)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if dataCfg.EnableFetch {
		go refreshLoop(ctx, logger, provider, fetcher, eopCache, dataCfg)
	}

	// Background goroutine to update the data age gauge.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if provider.Initialized() {
					metrics.SetDataAgeDays(eop.MJDFromTime(time.Now().UTC()) - provider.MJDMax())
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server",
			"addr", addr,
			"auth_enabled", authCfg.Enabled,
			"source", dataCfg.Source.String(),
			"fetch_enabled", dataCfg.EnableFetch,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// refreshLoop periodically fetches the configured EOP product, caches it on
// disk and swaps it into the provider. A failed refresh leaves the current
// table in place.
func refreshLoop(ctx context.Context, logger *slog.Logger, provider *eop.Provider, fetcher *eop.Fetcher, eopCache *eop.Cache, cfg dataConfig) {
	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	refresh := func() {
		var (
			data []byte
			err  error
		)
		if cfg.Source == eop.SourceC04 {
			data, err = fetcher.FetchC04(ctx)
		} else {
			data, err = fetcher.FetchStandard(ctx)
		}
		if err != nil {
			logger.Warn("EOP refresh fetch failed", "error", err)
			metrics.IncLoadError()
			return
		}

		if err := loadBytes(provider, cfg, data); err != nil {
			logger.Warn("EOP refresh parse failed, keeping current table", "error", err)
			metrics.IncLoadError()
			return
		}

		if err := eopCache.Write(cacheProduct(cfg.Source), data, time.Now()); err != nil {
			logger.Warn("failed to cache EOP data", "error", err)
		}

		metrics.IncLoad(provider.Source().String())
		metrics.SetRecordsLoaded(provider.Len())
		metrics.SetDataMJDMax(provider.MJDMax())
		logger.Info("refreshed EOP data", "records", provider.Len(), "mjd_max", provider.MJDMax())
	}

	// Refresh once at startup so a stale cache does not linger for a full
	// interval.
	refresh()

	for {
		select {
		case <-ticker.C:
			refresh()
		case <-ctx.Done():
			return
		}
	}
}

// cacheProduct maps the configured source to its cache file prefix; both
// finals bulletins read the same downloaded product.
func cacheProduct(source eop.SourceType) string {
	if source == eop.SourceC04 {
		return eop.CacheProductC04
	}
	return eop.CacheProductFinals
}

func loadBytes(provider *eop.Provider, cfg dataConfig, data []byte) error {
	if cfg.Source == eop.SourceC04 {
		return provider.LoadC04(bytes.NewReader(data), cfg.Opts)
	}
	return provider.LoadStandard(bytes.NewReader(data), cfg.Source, cfg.Opts)
}

func loadDefault(provider *eop.Provider, cfg dataConfig) error {
	if cfg.Source == eop.SourceC04 {
		return provider.LoadDefaultC04(cfg.Opts)
	}
	return provider.LoadDefaultStandard(cfg.Source, cfg.Opts)
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("EOPGO_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("EOPGO_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("EOPGO_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("EOPGO_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadServerConfig(logger *slog.Logger) api.Config {
	cfg := api.Config{}

	if v := os.Getenv("EOPGO_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid EOPGO_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	return cfg
}

// dataConfig selects the served EOP product and the refresh behavior.
type dataConfig struct {
	Source eop.SourceType
	Opts   eop.LoadOptions

	CacheDir        string
	MaxFiles        int
	RefreshInterval time.Duration
	EnableFetch     bool
	C04URL          string
	StandardURL     string
}

func loadDataConfig(logger *slog.Logger) dataConfig {
	cfg := dataConfig{
		Source: eop.SourceStandardBulletinA,
		Opts: eop.LoadOptions{
			Extrapolate: eop.ExtrapolateHold,
			Interpolate: true,
		},
		CacheDir:        "/tmp/eopgo",
		MaxFiles:        5,
		RefreshInterval: 6 * time.Hour,
		EnableFetch:     true,
	}

	if v := os.Getenv("EOPGO_SOURCE"); v != "" {
		source, err := parseSource(v)
		if err != nil {
			logger.Warn("invalid EOPGO_SOURCE value, using default", "value", v, "default", cfg.Source.String())
		} else {
			cfg.Source = source
		}
	}

	if v := os.Getenv("EOPGO_EXTRAPOLATE"); v != "" {
		policy, err := eop.ParseExtrapolation(v)
		if err != nil {
			logger.Warn("invalid EOPGO_EXTRAPOLATE value, using default", "value", v, "default", cfg.Opts.Extrapolate.String())
		} else {
			cfg.Opts.Extrapolate = policy
		}
	}

	if v := os.Getenv("EOPGO_INTERPOLATE"); v != "" {
		interpolate, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid EOPGO_INTERPOLATE value, using default", "value", v, "default", cfg.Opts.Interpolate)
		} else {
			cfg.Opts.Interpolate = interpolate
		}
	}

	if v := os.Getenv("EOPGO_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	if v := os.Getenv("EOPGO_CACHE_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EOPGO_CACHE_MAX_FILES value, using default", "value", v, "default", cfg.MaxFiles)
		} else {
			cfg.MaxFiles = n
		}
	}

	if v := os.Getenv("EOPGO_REFRESH_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid EOPGO_REFRESH_INTERVAL value, using default", "value", v, "default", int(cfg.RefreshInterval.Seconds()))
		} else {
			cfg.RefreshInterval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("EOPGO_ENABLE_FETCH"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid EOPGO_ENABLE_FETCH value, defaulting to false", "value", v)
			cfg.EnableFetch = false
		} else {
			cfg.EnableFetch = enabled
		}
	}

	cfg.C04URL = os.Getenv("EOPGO_C04_URL")
	cfg.StandardURL = os.Getenv("EOPGO_STANDARD_URL")

	logger.Info("EOP data config",
		"source", cfg.Source.String(),
		"extrapolate", cfg.Opts.Extrapolate.String(),
		"interpolate", cfg.Opts.Interpolate,
		"cache_dir", cfg.CacheDir,
		"refresh_interval_seconds", cfg.RefreshInterval.Seconds(),
		"fetch_enabled", cfg.EnableFetch,
	)

	return cfg
}

func parseSource(s string) (eop.SourceType, error) {
	switch s {
	case "c04":
		return eop.SourceC04, nil
	case "standard-a":
		return eop.SourceStandardBulletinA, nil
	case "standard-b":
		return eop.SourceStandardBulletinB, nil
	}
	return 0, fmt.Errorf("unknown source %q (want c04, standard-a or standard-b)", s)
}
