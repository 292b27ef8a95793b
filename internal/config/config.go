// Package config loads the environment-driven tunables of spec.md §6's
// table, optionally preloading a .env file first (the teacher repo has
// no central config package — it calls os.Getenv ad hoc in a dozen
// places — so this is grounded on the pack's agentic-shell main.go
// instead: godotenv.Load at entry, then individual env reads).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full set of environment-tunable constants spec.md §6
// names, plus the endpoints the ambient stack needs to reach its
// backing stores.
type Config struct {
	PlannerEndpoint       string
	PlannerTimeout        time.Duration
	TickInterval          time.Duration
	QuiescenceMinTicks    uint64
	SoftCommitMinAgeTicks uint64
	DissolutionThreshold  float64
	EpisodicTTLTicks      uint64
	AttentiveWindowTicks  uint64
	SemanticStorePath     string

	RedisAddr  string
	DgraphAddr string
	HTTPAddr   string
	WsAddr     string
}

// Default mirrors spec.md §6's documented column verbatim.
func Default() Config {
	return Config{
		PlannerEndpoint:       "http://127.0.0.1:8712/plan",
		PlannerTimeout:        200 * time.Millisecond,
		TickInterval:          50 * time.Millisecond,
		QuiescenceMinTicks:    3,
		SoftCommitMinAgeTicks: 2,
		DissolutionThreshold:  0.1,
		EpisodicTTLTicks:      10000,
		AttentiveWindowTicks:  50,
		SemanticStorePath:     defaultSemanticStorePath(),
		RedisAddr:             "127.0.0.1:6379",
		DgraphAddr:            "127.0.0.1:9080",
		HTTPAddr:              ":8080",
		WsAddr:                ":8081",
	}
}

// Load optionally preloads envPath (".env" if empty) via godotenv, then
// overlays every NEXUSCORTEX_* environment variable onto Default(). A
// missing .env file is not an error — godotenv.Load's result is
// discarded exactly as the teacher pack's own entrypoint does.
func Load(envPath string) (Config, error) {
	if envPath == "" {
		envPath = ".env"
	}
	_ = godotenv.Load(envPath)

	cfg := Default()

	if v := os.Getenv("NEXUSCORTEX_PLANNER_ENDPOINT"); v != "" {
		cfg.PlannerEndpoint = v
	}
	if v, err := envDuration("NEXUSCORTEX_PLANNER_TIMEOUT_MS"); err != nil {
		return Config{}, err
	} else if v > 0 {
		cfg.PlannerTimeout = v
	}
	if v, err := envDuration("NEXUSCORTEX_TICK_MS"); err != nil {
		return Config{}, err
	} else if v > 0 {
		cfg.TickInterval = v
	}
	if v, err := envUint("NEXUSCORTEX_QUIESCENCE_MIN_TICKS"); err != nil {
		return Config{}, err
	} else if v != nil {
		cfg.QuiescenceMinTicks = *v
	}
	if v, err := envUint("NEXUSCORTEX_SOFT_COMMIT_MIN_AGE_TICKS"); err != nil {
		return Config{}, err
	} else if v != nil {
		cfg.SoftCommitMinAgeTicks = *v
	}
	if v, err := envFloat("NEXUSCORTEX_DISSOLUTION_THRESHOLD"); err != nil {
		return Config{}, err
	} else if v != nil {
		cfg.DissolutionThreshold = *v
	}
	if v, err := envUint("NEXUSCORTEX_EPISODIC_TTL_TICKS"); err != nil {
		return Config{}, err
	} else if v != nil {
		cfg.EpisodicTTLTicks = *v
	}
	if v, err := envUint("NEXUSCORTEX_ATTENTIVE_WINDOW_TICKS"); err != nil {
		return Config{}, err
	} else if v != nil {
		cfg.AttentiveWindowTicks = *v
	}
	if v := os.Getenv("NEXUSCORTEX_SEMANTIC_STORE_PATH"); v != "" {
		cfg.SemanticStorePath = v
	}
	if v := os.Getenv("NEXUSCORTEX_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("NEXUSCORTEX_DGRAPH_ADDR"); v != "" {
		cfg.DgraphAddr = v
	}
	if v := os.Getenv("NEXUSCORTEX_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("NEXUSCORTEX_WS_ADDR"); v != "" {
		cfg.WsAddr = v
	}

	return cfg, nil
}

func defaultSemanticStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "nexuscortex-semantic"
	}
	return dir + "/nexuscortex/semantic"
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	ms, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func envUint(key string) (*uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &n, nil
}

func envFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return &f, nil
}
