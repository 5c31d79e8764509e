// Package config collects memsim settings from defaults, the environment and
// command-line flags, in that order of precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/docker/go-units"
	"github.com/spf13/pflag"

	"github.com/joshuapare/memsim/internal/logger"
)

// Environment variables read by FromEnv.
const (
	EnvTotalMemory = "MEMSIM_TOTAL_MEMORY"
	EnvListen      = "MEMSIM_LISTEN"
	EnvLogLevel    = "MEMSIM_LOG_LEVEL"
	EnvLogJSON     = "MEMSIM_LOG_JSON"
	EnvLogDir      = "MEMSIM_LOG_DIR"
	EnvVerify      = "MEMSIM_VERIFY"
)

const (
	// DefaultTotalMemory is 1MiB, matching the allocator service default.
	DefaultTotalMemory = 1 << 20

	// DefaultListen is the HTTP listen address for `memctl serve`.
	DefaultListen = ":8080"
)

// Config holds every tunable.
type Config struct {
	TotalMemory int64
	Listen      string
	LogLevel    string
	LogJSON     bool
	LogDir      string
	Verify      bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TotalMemory: DefaultTotalMemory,
		Listen:      DefaultListen,
		LogLevel:    "info",
	}
}

// FromEnv overlays any MEMSIM_* variables that are set.
func (c *Config) FromEnv() error {
	return c.fromLookup(os.LookupEnv)
}

func (c *Config) fromLookup(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTotalMemory); ok && v != "" {
		n, err := ParseSize(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTotalMemory, err)
		}
		c.TotalMemory = n
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogDir); ok && v != "" {
		c.LogDir = v
	}
	for name, dst := range map[string]*bool{EnvLogJSON: &c.LogJSON, EnvVerify: &c.Verify} {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

// sizeValue adapts an int64 byte count to pflag so --size accepts 64K, 1MiB.
type sizeValue struct{ n *int64 }

func (s sizeValue) String() string {
	if s.n == nil {
		return ""
	}
	return strconv.FormatInt(*s.n, 10)
}

func (s sizeValue) Set(v string) error {
	n, err := ParseSize(v)
	if err != nil {
		return err
	}
	*s.n = n
	return nil
}

func (sizeValue) Type() string { return "size" }

// BindFlags registers the global flags on fs, defaulting to the current values.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.Var(sizeValue{&c.TotalMemory}, "size", "Total simulated memory (bytes, or with unit: 64K, 1MiB)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "Write logs as JSON")
	fs.StringVar(&c.LogDir, "log-dir", c.LogDir, "Write logs to a dated file in this directory")
	fs.BoolVar(&c.Verify, "verify", c.Verify, "Check memory map invariants after every operation")
}

// BindServeFlags registers flags used only by the HTTP server.
func (c *Config) BindServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Listen, "listen", c.Listen, "HTTP listen address")
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.TotalMemory <= 0 {
		errs = append(errs, fmt.Errorf("total memory must be positive, got %d", c.TotalMemory))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level %q: %w", c.LogLevel, err))
	}
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	return errors.Join(errs...)
}

// ParseSize accepts plain byte counts and binary unit suffixes (K, KiB, M,
// MiB, G...). Units are powers of 1024. Values that do not fit in an int64
// are rejected.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	// RAMInBytes converts float to int64 unchecked, so overflow wraps or
	// saturates silently. Redo the product in float64 to catch it.
	if n <= 0 || !fitsInt64(s) {
		return 0, fmt.Errorf("invalid size %q: out of range", s)
	}
	return n, nil
}

// fitsInt64 splits s the way RAMInBytes does and reports whether
// number * unit stays below math.MaxInt64.
func fitsInt64(s string) bool {
	sep := strings.LastIndexAny(s, "0123456789. ")
	if sep < 0 {
		return false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s[:sep+1]), 64)
	if err != nil {
		return false
	}
	mul := int64(1)
	if sfx := s[sep+1:]; sfx != "" {
		if mul, err = units.RAMInBytes("1" + sfx); err != nil {
			return false
		}
	}
	return f*float64(mul) < math.MaxInt64
}

// FormatSize renders n with a binary unit, e.g. "1MiB".
func FormatSize(n int64) string {
	return units.BytesSize(float64(n))
}
