package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// Environment variables read by LoadSettings
const (
	EnvHome        = "ARTREG_HOME"
	EnvStderrLevel = "ARTREG_STDERR_LEVEL"
	EnvOrigin      = "ARTREG_ORIGIN"
)

type envLookup func(key string) (string, bool)

// newEnvLookup layers a .env file under the process environment.
// A variable set in the process always wins; a missing .env is not an error.
func newEnvLookup(fs afero.Fs, path string, lookup func(string) (string, bool)) (envLookup, error) {
	dotenv := map[string]string{}

	f, err := fs.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		dotenv, err = godotenv.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}, nil
}

// applyEnv copies environment values over settings and reports whether any applied
func applyEnv(settings *RawSettings, env envLookup) bool {
	applied := false
	if v, ok := env(EnvStderrLevel); ok {
		settings.StderrLevel = &v
		applied = true
	}
	if v, ok := env(EnvOrigin); ok {
		settings.Origin = &v
		applied = true
	}
	if _, ok := env(EnvHome); ok {
		applied = true
	}
	return applied
}

// toDuration accepts a Go duration ("5s") or a whole number of seconds
func toDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a duration: %q", s)
	}
	return time.Duration(n) * time.Second, nil
}
