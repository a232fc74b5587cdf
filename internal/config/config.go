// Package config provides a go-simpler.org/env configuration table for the
// broker, with an optional .env override file the way the wider orly.dev
// tree loads one.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"go-simpler.org/env"

	"crawlbroker.dev/internal/chk"
	"crawlbroker.dev/internal/log"
	"crawlbroker.dev/internal/lol"
)

// C is the broker's configuration, read from the environment if present, or
// overridden by a .env file found in BROKER_CONFIG_DIR (defaulting to an
// AppName subdirectory of the XDG config home) if one exists.
type C struct {
	AppName     string        `env:"BROKER_APP_NAME" default:"crawlbroker"`
	ConfigDir   string        `env:"BROKER_CONFIG_DIR" usage:"directory containing an optional .env override file"`
	RedisURI    string        `env:"BROKER_REDIS_URI" required:"true" usage:"connection URI for the cooldown store"`
	CooldownTTL time.Duration `env:"BROKER_COOLDOWN_TTL" default:"5s" usage:"minimum interval between two dispatches for the same domain"`
	GRPCListen  string        `env:"BROKER_GRPC_LISTEN" default:"0.0.0.0:50051" usage:"bind address for the Publish/Subscribe/Health gRPC service"`
	AdminListen string        `env:"BROKER_ADMIN_LISTEN" default:"0.0.0.0:8080" usage:"bind address for the read-only /healthz and /stats HTTP surface"`
	LogLevel    string        `env:"BROKER_LOG_LEVEL" default:"info" usage:"one of fatal error warn info debug trace"`
}

// New loads C from the environment, then from BROKER_CONFIG_DIR/.env if such
// a file exists, the latter overriding the former for any key it sets.
func New() (cfg *C, err error) {
	cfg = &C{}
	if err = env.Load(cfg, nil); chk.T(err) {
		return
	}
	if cfg.ConfigDir == "" {
		cfg.ConfigDir = filepath.Join(xdg.ConfigHome, cfg.AppName)
	}
	lol.SetLogLevel(cfg.LogLevel)
	envPath := filepath.Join(cfg.ConfigDir, ".env")
	if fileExists(envPath) {
		if err = loadOverride(cfg, envPath); chk.E(err) {
			return
		}
		lol.SetLogLevel(cfg.LogLevel)
		log.I.F("loaded configuration override from %s", envPath)
	}
	return
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// loadOverride splits the override file into KEY=value lines, exports each
// into the process environment, and re-runs env.Load, so the override reuses
// the same struct tags and type coercion as the primary environment load.
func loadOverride(cfg *C, path string) (err error) {
	var data []byte
	if data, err = os.ReadFile(path); chk.E(err) {
		return
	}
	lines := splitLines(string(data))
	for _, line := range lines {
		if err = os.Setenv(keyOf(line), valueOf(line)); chk.E(err) {
			return
		}
	}
	return env.Load(cfg, nil)
}

func splitLines(s string) (out []string) {
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			line := s[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			if len(line) > 0 && line[0] != '#' {
				out = append(out, line)
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return
}

func keyOf(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '=' {
			return line[:i]
		}
	}
	return line
}

func valueOf(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '=' {
			return line[i+1:]
		}
	}
	return ""
}
