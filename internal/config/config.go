package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var policyYAML []byte

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Face    ModalityConfig
	Voice   ModalityConfig
	Grant   GrantConfig
	Extract ExtractConfig
}

type ServerConfig struct {
	Port int
	// AllowedOrigins lists origins that receive CORS headers in
	// addition to localhost.
	AllowedOrigins []string
}

type StoreConfig struct {
	Backend  string // fs (default), postgres, or memory
	Dir      string // root directory of the fs backend
	Database DatabaseConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// ModalityConfig describes one biometric factor: where its embedding
// service lives, the decision threshold, and the vector dimension.
type ModalityConfig struct {
	ServiceURL string
	Threshold  float64
	Dim        int
}

type GrantConfig struct {
	Secret           string        // HMAC secret for enrollment grants
	TTL              time.Duration // how long a grant stays valid
	RequireAdminRole bool          // restrict grant issuance to admin templates
}

type ExtractConfig struct {
	Timeout time.Duration // per-call budget for the embedding services
}

// policyFile mirrors the embedded policy.yaml.
type policyFile struct {
	Face struct {
		Threshold float64 `yaml:"threshold"`
		Dim       int     `yaml:"dim"`
	} `yaml:"face"`
	Voice struct {
		Threshold float64 `yaml:"threshold"`
		Dim       int     `yaml:"dim"`
	} `yaml:"voice"`
	Grant struct {
		TTL string `yaml:"ttl"`
	} `yaml:"grant"`
	Enroll struct {
		RequireAdminRole bool `yaml:"require_admin_role"`
	} `yaml:"enroll"`
	Extract struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"extract"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable and parses it as a boolean.
// Returns the default value if the env var is unset, empty, or invalid.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration.
// Returns the default value if the env var is unset, empty, or invalid.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func Load() *Config {
	var policy policyFile
	if err := yaml.Unmarshal(policyYAML, &policy); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded policy.yaml: " + err.Error())
	}

	grantTTL, err := time.ParseDuration(policy.Grant.TTL)
	if err != nil {
		panic("invalid grant.ttl in embedded policy.yaml: " + err.Error())
	}
	extractTimeout, err := time.ParseDuration(policy.Extract.Timeout)
	if err != nil {
		panic("invalid extract.timeout in embedded policy.yaml: " + err.Error())
	}

	return &Config{
		Server: ServerConfig{
			Port:           envInt("PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Store: StoreConfig{
			Backend: envString("STORE_BACKEND", "fs"),
			Dir:     envString("STORE_DIR", "users"),
			Database: DatabaseConfig{
				URL:          os.Getenv("DATABASE_URL"),
				MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
				MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			},
		},
		Face: ModalityConfig{
			ServiceURL: envString("FACE_SERVICE_URL", "http://localhost:8001"),
			Threshold:  envFloat("FACE_THRESHOLD", policy.Face.Threshold),
			Dim:        envInt("FACE_DIM", policy.Face.Dim),
		},
		Voice: ModalityConfig{
			ServiceURL: envString("VOICE_SERVICE_URL", "http://localhost:8002"),
			Threshold:  envFloat("VOICE_THRESHOLD", policy.Voice.Threshold),
			Dim:        envInt("VOICE_DIM", policy.Voice.Dim),
		},
		Grant: GrantConfig{
			Secret:           os.Getenv("GRANT_SECRET"),
			TTL:              envDuration("GRANT_TTL", grantTTL),
			RequireAdminRole: envBool("REQUIRE_ADMIN_ROLE", policy.Enroll.RequireAdminRole),
		},
		Extract: ExtractConfig{
			Timeout: envDuration("EXTRACT_TIMEOUT", extractTimeout),
		},
	}
}

// envString reads an environment variable, falling back to a default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable. Empty entries
// are dropped.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
