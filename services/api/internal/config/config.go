package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the object API service.
type Config struct {
	Addr           string        `env:"ADDR,default=:8082"`
	DBDSN          string        `env:"DB_DSN,required"`
	DBMaxConns     int32         `env:"DB_MAX_CONNS,default=9"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=360s"`

	PageSizeMax    int      `env:"PAGE_SIZE_MAX,default=500"`
	RatePerMinute  int      `env:"RATE_LIMIT_PER_MINUTE,default=600"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=*"`

	NATSURL      string `env:"NATS_URL"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	StampBucket      string `env:"STAMPS_BUCKET"`
	S3Endpoint       string `env:"S3_ENDPOINT"`
	S3AccessKey      string `env:"S3_ACCESS_KEY"`
	S3SecretKey      string `env:"S3_SECRET_KEY"`
	S3Region         string `env:"S3_REGION,default=us-east-1"`
	S3DisableTLS     bool   `env:"S3_DISABLE_TLS,default=false"`
	S3ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE,default=true"`
}

// Load returns a Config populated from the named settings profile overlaid
// with the process environment. The environment always wins, so a profile
// only supplies defaults. An empty file path skips profiles entirely.
func Load(ctx context.Context, file, profile string) (Config, error) {
	lookuper := envconfig.OsLookuper()

	if file != "" {
		values, err := loadProfile(file, profile)
		if err != nil {
			return Config{}, err
		}
		lookuper = envconfig.MultiLookuper(lookuper, envconfig.MapLookuper(values))
	}

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadProfile reads a YAML settings file of the form
//
//	default:
//	  RATE_LIMIT_PER_MINUTE: 600
//	production:
//	  RATE_LIMIT_PER_MINUTE: 1200
//
// and flattens the default section under the named profile.
func loadProfile(file, profile string) (map[string]string, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("settings file %q does not exist", file)
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var profiles map[string]map[string]any
	if err := yaml.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("parse settings file %q: %w", file, err)
	}

	values := map[string]string{}
	for key, v := range profiles["default"] {
		values[key] = fmt.Sprint(v)
	}

	if profile != "" && profile != "default" {
		section, ok := profiles[profile]
		if !ok {
			return nil, fmt.Errorf("settings profile %q not found in %s", profile, file)
		}
		for key, v := range section {
			values[key] = fmt.Sprint(v)
		}
	}

	return values, nil
}
