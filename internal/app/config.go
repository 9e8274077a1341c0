package app

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/mltrainer/internal/adapters/mlbackend"
	"github.com/emiliopalmerini/mltrainer/internal/adapters/otel"
	"github.com/emiliopalmerini/mltrainer/internal/logging"
	"github.com/emiliopalmerini/mltrainer/internal/util"
	"github.com/emiliopalmerini/mltrainer/internal/web"
)

const envPrefix = "MLTRAINER"

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	SessionCapacity int           `envconfig:"SESSION_CAPACITY" default:"1024"`
	SecureCookies   bool          `envconfig:"SECURE_COOKIES" default:"false"`

	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://localhost:5000"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"2m"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
	LogFile   string `envconfig:"LOG_FILE"`

	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT"`
	OTELInsecure bool   `envconfig:"OTEL_INSECURE" default:"true"`
}

// LoadConfig reads the configuration from MLTRAINER_* environment variables.
// Values from the given dotenv files fill in variables not already set; the
// default files are ./.env and $XDG_CONFIG_HOME/mltrainer/mltrainer.env.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = defaultEnvFiles()
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionCapacity <= 0 {
		return nil, fmt.Errorf("%s_SESSION_CAPACITY must be positive, got %d", envPrefix, cfg.SessionCapacity)
	}
	return &cfg, nil
}

func defaultEnvFiles() []string {
	files := []string{".env"}
	if dir, err := util.GetXDGConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "mltrainer.env"))
	}
	return files
}

func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat, File: c.LogFile}
}

func (c *Config) Backend() mlbackend.Config {
	return mlbackend.Config{URL: c.BackendURL, Timeout: c.BackendTimeout}
}

func (c *Config) OTEL() otel.Config {
	return otel.Config{Endpoint: c.OTELEndpoint, Enabled: c.OTELEnabled, Insecure: c.OTELInsecure}
}

func (c *Config) Web() web.Config {
	return web.Config{
		Addr:            c.Addr,
		MaxUploadBytes:  c.MaxUploadBytes,
		ShutdownTimeout: c.ShutdownTimeout,
		SecureCookies:   c.SecureCookies,
	}
}
