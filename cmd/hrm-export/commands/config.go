package commands

import (
	"fmt"
	"hrmexport/lib/configutil"
	"hrmexport/lib/scrapers/hrm"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Domain   string `json:"domain"`
	Username string `json:"username"`
	Password string `json:"password"`
	// overrides the url derived from Domain
	BaseUrl     string `json:"base_url"`
	SessionFile string `json:"session_file"`
	OutputDir   string `json:"output_dir"`
}

// loadConfig merges config.json5 (plus its .local override) with .env
// style environment variables, the environment winning. credentials
// usually live in .env so they stay out of the config file.
func loadConfig() (Config, error) {
	godotenv.Load()

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config.json5: %w", err)
	}

	if v := os.Getenv("HRM_DOMAIN"); v != "" {
		cfg.Domain = v
	}
	if v := os.Getenv("HRM_USERNAME"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("HRM_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("HRM_BASE_URL"); v != "" {
		cfg.BaseUrl = v
	}

	if cfg.SessionFile == "" {
		cfg.SessionFile = ".session"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	return cfg, nil
}

func (c Config) resolveBaseUrl() (string, error) {
	if c.BaseUrl != "" {
		return c.BaseUrl, nil
	}
	if c.Domain == "" {
		return "", fmt.Errorf("no domain configured, set HRM_DOMAIN or `domain` in config.json5")
	}
	return hrm.BaseURL(c.Domain), nil
}

func (c Config) credentials() (hrm.Credentials, error) {
	if c.Username == "" || c.Password == "" {
		return hrm.Credentials{}, fmt.Errorf("HRM_USERNAME and HRM_PASSWORD must be set")
	}
	return hrm.Credentials{Username: c.Username, Password: c.Password}, nil
}

func (c Config) historyDbPath() string {
	return filepath.Join(c.OutputDir, "history.db")
}
