package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider name constants used across OAuth and automation config
const (
	ProviderGoogle         = "google"
	ProviderGoogleCalendar = "google-calendar"
	ProviderGoogleSheets   = "google-sheets"
	ProviderSlack          = "slack"
	ProviderHubSpot        = "hubspot"
	ProviderSalesforce     = "salesforce"
	ProviderGoHighLevel    = "gohighlevel"
	ProviderCalendly       = "calendly"
	ProviderQuickBooks     = "quickbooks"
	ProviderTwilio         = "twilio" // static credential, not an OAuth provider
)

type Config struct {
	App       AppConfig                 `mapstructure:"app"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Redis     RedisConfig               `mapstructure:"redis"`
	Vault     VaultConfig               `mapstructure:"vault"`
	Tools     ToolsConfig               `mapstructure:"tools"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Twilio    TwilioConfig              `mapstructure:"twilio"`
	Email     EmailConfig               `mapstructure:"email"`
	Agent     AgentConfig               `mapstructure:"agent"`
	Logging   LoggingConfig             `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Port    int    `mapstructure:"port"`
	Env     string `mapstructure:"env"`
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// VaultConfig holds the credential-at-rest encryption key.
// The key must be exactly 64 hex characters (256 bits).
type VaultConfig struct {
	Key string `mapstructure:"key"`
}

// ToolsConfig configures the agent-facing tool endpoints.
type ToolsConfig struct {
	Secret        string        `mapstructure:"secret"`          // shared bearer secret the voice agent presents
	Timeout       time.Duration `mapstructure:"timeout"`         // outbound call timeout for tool actions
	RateLimit     int           `mapstructure:"rate_limit"`      // requests per window per client
	RateWindowSec int           `mapstructure:"rate_window_sec"` // window length in seconds
}

// ProviderConfig holds per-provider OAuth application credentials and endpoints.
type ProviderConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	AuthURL      string   `mapstructure:"auth_url"`
	TokenURL     string   `mapstructure:"token_url"`
	RevokeURL    string   `mapstructure:"revoke_url"`
	IdentityURL  string   `mapstructure:"identity_url"`
	Scopes       []string `mapstructure:"scopes"`
}

type TwilioConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	From    string        `mapstructure:"from"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgentConfig points at the conversational-AI provider's management API
// (agent prompt updates, tool registration).
type AgentConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func NewConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Enable environment variable override
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Convert timeouts to durations
	cfg.Tools.Timeout = cfg.Tools.Timeout * time.Second
	cfg.Twilio.Timeout = cfg.Twilio.Timeout * time.Second
	cfg.Email.Timeout = cfg.Email.Timeout * time.Second
	cfg.Agent.Timeout = cfg.Agent.Timeout * time.Second

	if cfg.Tools.Timeout == 0 {
		cfg.Tools.Timeout = 10 * time.Second
	}
	if cfg.Tools.RateLimit == 0 {
		cfg.Tools.RateLimit = 60
	}
	if cfg.Tools.RateWindowSec == 0 {
		cfg.Tools.RateWindowSec = 60
	}

	if cfg.Tools.Secret == "" {
		return nil, fmt.Errorf("tools.secret is required")
	}

	return &cfg, nil
}

// Provider returns the OAuth application config for a provider name.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	p, ok := c.Providers[name]
	if !ok {
		return ProviderConfig{}, fmt.Errorf("provider %q is not configured", name)
	}
	return p, nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
