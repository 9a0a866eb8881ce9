package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"activation_fulfiller/internal/model"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Mail    MailConfig    `yaml:"mail"`
	Shopify ShopifyConfig `yaml:"shopify"`
}

type ServerConfig struct {
	Addr string     `yaml:"addr"`
	Cors CorsConfig `yaml:"cors"`
}

type CorsConfig struct {
	AllowOrigins     []string `yaml:"allowOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	BusCapacity int    `yaml:"busCapacity"`
}

type MailConfig struct {
	Sender   string `yaml:"sender"`
	Secret   string `yaml:"secret"`
	FromName string `yaml:"fromName"`
	// SMTPHost and SMTPPort are derived from the sender's domain when empty.
	SMTPHost  string `yaml:"smtpHost"`
	SMTPPort  int    `yaml:"smtpPort"`
	SSL       bool   `yaml:"ssl"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

func (c MailConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c MailConfig) MailSender() model.MailSender {
	return model.MailSender{
		Address: c.Sender,
		Secret:  c.Secret,
		Name:    c.FromName,
		Host:    c.SMTPHost,
		Port:    c.SMTPPort,
		SSL:     c.SSL,
	}
}

type ShopifyConfig struct {
	ShopName   string `yaml:"shopName"`
	APIKey     string `yaml:"apiKey"`
	APISecret  string `yaml:"apiSecret"`
	APIVersion string `yaml:"apiVersion"`
	// BaseURL may contain a {shop} placeholder. Without one the shop name is ignored,
	// which is how the local mock is reached.
	BaseURL   string  `yaml:"baseURL"`
	TimeoutMs int     `yaml:"timeoutMs"`
	QPS       float64 `yaml:"qps"`
	Burst     int     `yaml:"burst"`
}

func (c ShopifyConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Credentials returns nil when any part is missing; the orchestrator reports that per request.
func (c ShopifyConfig) Credentials() *model.PlatformCredentials {
	creds := model.PlatformCredentials{
		APIKey:         c.APIKey,
		APISecret:      c.APISecret,
		ShopIdentifier: c.ShopName,
	}
	if !creds.Complete() {
		return nil
	}
	return &creds
}

// Load reads path (a missing file is fine), overlays the environment and applies defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, err
			}
		}
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&c.Server.Addr, "FULFILLER_ADDR")
	set(&c.Log.Level, "FULFILLER_LOG_LEVEL")
	set(&c.Mail.Sender, "SENDER_EMAIL")
	set(&c.Mail.Secret, "SENDER_PASSWORD")
	set(&c.Shopify.ShopName, "SHOPIFY_SHOP_NAME")
	set(&c.Shopify.APIKey, "SHOPIFY_API_KEY")
	set(&c.Shopify.APISecret, "SHOPIFY_PASSWORD")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.BusCapacity <= 0 {
		c.Log.BusCapacity = 200
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Support Team"
	}
	if c.Shopify.APIVersion == "" {
		c.Shopify.APIVersion = "2021-01"
	}
	if c.Shopify.BaseURL == "" {
		c.Shopify.BaseURL = "https://{shop}.myshopify.com"
	}
	if c.Shopify.QPS <= 0 {
		c.Shopify.QPS = 2
	}
	if c.Shopify.Burst <= 0 {
		c.Shopify.Burst = 4
	}
}

func (c Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Mail.SMTPPort < 0 || c.Mail.SMTPPort > 65535 {
		return errors.New("mail.smtpPort is out of range")
	}
	return nil
}
