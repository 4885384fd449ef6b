// Package config provides configuration management for the support agent.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable read by Load.
const Prefix = "NEXUSLM"

// Config holds all application configuration. It is loaded once at startup
// and handed to each component's constructor; nothing mutates it afterwards.
type Config struct {
	AgentName     string  `envconfig:"AGENT_NAME" default:"customer_service_agent"`
	AgentModel    string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	AgentProvider string  `envconfig:"AGENT_PROVIDER" default:"ollama"`
	AgentURL      string  `envconfig:"AGENT_URL" default:"http://localhost:11434/api/chat"`
	APIKey        string  `envconfig:"API_KEY"`
	OpenAIBaseURL string  `envconfig:"OPENAI_BASE_URL"`
	ModelRate     float64 `envconfig:"MODEL_RATE" default:"1"`
	ModelBurst    int     `envconfig:"MODEL_BURST" default:"3"`

	CloudProject  string `envconfig:"CLOUD_PROJECT" default:"my_project"`
	CloudLocation string `envconfig:"CLOUD_LOCATION" default:"us-central1"`
	CloudZone     string `envconfig:"CLOUD_ZONE" default:"us-central1-a"`

	SMTPHost       string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SenderEmail    string `envconfig:"SENDER_EMAIL"`
	SenderPassword string `envconfig:"SENDER_PASSWORD"`
	MeetingBaseURL string `envconfig:"MEETING_BASE_URL" default:"https://meet.google.com"`

	HubSpotAPIKey  string `envconfig:"HUBSPOT_API_KEY"`
	HubSpotBaseURL string `envconfig:"HUBSPOT_BASE_URL" default:"https://api.hubapi.com"`

	TwilioAccountSID string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `envconfig:"TWILIO_FROM_NUMBER"`

	DatabaseDSN  string `envconfig:"DATABASE_DSN"`
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"nexuslm.interactions"`

	TelegramToken       string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	DefaultCustomerID   string        `envconfig:"DEFAULT_CUSTOMER_ID" default:"123"`
	SecurityCatalogFile string        `envconfig:"SECURITY_CATALOG_FILE"`
	CallTimeout         time.Duration `envconfig:"CALL_TIMEOUT" default:"30s"`

	LogDebug  bool `envconfig:"LOG_DEBUG" default:"false"`
	LogPretty bool `envconfig:"LOG_PRETTY" default:"false"`
}

// Load reads configuration from environment variables with sensible defaults.
// When envFile is set it must exist; otherwise a .env in the working
// directory is loaded if present. Variables already set in the process
// environment win over file values.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports configuration that no component could work with.
func (c *Config) Validate() error {
	if c.CallTimeout <= 0 {
		return fmt.Errorf("%s_CALL_TIMEOUT must be positive, got %s", Prefix, c.CallTimeout)
	}
	if c.CloudProject == "" {
		return fmt.Errorf("%s_CLOUD_PROJECT is required", Prefix)
	}
	if c.ModelRate <= 0 {
		return fmt.Errorf("%s_MODEL_RATE must be positive", Prefix)
	}
	switch c.AgentProvider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%s_AGENT_PROVIDER must be ollama or openai, got %q", Prefix, c.AgentProvider)
	}
	return nil
}

// SMTPAddr returns the host:port of the outbound mail relay.
func (c *Config) SMTPAddr() string {
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}

// MailConfigured reports whether outbound mail has credentials.
func (c *Config) MailConfigured() bool {
	return c.SenderEmail != "" && c.SenderPassword != ""
}

// SMSConfigured reports whether Twilio credentials are present.
func (c *Config) SMSConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}
