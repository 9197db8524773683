// Copyright 2024-2026 Aiku AI

package connector

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mattermost/mattermost/server/public/model"
	up "go.mau.fi/util/configupgrade"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"

	"github.com/aiku/mattermost-onboarding-bot/pkg/bot"
	"github.com/aiku/mattermost-onboarding-bot/pkg/provisioning"
)

//go:embed example-config.yaml
var ExampleConfig string

const (
	StrategyHTTP       = "http"
	StrategyMattermost = "mattermost"

	defaultListenAddress = ":29320"
	defaultQueueSize     = 64
	defaultMaxBodySize   = 1 << 20
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the whole bot configuration file.
type Config struct {
	Mattermost   MattermostConfig   `yaml:"mattermost"`
	Webhooks     WebhookConfig      `yaml:"webhooks"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Feed         FeedConfig         `yaml:"feed"`
	Logging      zeroconfig.Config  `yaml:"logging"`
}

type MattermostConfig struct {
	ServerURL string `yaml:"server_url"`
	BotToken  string `yaml:"bot_token"`
	// DisplaynameTemplate renders the name used in welcome messages. When
	// empty, the user's nickname or full name is used.
	DisplaynameTemplate string `yaml:"displayname_template"`

	displaynameTemplate *template.Template `yaml:"-"`
}

type WebhookConfig struct {
	ListenAddress string `yaml:"listen_address"`
	// PublicURL is how the Mattermost server reaches the webhook listener.
	// Dialog submissions are posted to PublicURL + /hooks/dialog.
	PublicURL     string   `yaml:"public_url"`
	CommandTokens []string `yaml:"command_tokens"`
	MaxBodySize   int64    `yaml:"max_body_size"`
}

type ProvisioningConfig struct {
	Strategy       string   `yaml:"strategy"`
	BaseURL        string   `yaml:"base_url"`
	CreatePath     string   `yaml:"create_path"`
	SessionToken   string   `yaml:"session_token"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	RequiredFields []string `yaml:"required_fields"`
}

// Timeout is the bound of one creation call.
func (pc *ProvisioningConfig) Timeout() time.Duration {
	return time.Duration(pc.TimeoutSeconds) * time.Second
}

type FeedConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// DisplaynameParams holds the parameters for rendering the displayname template.
type DisplaynameParams struct {
	Username  string
	Nickname  string
	FirstName string
	LastName  string
}

// envOverrides are secrets and endpoints that may come from the environment
// instead of the config file.
type envOverrides struct {
	ServerURL     string   `env:"MATTERMOST_SERVER_URL"`
	BotToken      string   `env:"MATTERMOST_BOT_TOKEN"`
	CommandTokens []string `env:"MATTERMOST_COMMAND_TOKENS" envSeparator:","`
	BaseURL       string   `env:"PROVISIONING_BASE_URL"`
	SessionToken  string   `env:"PROVISIONING_SESSION_TOKEN"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// ApplyEnv overrides config values with the non-empty environment
// variables. A nil environment means the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	var overrides envOverrides
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&overrides, opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	if overrides.ServerURL != "" {
		c.Mattermost.ServerURL = overrides.ServerURL
	}
	if overrides.BotToken != "" {
		c.Mattermost.BotToken = overrides.BotToken
	}
	if len(overrides.CommandTokens) > 0 {
		c.Webhooks.CommandTokens = overrides.CommandTokens
	}
	if overrides.BaseURL != "" {
		c.Provisioning.BaseURL = overrides.BaseURL
	}
	if overrides.SessionToken != "" {
		c.Provisioning.SessionToken = overrides.SessionToken
	}
	return nil
}

// PostProcess fills defaults and validates the config.
func (c *Config) PostProcess() error {
	var err error
	c.Mattermost.ServerURL = strings.TrimRight(c.Mattermost.ServerURL, "/")
	if c.Mattermost.ServerURL == "" {
		return fmt.Errorf("%w: mattermost.server_url is required", ErrInvalidConfig)
	}
	if c.Mattermost.DisplaynameTemplate != "" {
		c.Mattermost.displaynameTemplate, err = template.New("displayname").Parse(c.Mattermost.DisplaynameTemplate)
		if err != nil {
			return fmt.Errorf("%w: displayname_template: %w", ErrInvalidConfig, err)
		}
	}

	if c.Webhooks.ListenAddress == "" {
		c.Webhooks.ListenAddress = defaultListenAddress
	}
	if c.Webhooks.MaxBodySize <= 0 {
		c.Webhooks.MaxBodySize = defaultMaxBodySize
	}
	c.Webhooks.PublicURL = strings.TrimRight(c.Webhooks.PublicURL, "/")

	switch c.Provisioning.Strategy {
	case "":
		c.Provisioning.Strategy = StrategyHTTP
		fallthrough
	case StrategyHTTP:
		if c.Provisioning.BaseURL == "" {
			return fmt.Errorf("%w: provisioning.base_url is required for the http strategy", ErrInvalidConfig)
		}
		if c.Provisioning.CreatePath == "" {
			c.Provisioning.CreatePath = provisioning.DefaultCreatePath
		}
	case StrategyMattermost:
	default:
		return fmt.Errorf("%w: unknown provisioning.strategy %q", ErrInvalidConfig, c.Provisioning.Strategy)
	}
	if c.Provisioning.TimeoutSeconds <= 0 {
		c.Provisioning.TimeoutSeconds = int(provisioning.DefaultTimeout / time.Second)
	}
	if len(c.Provisioning.RequiredFields) == 0 {
		c.Provisioning.RequiredFields = bot.DefaultRequiredFields
	}

	if c.Feed.QueueSize <= 0 {
		c.Feed.QueueSize = defaultQueueSize
	}
	return nil
}

func upgradeConfig(helper up.Helper) {
	helper.Copy(up.Str, "mattermost", "server_url")
	helper.Copy(up.Str, "mattermost", "bot_token")
	helper.Copy(up.Str, "mattermost", "displayname_template")

	helper.Copy(up.Str, "webhooks", "listen_address")
	helper.Copy(up.Str, "webhooks", "public_url")
	helper.Copy(up.List, "webhooks", "command_tokens")
	helper.Copy(up.Int, "webhooks", "max_body_size")

	helper.Copy(up.Str, "provisioning", "strategy")
	helper.Copy(up.Str, "provisioning", "base_url")
	helper.Copy(up.Str, "provisioning", "create_path")
	helper.Copy(up.Str, "provisioning", "session_token")
	helper.Copy(up.Int, "provisioning", "timeout_seconds")
	helper.Copy(up.List, "provisioning", "required_fields")

	helper.Copy(up.Int, "feed", "queue_size")

	helper.Copy(up.Map, "logging")
}

// ConfigUpgrader merges an existing config file into the example config.
func ConfigUpgrader() *up.StructUpgrader {
	return &up.StructUpgrader{
		SimpleUpgrader: up.SimpleUpgrader(upgradeConfig),
		Blocks: [][]string{
			{"webhooks"},
			{"provisioning"},
			{"feed"},
			{"logging"},
		},
		Base: ExampleConfig,
	}
}

// LoadConfig reads and upgrades the config file, applies environment
// overrides and post-processes the result. With save, the upgraded file is
// written back.
func LoadConfig(path string, save bool) (*Config, error) {
	data, _, err := up.Do(path, save, ConfigUpgrader())
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade config: %w", err)
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err = cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err = cfg.PostProcess(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FormatDisplayname generates a display name from the template and params.
func (c *MattermostConfig) FormatDisplayname(params DisplaynameParams) string {
	if c.displaynameTemplate == nil {
		return params.Username
	}
	var buf strings.Builder
	if err := c.displaynameTemplate.Execute(&buf, params); err != nil {
		return params.Username
	}
	if name := strings.TrimSpace(buf.String()); name != "" {
		return name
	}
	return params.Username
}

// UserDisplayname returns the name used to greet user.
func (c *MattermostConfig) UserDisplayname(user *model.User) string {
	if c.displaynameTemplate == nil {
		return user.GetDisplayName(model.ShowNicknameFullName)
	}
	return c.FormatDisplayname(DisplaynameParams{
		Username:  user.Username,
		Nickname:  user.Nickname,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}
