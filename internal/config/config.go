package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig holds the relational database connection settings.
// Driver is "postgres" or "sqlite3"; sqlite uses Path, postgres the rest.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
	Path     string `mapstructure:"path"` // sqlite only
}

// RedisConfig holds redis connection settings for the optional run lock.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OpenAIConfig configures the text-generation API.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // optional, e.g. Azure endpoint
}

// WordPressConfig configures the CMS publishing client.
// AppPassword is an application password, not the account password.
type WordPressConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	Username      string `mapstructure:"username"`
	AppPassword   string `mapstructure:"app_password"`
	JWTToken      string `mapstructure:"jwt_token"` // alternative to basic auth
	PostStatus    string `mapstructure:"post_status"`
	Timeout       string `mapstructure:"timeout"`
	RetryAttempts int    `mapstructure:"retry_attempts"`
	RetryBackoff  string `mapstructure:"retry_backoff"`
}

// SendGridConfig holds SendGrid credentials.
type SendGridConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// GmailConfig holds Gmail SMTP credentials (app-specific password).
type GmailConfig struct {
	Email       string `mapstructure:"email"`
	AppPassword string `mapstructure:"app_password"`
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
}

// EmailConfig selects and configures the mail provider.
type EmailConfig struct {
	Provider  string         `mapstructure:"provider"` // sendgrid | gmail
	FromEmail string         `mapstructure:"from_email"`
	FromName  string         `mapstructure:"from_name"`
	SendGrid  SendGridConfig `mapstructure:"sendgrid"`
	Gmail     GmailConfig    `mapstructure:"gmail"`
}

// FeedsConfig lists the RSS sources and the fetch window.
type FeedsConfig struct {
	URLs        []string `mapstructure:"urls"`
	Lookback    string   `mapstructure:"lookback"` // duration, e.g. "24h"
	MaxArticles int      `mapstructure:"max_articles"`
	Timeout     string   `mapstructure:"timeout"`
}

// DailyConfig controls the daily pipeline.
type DailyConfig struct {
	Quota   int `mapstructure:"quota"`
	RunHour int `mapstructure:"run_hour"`
}

// WeeklyConfig controls the weekly pipeline.
type WeeklyConfig struct {
	TopN         int `mapstructure:"top_n"`
	LookbackDays int `mapstructure:"lookback_days"`
	RunWeekday   int `mapstructure:"run_weekday"` // 0=Sunday
	RunHour      int `mapstructure:"run_hour"`
}

// SiteConfig describes the public site used in emails, prompts and links.
type SiteConfig struct {
	Name       string   `mapstructure:"name"`
	BaseURL    string   `mapstructure:"base_url"`
	Audience   string   `mapstructure:"audience"`
	Categories []string `mapstructure:"categories"`
}

// ServerConfig configures the subscription web server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the top-level configuration structure.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	WordPress WordPressConfig `mapstructure:"wordpress"`
	Email     EmailConfig     `mapstructure:"email"`
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Daily     DailyConfig     `mapstructure:"daily"`
	Weekly    WeeklyConfig    `mapstructure:"weekly"`
	Site      SiteConfig      `mapstructure:"site"`
	Server    ServerConfig    `mapstructure:"server"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "require"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.WordPress.PostStatus == "" {
		c.WordPress.PostStatus = "draft"
	}
	if c.WordPress.Timeout == "" {
		c.WordPress.Timeout = "30s"
	}
	if c.WordPress.RetryAttempts == 0 {
		c.WordPress.RetryAttempts = 1
	}
	if c.WordPress.RetryBackoff == "" {
		c.WordPress.RetryBackoff = "5s"
	}
	if c.Email.Provider == "" {
		c.Email.Provider = "sendgrid"
	}
	if c.Email.Gmail.SMTPHost == "" {
		c.Email.Gmail.SMTPHost = "smtp.gmail.com"
	}
	if c.Email.Gmail.SMTPPort == 0 {
		c.Email.Gmail.SMTPPort = 587
	}
	if c.Feeds.Lookback == "" {
		c.Feeds.Lookback = "24h"
	}
	if c.Feeds.MaxArticles == 0 {
		c.Feeds.MaxArticles = 20
	}
	if c.Feeds.Timeout == "" {
		c.Feeds.Timeout = "20s"
	}
	if c.Daily.Quota == 0 {
		c.Daily.Quota = 5
	}
	if c.Daily.RunHour == 0 {
		c.Daily.RunHour = 9
	}
	if c.Weekly.TopN == 0 {
		c.Weekly.TopN = 5
	}
	if c.Weekly.LookbackDays == 0 {
		c.Weekly.LookbackDays = 7
	}
	if c.Weekly.RunHour == 0 {
		c.Weekly.RunHour = 10
	}
	if c.Site.Name == "" {
		c.Site.Name = "Tech Newsletter"
	}
	if c.Site.Audience == "" {
		c.Site.Audience = "software engineers and tech professionals"
	}
	if len(c.Site.Categories) == 0 {
		c.Site.Categories = []string{
			".NET Development",
			"Performance & Optimization",
			"Architecture & Patterns",
			"Cloud & DevOps",
		}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}
