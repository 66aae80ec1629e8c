// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port          string `mapstructure:"PORT"`
	Env           string `mapstructure:"APP_ENV"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	// AdminPolicy selects who may create posts and who the admin is:
	// "first-user" makes the earliest registered account the sole admin
	// and the only author; "authors" lets any logged-in user publish and
	// manage their own posts, with the first account still acting as admin.
	AdminPolicy string `mapstructure:"ADMIN_POLICY"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisURL string `mapstructure:"REDIS_URL"`

	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPPort         int    `mapstructure:"SMTP_PORT"`
	SMTPUser         string `mapstructure:"SMTP_USER"`
	SMTPPassword     string `mapstructure:"SMTP_PASSWORD"`
	MailFrom         string `mapstructure:"MAIL_FROM"`
	ContactRecipient string `mapstructure:"CONTACT_RECIPIENT"`

	// Allow-list for user-authored rich text. AllowedAttributes supports a
	// "*" key whose attributes are permitted on every allowed tag.
	AllowedTags       []string            `mapstructure:"allowed_tags"`
	AllowedAttributes map[string][]string `mapstructure:"allowed_attributes"`

	TemplateDir string `mapstructure:"TEMPLATE_DIR"`
}

const (
	// PolicyFirstUser restricts publishing to the admin account.
	PolicyFirstUser = "first-user"
	// PolicyAuthors lets every registered user publish.
	PolicyAuthors = "authors"
)

const defaultSessionSecret = "change-this-session-secret-in-production"

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config.
	// The config file may legitimately not exist (env-only deployments).
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("PORT", "8275")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SESSION_SECRET", defaultSessionSecret)
	viper.SetDefault("ADMIN_POLICY", PolicyFirstUser)
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "blobby")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "blobby.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("MAIL_FROM", "")
	viper.SetDefault("CONTACT_RECIPIENT", "")
	viper.SetDefault("TEMPLATE_DIR", "./web/templates")
	viper.SetDefault("allowed_tags", DefaultAllowedTags())
	viper.SetDefault("allowed_attributes", DefaultAllowedAttributes())

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultAllowedTags is the tag allow-list for post and comment bodies
// produced by the rich text editor.
func DefaultAllowedTags() []string {
	return []string{
		"p", "br", "hr", "div", "span",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li",
		"b", "i", "strong", "em", "u", "s", "del", "sub", "sup", "small", "mark",
		"blockquote", "pre", "code",
		"a", "img",
		"table", "thead", "tbody", "tr", "th", "td",
	}
}

// DefaultAllowedAttributes is the per-tag attribute allow-list. The "*"
// key applies to every allowed tag.
func DefaultAllowedAttributes() map[string][]string {
	return map[string][]string{
		"*":   {"class"},
		"a":   {"href", "title", "rel"},
		"img": {"src", "alt", "width", "height"},
	}
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.AdminPolicy != PolicyFirstUser && c.AdminPolicy != PolicyAuthors {
		return fmt.Errorf("ADMIN_POLICY must be %q or %q", PolicyFirstUser, PolicyAuthors)
	}
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return errors.New("DB_DRIVER must be 'sqlite' or 'postgres'")
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.SMTPHost != "" && (c.SMTPUser == "" || c.SMTPPassword == "") {
			return errors.New("SMTP_USER and SMTP_PASSWORD are required when SMTP_HOST is set in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	} else {
		if len(c.SessionSecret) < 32 {
			log.Println("WARNING: SESSION_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
		}
	}

	return nil
}
