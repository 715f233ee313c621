package config

import (
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpPort              int           `yaml:"http_port"`
	JwtTTL                time.Duration `yaml:"jwt_ttl"`
	LoginTokenTTL         time.Duration `yaml:"login_token_ttl"`
	DeleteTokenTTL        time.Duration `yaml:"delete_token_ttl"`
	PostingLifetimeDays   int           `yaml:"posting_lifetime_days"` // default expiry window for new postings
	AutoApprovePostings   bool          `yaml:"auto_approve_postings"`
	AllowedEmailDomains   []string      `yaml:"allowed_email_domains"`
	SweepInterval         time.Duration `yaml:"sweep_interval"`
	CaptchaOffline        bool          `yaml:"captcha_offline"` // skip captcha verification in restricted environments
	CorsAllowedOrigins    []string      `yaml:"cors_allowed_origins"`
	SecureCookies         bool          `yaml:"secure_cookies"`
	LogLevel              string        `yaml:"log_level"`
	LogJSON               bool          `yaml:"log_json"`
	MaxContactMessageLen  int           `yaml:"max_contact_message_len"`
	MaxPostingDescription int           `yaml:"max_posting_description_len"`
}

type Private struct {
	Pg            Pg     `yaml:"pg"`
	JwtKey        string `yaml:"jwt_key"`
	Email         Email  `yaml:"email"`
	CaptchaSecret string `yaml:"captcha_secret"`
	BaseURL       string `yaml:"base_url"` // prefix for emailed token links
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout"` // seconds
	Disabled   bool   `yaml:"disabled"`
}

// implementing service.Config interface

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	return cfg
}

func (s *Config) applyDefaults() {
	if s.Public.LoginTokenTTL == 0 {
		s.Public.LoginTokenTTL = 24 * time.Hour
	}
	if s.Public.DeleteTokenTTL == 0 {
		s.Public.DeleteTokenTTL = time.Hour
	}
	if s.Public.PostingLifetimeDays == 0 {
		s.Public.PostingLifetimeDays = 30
	}
	if s.Public.MaxContactMessageLen == 0 {
		s.Public.MaxContactMessageLen = 5000
	}
	if s.Public.MaxPostingDescription == 0 {
		s.Public.MaxPostingDescription = 20000
	}
}
