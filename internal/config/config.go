package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	DNS       DNSConfig
	Scheduler SchedulerConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdleConns   int
	MigrationsPath string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// DNSConfig holds both resolver tuning and the fixed record expectations
// of the mail platform. It is built once at startup and never mutated.
type DNSConfig struct {
	Nameservers  []string
	QueryTimeout time.Duration
	Retries      int
	MaxParallel  int
	CheckTimeout time.Duration

	// EmailDomain is the platform's mail domain, e.g. "inboxkit.com".
	// SPF and DKIM expectations are derived from it.
	EmailDomain string

	// VerificationPrefix is the key of the ownership TXT record,
	// producing values like "iv-verification=<token>".
	VerificationPrefix string
	// LegacyVerificationPrefixes are older ownership record keys that
	// stay valid for domains verified under a previous scheme.
	LegacyVerificationPrefixes []string

	MXTiers []MXTier

	DKIMPrefixes []string
	// LegacyDKIMTargets are CNAME targets that remain acceptable for
	// every DKIM prefix after a target host migration.
	LegacyDKIMTargets []string

	LegacySPFRecords   []string
	DMARCRecord        string
	LegacyDMARCRecords []string
}

// MXTier is one required MX priority and its expected target host.
type MXTier struct {
	Priority     uint16
	Host         string
	Alternatives []string
}

type SchedulerConfig struct {
	Enabled        bool
	Interval       time.Duration
	WorkerCount    int
	AlertThreshold int
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("DOMAINVERIFY")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("database.migrationspath", "migrations")
	viper.SetDefault("auth.tokenttl", "24h")
	viper.SetDefault("dns.querytimeout", "5s")
	viper.SetDefault("dns.retries", 2)
	viper.SetDefault("dns.maxparallel", 5)
	viper.SetDefault("dns.checktimeout", "30s")
	viper.SetDefault("dns.verificationprefix", "iv")
	viper.SetDefault("dns.dkimprefixes", []string{"dkim._domainkey", "dkim02._domainkey", "dkim03._domainkey"})
	viper.SetDefault("dns.dmarcrecord", "v=DMARC1; p=quarantine; pct=100; adkim=s; aspf=s")
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.interval", "6h")
	viper.SetDefault("scheduler.workercount", 5)
	viper.SetDefault("scheduler.alertthreshold", 5)
	viper.SetDefault("ratelimit.requestspersecond", 1)
	viper.SetDefault("ratelimit.burst", 5)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if domain := os.Getenv("EMAIL_DOMAIN"); domain != "" {
		cfg.DNS.EmailDomain = domain
	}

	if cfg.DNS.EmailDomain == "" {
		return nil, fmt.Errorf("dns.emaildomain is required")
	}

	// Default MX tiers if not configured
	if len(cfg.DNS.MXTiers) == 0 {
		cfg.DNS.MXTiers = []MXTier{
			{Priority: 10, Host: "mx1." + cfg.DNS.EmailDomain},
			{Priority: 20, Host: "mx2." + cfg.DNS.EmailDomain},
		}
	}

	return &cfg, nil
}
