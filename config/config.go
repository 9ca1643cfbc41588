// Package config provides YAML-based configuration loading for the
// BandSeeking server. A `.env` file, when present, is loaded into the
// environment first; BANDSEEKING_* variables override file values.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	MinTTLDays = 7
	MaxTTLDays = 100

	MinSessionQuota = 1
	MaxSessionQuota = 10
)

// Config is the top-level server configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	PidFile  string `yaml:"pid_file"`
	PprofDir string `yaml:"pprof_dir"`

	MysqlDSN string `yaml:"mysql_dsn"`

	Kafka KafkaConfig `yaml:"kafka"`
	Blob  BlobConfig  `yaml:"blob"`

	SessionQuota int `yaml:"session_quota"`

	MessageTTLDays int  `yaml:"message_ttl_days"`
	CleanMessages  bool `yaml:"clean_messages"`

	DisableMetrics bool `yaml:"disable_metrics"`
}

// KafkaConfig holds the moderation pipeline settings. An empty broker
// list disables the pipeline.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// BlobConfig holds avatar upload storage settings.
type BlobConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// Load reads the optional .env file, then the YAML config at path
// (empty path means defaults only), then applies environment overrides
// and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse unmarshals YAML bytes into a validated Config. For tests.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BANDSEEKING_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("BANDSEEKING_MYSQL_DSN"); v != "" {
		c.MysqlDSN = v
	}
	if v := os.Getenv("BANDSEEKING_KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8000"
	}
	if c.PidFile == "" {
		c.PidFile = "bandseeking.pid"
	}
	if c.PprofDir == "" {
		c.PprofDir = "pprof"
	}
	if c.MysqlDSN == "" {
		c.MysqlDSN = "root:@tcp(127.0.0.1:3306)/bandseeking?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "bandseeking-notices"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "bandseeking"
	}
	if c.SessionQuota == 0 {
		c.SessionQuota = 5
	}
	if c.MessageTTLDays == 0 {
		c.MessageTTLDays = 30
	}
	if c.Blob.BaseURL == "" && c.Blob.Dir != "" {
		c.Blob.BaseURL = "/static"
	}
}

func (c *Config) validate() error {
	var errs []string

	if err := validateAddr(c.Addr); err != nil {
		errs = append(errs, fmt.Sprintf("addr: %v", err))
	}
	if c.SessionQuota < MinSessionQuota || c.SessionQuota > MaxSessionQuota {
		errs = append(errs, fmt.Sprintf("session_quota: expect in range [%d, %d]", MinSessionQuota, MaxSessionQuota))
	}
	if c.CleanMessages && (c.MessageTTLDays < MinTTLDays || c.MessageTTLDays > MaxTTLDays) {
		errs = append(errs, fmt.Sprintf("message_ttl_days: expect in range [%d, %d]", MinTTLDays, MaxTTLDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAddr(s string) error {
	ips, _, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("error split host port from `%s`: %v", s, err)
	}
	if ips == "" {
		return nil // all interfaces
	}
	if net.ParseIP(ips) == nil {
		return fmt.Errorf("error parse IP from host `%s`", ips)
	}
	return nil
}

// NotifyEnabled reports whether the kafka pipeline is configured.
func (c *Config) NotifyEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}
