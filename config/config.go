package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type IMAPConfig struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Mailbox  string `yaml:"mailbox"`
}

type AgentConfig struct {
	URL string `yaml:"url"`
}

type PriorityConfig struct {
	// Strategy selects the classifier: "rules" or "agent".
	Strategy string `yaml:"strategy"`
	// PaceInterval is the minimum spacing between agent calls during a
	// batch. Ignored by the rules strategy.
	PaceInterval time.Duration `yaml:"pace_interval"`
}

type SyncConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Window      time.Duration `yaml:"window"`
	Parallelism int           `yaml:"parallelism"`
}

type AssignConfig struct {
	// Policy is "owner" (assign to the message's user) or "admin"
	// (assign to AdminEmail).
	Policy     string `yaml:"policy"`
	AdminEmail string `yaml:"admin_email"`
}

type ServerConfig struct {
	MetricsPort string `yaml:"metrics_port"`
}

type Config struct {
	DB       DBConfig       `yaml:"db"`
	MQ       MQConfig       `yaml:"mq"`
	Redis    RedisConfig    `yaml:"redis"`
	IMAP     IMAPConfig     `yaml:"imap"`
	Agent    AgentConfig    `yaml:"agent"`
	Priority PriorityConfig `yaml:"priority"`
	Sync     SyncConfig     `yaml:"sync"`
	Assign   AssignConfig   `yaml:"assign"`
	Server   ServerConfig   `yaml:"server"`
}

func Load() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode %s: %v", path, err)
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Priority.Strategy == "" {
		cfg.Priority.Strategy = "rules"
	}
	if cfg.Priority.PaceInterval == 0 {
		cfg.Priority.PaceInterval = 2 * time.Second
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 2 * time.Minute
	}
	if cfg.Sync.Window == 0 {
		cfg.Sync.Window = 72 * time.Hour
	}
	if cfg.Sync.Parallelism == 0 {
		cfg.Sync.Parallelism = 4
	}
	if cfg.Assign.Policy == "" {
		cfg.Assign.Policy = "owner"
	}
	if cfg.IMAP.Mailbox == "" {
		cfg.IMAP.Mailbox = "INBOX"
	}
	if cfg.Server.MetricsPort == "" {
		cfg.Server.MetricsPort = "9090"
	}
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if server := os.Getenv("IMAP_SERVER"); server != "" {
		cfg.IMAP.Server = server
	}
	if user := os.Getenv("IMAP_USERNAME"); user != "" {
		cfg.IMAP.Username = user
	}
	if password := os.Getenv("IMAP_PASSWORD"); password != "" {
		cfg.IMAP.Password = password
	}

	if url := os.Getenv("AGENT_URL"); url != "" {
		cfg.Agent.URL = url
	}
	if strategy := os.Getenv("PRIORITY_STRATEGY"); strategy != "" {
		cfg.Priority.Strategy = strategy
	}

	if port := os.Getenv("METRICS_PORT"); port != "" {
		cfg.Server.MetricsPort = port
	}
}
