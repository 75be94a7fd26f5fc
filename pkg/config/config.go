package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"ChallengeArena/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port              int           `yaml:"port" default:"8000"`
		ReadTimeout       time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout      time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" default:"15s"`
		BroadcastInterval time.Duration `yaml:"broadcast_interval" default:"3s"`
		RateLimit         struct {
			Enabled bool    `yaml:"enabled" default:"true"`
			RPS     float64 `yaml:"rps" default:"20"`
			Burst   int     `yaml:"burst" default:"40"`
		} `yaml:"rate_limit"`
		AdminToken string `yaml:"admin_token"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
		// error-log aggregation shipped to Kafka
		Collect       bool          `yaml:"collect"`
		Topic         string        `yaml:"topic" default:"arena.logs"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
		FlushCount    int           `yaml:"flush_count" default:"100"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Market struct {
		Source          string        `yaml:"source" default:"yahoo"` // yahoo | simulated
		Tickers         []string      `yaml:"tickers"`
		Suffix          string        `yaml:"suffix" default:".SR"`
		BaseURL         string        `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		RefreshInterval time.Duration `yaml:"refresh_interval" default:"10s"`
		FetchTimeout    time.Duration `yaml:"fetch_timeout" default:"5s"`
		Cache           string        `yaml:"cache" default:"memory"` // memory | redis | layered | none
		CacheTTL        time.Duration `yaml:"cache_ttl" default:"60s"`
		RateLimit       float64       `yaml:"rate_limit" default:"5"`
		RateBurst       int           `yaml:"rate_burst" default:"5"`
	} `yaml:"market"`
	Challenge struct {
		TradingDays int      `yaml:"trading_days" default:"5"`
		Weekend     []string `yaml:"weekend"`
		CapitalBase float64  `yaml:"capital_base" default:"100000"`
		Rollover    string   `yaml:"rollover" default:"0 0 10 * * SUN"`
		AutoStart   bool     `yaml:"auto_start" default:"true"`
	} `yaml:"challenge"`
	Engine struct {
		DecisionInterval time.Duration      `yaml:"decision_interval" default:"3s"`
		PnLMin           float64            `yaml:"pnl_min" default:"-500"`
		PnLMax           float64            `yaml:"pnl_max" default:"1000"`
		AuditRejectProb  float64            `yaml:"audit_reject_prob" default:"0.1"`
		PriceTolerance   float64            `yaml:"price_tolerance" default:"0.05"`
		Seed             uint64             `yaml:"seed"`
		Emission         map[string]float64 `yaml:"emission"`
	} `yaml:"engine"`
	Ledger struct {
		SignalCapacity  int `yaml:"signal_capacity" default:"100"`
		VerdictCapacity int `yaml:"verdict_capacity" default:"50"`
	} `yaml:"ledger"`
	Archive struct {
		Backend    string        `yaml:"backend" default:"none"` // kafka | clickhouse | sqlite | none
		BufferSize int           `yaml:"buffer_size" default:"1000"`
		BatchSize  int           `yaml:"batch_size" default:"100"`
		RetryMax   int           `yaml:"retry_max" default:"5"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
		Consume    bool          `yaml:"consume"` // run the Kafka->ClickHouse consumer in this process
	} `yaml:"archive"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"arena.verdicts"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"200ms"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"arena-archive"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"arena.verdicts.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"arena"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		Compress         bool          `yaml:"compress" default:"true"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	SQLite struct {
		Path string `yaml:"path" default:"data/arena.db"`
	} `yaml:"sqlite"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"arena"`
	} `yaml:"redis"`
	Notifier struct {
		Provider  string        `yaml:"provider" default:"none"`  // onesignal | telegram | none
		Delivery  string        `yaml:"delivery" default:"async"` // async | queue
		Retries   int           `yaml:"retries" default:"3"`
		Backoff   time.Duration `yaml:"backoff" default:"500ms"`
		Timeout   time.Duration `yaml:"timeout" default:"10s"`
		Workers   int           `yaml:"workers" default:"2"`
		OneSignal struct {
			URL    string `yaml:"url" default:"https://onesignal.com/api/v1/notifications"`
			AppID  string `yaml:"app_id"`
			APIKey string `yaml:"api_key"`
		} `yaml:"onesignal"`
		Telegram struct {
			BaseURL string `yaml:"base_url" default:"https://api.telegram.org"`
			Token   string `yaml:"token"`
			ChatID  string `yaml:"chat_id"`
		} `yaml:"telegram"`
	} `yaml:"notifier"`
}

// Load reads a YAML file over the struct defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(c.Challenge.Weekend) == 0 {
		c.Challenge.Weekend = []string{"friday", "saturday"}
	}
	return &c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("ARENA_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("ARENA_TICKERS"); v != "" {
		c.Market.Tickers = util.SplitCSV(v)
	}
	c.Server.Port = util.ParseIntDefault(getenv("ARENA_PORT"), c.Server.Port)
	if v := getenv("ARENA_ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := getenv("ARENA_ADMIN_TOKEN"); v != "" {
		c.Server.AdminToken = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if p, err := strconv.Atoi(port); ok && err == nil {
			c.Redis.Port = p
		}
		c.Redis.Enabled = true
	}
	if v := getenv("ONESIGNAL_APP_ID"); v != "" {
		c.Notifier.OneSignal.AppID = v
	}
	if v := getenv("ONESIGNAL_REST_API_KEY"); v != "" {
		c.Notifier.OneSignal.APIKey = v
	}
	if v := getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Notifier.Telegram.Token = v
	}
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Notifier.Telegram.ChatID = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Market.Tickers) == 0 {
		return fmt.Errorf("market.tickers cannot be empty")
	}
	if !slices.Contains([]string{"yahoo", "simulated"}, c.Market.Source) {
		return fmt.Errorf("market.source must be 'yahoo' or 'simulated', got '%s'", c.Market.Source)
	}
	if !slices.Contains([]string{"memory", "redis", "layered", "none"}, c.Market.Cache) {
		return fmt.Errorf("market.cache must be memory, redis, layered or none, got '%s'", c.Market.Cache)
	}
	if (c.Market.Cache == "redis" || c.Market.Cache == "layered") && !c.Redis.Enabled {
		return fmt.Errorf("market.cache=%s requires redis.enabled", c.Market.Cache)
	}
	if c.Engine.PnLMin >= c.Engine.PnLMax {
		return fmt.Errorf("engine.pnl_min must be below engine.pnl_max")
	}
	if c.Engine.AuditRejectProb < 0 || c.Engine.AuditRejectProb > 1 {
		return fmt.Errorf("engine.audit_reject_prob must be within [0,1]")
	}
	if c.Engine.PriceTolerance <= 0 {
		return fmt.Errorf("engine.price_tolerance must be positive")
	}
	if c.Ledger.SignalCapacity <= 0 || c.Ledger.VerdictCapacity <= 0 {
		return fmt.Errorf("ledger capacities must be positive")
	}

	switch c.Archive.Backend {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("archive.backend=kafka requires kafka.brokers")
		}
	case "clickhouse", "sqlite", "none":
	default:
		return fmt.Errorf("archive.backend must be kafka, clickhouse, sqlite or none, got '%s'", c.Archive.Backend)
	}
	if c.Archive.Consume && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("archive.consume requires kafka.brokers")
	}
	if c.Log.Collect && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("log.collect requires kafka.brokers")
	}

	switch c.Notifier.Provider {
	case "onesignal":
		if c.Notifier.OneSignal.AppID == "" || c.Notifier.OneSignal.APIKey == "" {
			return fmt.Errorf("notifier onesignal requires app_id and api_key")
		}
	case "telegram":
		if c.Notifier.Telegram.Token == "" || c.Notifier.Telegram.ChatID == "" {
			return fmt.Errorf("notifier telegram requires token and chat_id")
		}
	case "none":
	default:
		return fmt.Errorf("notifier.provider must be onesignal, telegram or none, got '%s'", c.Notifier.Provider)
	}
	if c.Notifier.Delivery == "queue" && !c.Redis.Enabled {
		return fmt.Errorf("notifier.delivery=queue requires redis.enabled")
	}
	return nil
}
