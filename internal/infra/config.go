package infra

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Miminimi234/padd/internal/domain"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후 환경 변수로 모듈 ID와 RPC 주소를 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	// Cluster is informational: mainnet, devnet or localnet.
	Cluster string `yaml:"cluster"`

	Programs struct {
		Router string `yaml:"router"`
		Market string `yaml:"market"`
	} `yaml:"programs"`

	RPC struct {
		URL        string `yaml:"url"`
		TimeoutSec int    `yaml:"timeout_sec"`
		Commitment string `yaml:"commitment"`
		RateLimit  struct {
			Burst     int     `yaml:"burst"`
			PerSecond float64 `yaml:"per_second"`
		} `yaml:"rate_limit"`
		Breaker struct {
			FailureThreshold int `yaml:"failure_threshold"`
			SuccessThreshold int `yaml:"success_threshold"`
			CooldownSec      int `yaml:"cooldown_sec"`
		} `yaml:"breaker"`
	} `yaml:"rpc"`

	Order struct {
		HoldTTLMs   uint32 `yaml:"hold_ttl_ms"`
		CapTTLMs    uint32 `yaml:"cap_ttl_ms"`
		Nonce       string `yaml:"nonce"` // time | random
		BandBps     uint32 `yaml:"band_bps"`
		WarmupGuard bool   `yaml:"warmup_guard"`
	} `yaml:"order"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json | text
	} `yaml:"logging"`
}

// Environment overrides. They take precedence over the file.
const (
	EnvRouterID = "PADD_ROUTER_ID"
	EnvMarketID = "PADD_MARKET_ID"
	EnvRPCURL   = "PADD_RPC_URL"
)

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes yaml, applies defaults and env overrides, then
// validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = AppName
	}
	if c.RPC.TimeoutSec == 0 {
		c.RPC.TimeoutSec = 10
	}
	if c.RPC.Commitment == "" {
		c.RPC.Commitment = "confirmed"
	}
	if c.RPC.RateLimit.Burst == 0 {
		c.RPC.RateLimit.Burst = 5
	}
	if c.RPC.RateLimit.PerSecond == 0 {
		c.RPC.RateLimit.PerSecond = 10
	}
	if c.RPC.Breaker.FailureThreshold == 0 {
		c.RPC.Breaker.FailureThreshold = 5
	}
	if c.RPC.Breaker.SuccessThreshold == 0 {
		c.RPC.Breaker.SuccessThreshold = 2
	}
	if c.RPC.Breaker.CooldownSec == 0 {
		c.RPC.Breaker.CooldownSec = 30
	}
	if c.Order.HoldTTLMs == 0 {
		c.Order.HoldTTLMs = domain.MaxHoldTTLMs
	}
	if c.Order.CapTTLMs == 0 {
		c.Order.CapTTLMs = domain.MaxCapTTLMs
	}
	if c.Order.Nonce == "" {
		c.Order.Nonce = "time"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv(EnvRouterID); v != "" {
		cfg.Programs.Router = v
	}
	if v := os.Getenv(EnvMarketID); v != "" {
		cfg.Programs.Market = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.RPC.URL = v
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if _, err := c.ModulePrograms(); err != nil {
		return err
	}

	u, err := url.Parse(c.RPC.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid RPC URL: %q", c.RPC.URL)
	}
	if c.RPC.TimeoutSec < 0 {
		return fmt.Errorf("rpc timeout must not be negative")
	}
	if c.RPC.RateLimit.Burst < 1 || c.RPC.RateLimit.PerSecond <= 0 {
		return fmt.Errorf("rpc rate limit must allow at least one request")
	}
	if c.RPC.Breaker.FailureThreshold < 1 || c.RPC.Breaker.SuccessThreshold < 1 {
		return fmt.Errorf("breaker thresholds must be positive")
	}

	if c.Order.HoldTTLMs > domain.MaxHoldTTLMs {
		return fmt.Errorf("hold ttl %dms exceeds protocol max %dms", c.Order.HoldTTLMs, domain.MaxHoldTTLMs)
	}
	if c.Order.CapTTLMs > domain.MaxCapTTLMs {
		return fmt.Errorf("cap ttl %dms exceeds protocol max %dms", c.Order.CapTTLMs, domain.MaxCapTTLMs)
	}
	switch c.Order.Nonce {
	case "time", "random":
	default:
		return fmt.Errorf("unknown nonce source %q (want time or random)", c.Order.Nonce)
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// ModulePrograms parses the configured module ids.
func (c *Config) ModulePrograms() (domain.Programs, error) {
	router, err := domain.ParseAddress(c.Programs.Router)
	if err != nil {
		return domain.Programs{}, fmt.Errorf("invalid router program id: %w", err)
	}
	market, err := domain.ParseAddress(c.Programs.Market)
	if err != nil {
		return domain.Programs{}, fmt.Errorf("invalid market program id: %w", err)
	}
	if router == market {
		return domain.Programs{}, fmt.Errorf("router and market program ids must differ")
	}
	return domain.Programs{Router: router, Market: market}, nil
}
