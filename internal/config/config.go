package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const EnvPrefix = "RADAR"

type Config struct {
	Scan      Scan      `mapstructure:"scan"`
	Sources   []Source  `mapstructure:"sources"`
	Exchange  Exchange  `mapstructure:"exchange"`
	Detector  Detector  `mapstructure:"detector"`
	Heartbeat Heartbeat `mapstructure:"heartbeat"`
	State     State     `mapstructure:"state"`
	Notify    Notify    `mapstructure:"notify"`
	LLM       LLM       `mapstructure:"llm"`
	Metrics   Metrics   `mapstructure:"metrics"`
	Log       Log       `mapstructure:"log"`
	Run       Run       `mapstructure:"run"`
}

type Scan struct {
	Mode        string        `mapstructure:"mode"`
	BatchSize   int           `mapstructure:"batch_size"`
	Concurrency int           `mapstructure:"concurrency"`
	BatchDelay  time.Duration `mapstructure:"batch_delay"`
	UniverseTTL time.Duration `mapstructure:"universe_ttl"`
	QuoteAsset  string        `mapstructure:"quote_asset"`
	Exclude     []string      `mapstructure:"exclude"`
}

type Source struct {
	Name   string `mapstructure:"name"`
	Weight int    `mapstructure:"weight"`
}

type Exchange struct {
	Binance      Binance       `mapstructure:"binance"`
	Okx          Okx           `mapstructure:"okx"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type Binance struct {
	ApiKey    string  `mapstructure:"api_key"`
	ApiSecret string  `mapstructure:"api_secret"`
	RPS       float64 `mapstructure:"rps"`
}

type Okx struct {
	BaseURL string  `mapstructure:"base_url"`
	RPS     float64 `mapstructure:"rps"`
}

type Detector struct {
	HourRatio           float64 `mapstructure:"hour_ratio"`
	HourMARatio         float64 `mapstructure:"hour_ma_ratio"`
	FourHourRatio       float64 `mapstructure:"four_hour_ratio"`
	FourHourMARatio     float64 `mapstructure:"four_hour_ma_ratio"`
	MAPeriod            int     `mapstructure:"ma_period"`
	CandleLimit         int     `mapstructure:"candle_limit"`
	MinDailyQuoteVolume float64 `mapstructure:"min_daily_quote_volume"`
	TurnoverAlert       float64 `mapstructure:"turnover_alert"`
	TurnoverHistoryDays int     `mapstructure:"turnover_history_days"`
}

type Heartbeat struct {
	Interval time.Duration `mapstructure:"interval"`
}

type State struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Redis  Redis  `mapstructure:"redis"`
}

type Redis struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type Notify struct {
	Drivers     []string   `mapstructure:"drivers"`
	ServerChan  ServerChan `mapstructure:"serverchan"`
	Telegram    Telegram   `mapstructure:"telegram"`
	Webhook     Webhook    `mapstructure:"webhook"`
	MaxRows     int        `mapstructure:"max_rows"`
	MaxLength   int        `mapstructure:"max_length"`
	TitlePrefix string     `mapstructure:"title_prefix"`
	Retries     uint64     `mapstructure:"retries"`
}

type ServerChan struct {
	Key     string `mapstructure:"key"`
	BaseURL string `mapstructure:"base_url"`
}

type Telegram struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type Webhook struct {
	URL string `mapstructure:"url"`
}

type LLM struct {
	Gemini Gemini `mapstructure:"gemini"`
}

type Gemini struct {
	Enabled bool     `mapstructure:"enabled"`
	ApiKey  []string `mapstructure:"api_key"`
	Model   string   `mapstructure:"model"`
}

type Metrics struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Job         string `mapstructure:"job"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Run struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	NotifyConsole    = "console"
	NotifyServerChan = "serverchan"
	NotifyTelegram   = "telegram"
	NotifyWebhook    = "webhook"

	SourceBinance = "binance"
	SourceOkx     = "okx"
)

func SetDefaults(v *viper.Viper) {
	v.SetDefault("scan.mode", "rotate")
	v.SetDefault("scan.batch_size", 40)
	v.SetDefault("scan.concurrency", 5)
	v.SetDefault("scan.batch_delay", 2*time.Second)
	v.SetDefault("scan.universe_ttl", 24*time.Hour)
	v.SetDefault("scan.quote_asset", "USDT")
	v.SetDefault("scan.exclude", []string{})

	v.SetDefault("sources", []map[string]any{
		{"name": SourceBinance, "weight": 1},
		{"name": SourceOkx, "weight": 1},
	})

	v.SetDefault("exchange.binance.api_key", "")
	v.SetDefault("exchange.binance.api_secret", "")
	v.SetDefault("exchange.binance.rps", 10)
	v.SetDefault("exchange.okx.base_url", "https://www.okx.com")
	v.SetDefault("exchange.okx.rps", 8)
	v.SetDefault("exchange.retry_backoff", time.Second)

	v.SetDefault("detector.hour_ratio", 10)
	v.SetDefault("detector.hour_ma_ratio", 10)
	v.SetDefault("detector.four_hour_ratio", 5)
	v.SetDefault("detector.four_hour_ma_ratio", 5)
	v.SetDefault("detector.ma_period", 20)
	v.SetDefault("detector.candle_limit", 30)
	v.SetDefault("detector.min_daily_quote_volume", 1_000_000)
	v.SetDefault("detector.turnover_alert", 100_000_000)
	v.SetDefault("detector.turnover_history_days", 7)

	v.SetDefault("heartbeat.interval", 4*time.Hour)

	v.SetDefault("state.driver", DriverSqlite)
	v.SetDefault("state.dsn", "data/radar.db")
	v.SetDefault("state.redis.addr", "localhost:6379")
	v.SetDefault("state.redis.password", "")
	v.SetDefault("state.redis.db", 0)
	v.SetDefault("state.redis.key_prefix", "radar")

	v.SetDefault("notify.drivers", []string{NotifyConsole})
	v.SetDefault("notify.serverchan.key", "")
	v.SetDefault("notify.serverchan.base_url", "")
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)
	v.SetDefault("notify.webhook.url", "")
	v.SetDefault("notify.max_rows", 10)
	v.SetDefault("notify.max_length", 30000)
	v.SetDefault("notify.title_prefix", "Radar")
	v.SetDefault("notify.retries", 2)

	v.SetDefault("llm.gemini.enabled", false)
	v.SetDefault("llm.gemini.api_key", []string{})
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")

	v.SetDefault("metrics.pushgateway", "")
	v.SetDefault("metrics.job", "volume_radar")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// 0 表示不限时, 由外部调度器负责杀掉卡住的进程
	v.SetDefault("run.timeout", time.Duration(0))
}

// NewViper 默认值 + 环境变量 (RADAR_SCAN_BATCH_SIZE 覆盖 scan.batch_size)
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容旧的 Server酱 环境变量
	_ = v.BindEnv("notify.serverchan.key", EnvPrefix+"_NOTIFY_SERVERCHAN_KEY", "SERVER_JIANG_KEY", "SERVERCHAN_SENDKEY")
	return v
}

// ReadFile 读取配置文件, 文件不存在时只用默认值
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv 加载 .env, 不存在时忽略
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Unmarshal(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Scan.Mode = strings.ToLower(cfg.Scan.Mode)
	cfg.State.Driver = strings.ToLower(cfg.State.Driver)
	cfg.Notify.Drivers = lo.Map(cfg.Notify.Drivers, func(item string, index int) string {
		return strings.ToLower(strings.TrimSpace(item))
	})
	return cfg, nil
}

// Load 依次读取 .env, 配置文件, 环境变量, 并校验
func Load(path string) (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	v := NewViper()
	if err := ReadFile(v, path); err != nil {
		return Config{}, err
	}
	cfg, err := Unmarshal(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Scan.Mode != "rotate" && c.Scan.Mode != "random" {
		errs = append(errs, fmt.Errorf("scan.mode must be rotate or random, got %q", c.Scan.Mode))
	}
	if c.Scan.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("scan.batch_size must be positive"))
	}
	if c.Scan.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("scan.concurrency must be positive"))
	}
	if c.Scan.BatchDelay < 0 || c.Scan.UniverseTTL < 0 {
		errs = append(errs, fmt.Errorf("scan durations must not be negative"))
	}

	if len(c.Sources) == 0 {
		errs = append(errs, fmt.Errorf("at least one source is required"))
	}
	for _, s := range c.Sources {
		if s.Name != SourceBinance && s.Name != SourceOkx {
			errs = append(errs, fmt.Errorf("unknown source %q", s.Name))
		}
		if s.Weight < 0 {
			errs = append(errs, fmt.Errorf("source %s weight must not be negative", s.Name))
		}
	}
	if len(c.Sources) > 0 && lo.SumBy(c.Sources, func(s Source) int { return s.Weight }) == 0 {
		errs = append(errs, fmt.Errorf("at least one source needs a positive weight"))
	}
	if dup := lo.FindDuplicatesBy(c.Sources, func(s Source) string { return s.Name }); len(dup) > 0 {
		errs = append(errs, fmt.Errorf("duplicate source %q", dup[0].Name))
	}

	d := c.Detector
	if d.HourRatio < 0 || d.HourMARatio < 0 || d.FourHourRatio < 0 || d.FourHourMARatio < 0 {
		errs = append(errs, fmt.Errorf("detector ratios must not be negative"))
	}
	if d.MAPeriod <= 0 {
		errs = append(errs, fmt.Errorf("detector.ma_period must be positive"))
	}
	if d.CandleLimit < d.MAPeriod+1 {
		errs = append(errs, fmt.Errorf("detector.candle_limit must be at least ma_period+1 (%d)", d.MAPeriod+1))
	}
	if d.MinDailyQuoteVolume < 0 || d.TurnoverAlert < 0 {
		errs = append(errs, fmt.Errorf("detector volumes must not be negative"))
	}

	if c.Heartbeat.Interval <= 0 {
		errs = append(errs, fmt.Errorf("heartbeat.interval must be positive"))
	}

	switch c.State.Driver {
	case DriverSqlite, DriverPostgres:
		if c.State.DSN == "" {
			errs = append(errs, fmt.Errorf("state.dsn is required for %s", c.State.Driver))
		}
	case DriverRedis:
		if c.State.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("state.redis.addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown state.driver %q", c.State.Driver))
	}

	for _, drv := range c.Notify.Drivers {
		switch drv {
		case NotifyConsole:
		case NotifyServerChan:
			if c.Notify.ServerChan.Key == "" {
				errs = append(errs, fmt.Errorf("notify.serverchan.key is required"))
			}
		case NotifyTelegram:
			if c.Notify.Telegram.Token == "" || c.Notify.Telegram.ChatID == 0 {
				errs = append(errs, fmt.Errorf("notify.telegram.token and chat_id are required"))
			}
		case NotifyWebhook:
			if c.Notify.Webhook.URL == "" {
				errs = append(errs, fmt.Errorf("notify.webhook.url is required"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown notify driver %q", drv))
		}
	}
	if c.Run.Timeout < 0 {
		errs = append(errs, fmt.Errorf("run.timeout must not be negative"))
	}
	if c.LLM.Gemini.Enabled && len(c.LLM.Gemini.ApiKey) == 0 {
		errs = append(errs, fmt.Errorf("llm.gemini.api_key is required when enabled"))
	}
	return errors.Join(errs...)
}

// SourceNames 按配置顺序
func (c Config) SourceNames() []string {
	return lo.Map(c.Sources, func(item Source, index int) string {
		return item.Name
	})
}
