package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const minAdminPasswordLen = 8

type Config struct {
	HTTPAddr  string        `mapstructure:"HTTP_ADDR"`
	DB_URL    string        `mapstructure:"DB_URL"`
	LogLevel  string        `mapstructure:"LOG_LEVEL"`
	Migrate   bool          `mapstructure:"DB_MIGRATE"`
	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	MaxUploadBytes int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	PriceAPIURL   string        `mapstructure:"PRICE_API_URL"`
	PriceCacheTTL time.Duration `mapstructure:"PRICE_CACHE_TTL"`
	SwapTolerance float64       `mapstructure:"SWAP_TOLERANCE"`
	OnlineWindow  time.Duration `mapstructure:"ONLINE_WINDOW"`

	// ip-api.com compatible lookup endpoint. Empty disables lookups.
	GeoIPURL string `mapstructure:"GEOIP_URL"`

	// Bitcoin network: mainnet, testnet3, regtest, signet.
	BTCNetwork     string `mapstructure:"BTC_NETWORK"`
	BTCDepositXPub string `mapstructure:"BTC_DEPOSIT_XPUB"`

	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	AdminChatID      int64  `mapstructure:"ADMIN_CHAT_ID"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("DB_MIGRATE", true)
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("UPLOAD_DIR", "storage")
	v.SetDefault("MAX_UPLOAD_BYTES", 2<<20)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("PRICE_API_URL", "https://api.binance.com/api/v3")
	v.SetDefault("PRICE_CACHE_TTL", 30*time.Second)
	v.SetDefault("SWAP_TOLERANCE", 0.02)
	v.SetDefault("ONLINE_WINDOW", 5*time.Minute)
	v.SetDefault("GEOIP_URL", "http://ip-api.com/json")
	v.SetDefault("BTC_NETWORK", "mainnet")

	// keys without a default are invisible to AutomaticEnv during Unmarshal
	for _, key := range []string{
		"DB_URL", "JWT_SECRET", "BTC_DEPOSIT_XPUB", "TELEGRAM_BOT_TOKEN",
		"ADMIN_CHAT_ID", "ADMIN_EMAIL", "ADMIN_PASSWORD",
	} {
		v.SetDefault(key, "")
	}
}

func LoadConfig(path string) (config Config, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return config, fmt.Errorf("failed to resolve config path: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(filepath.Dir(absPath))
	v.SetConfigName(filepath.Base(absPath))
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	if config.JWTSecret == "" {
		return config, errors.New("JWT_SECRET is required")
	}
	if config.AdminEmail != "" && len(config.AdminPassword) < minAdminPasswordLen {
		return config, fmt.Errorf("ADMIN_PASSWORD must have at least %d characters when ADMIN_EMAIL is set", minAdminPasswordLen)
	}

	return config, nil
}
