package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN              string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  string
	ConnectAttempts  uint
	ConnectDelay     time.Duration
	ConnectMaxDelay  time.Duration
	ReconnectAttempt uint
}

type AuthConfig struct {
	AccessSecret string
}

type ClassifierConfig struct {
	ModelPath string
	// Zero defers to the model bundle's own threshold.
	ConfidenceThreshold float64
}

type QueryConfig struct {
	AliasesPath  string
	DefaultLimit int
	ScanLimit    int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Classifier  ClassifierConfig
	Query       QueryConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:              v.GetString("DB_DSN"),
			MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:  v.GetString("DB_CONN_MAX_LIFETIME"),
			ConnectAttempts:  v.GetUint("DB_CONNECT_ATTEMPTS"),
			ConnectDelay:     v.GetDuration("DB_CONNECT_DELAY"),
			ConnectMaxDelay:  v.GetDuration("DB_CONNECT_MAX_DELAY"),
			ReconnectAttempt: v.GetUint("DB_RECONNECT_ATTEMPTS"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Classifier: ClassifierConfig{
			ModelPath:           v.GetString("MODEL_PATH"),
			ConfidenceThreshold: v.GetFloat64("MODEL_CONFIDENCE_THRESHOLD"),
		},
		Query: QueryConfig{
			AliasesPath:  v.GetString("ALIASES_PATH"),
			DefaultLimit: v.GetInt("QUERY_DEFAULT_LIMIT"),
			ScanLimit:    v.GetInt("QUERY_SCAN_LIMIT"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 5000
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.DB.ConnectAttempts == 0 {
		cfg.DB.ConnectAttempts = 5
	}
	if cfg.DB.ConnectDelay <= 0 {
		cfg.DB.ConnectDelay = 5 * time.Second
	}
	if cfg.DB.ConnectMaxDelay <= 0 {
		cfg.DB.ConnectMaxDelay = time.Minute
	}
	if cfg.DB.ReconnectAttempt == 0 {
		cfg.DB.ReconnectAttempt = 1
	}
	if cfg.Classifier.ModelPath == "" {
		cfg.Classifier.ModelPath = "./models/intent_model.json"
	}
	if cfg.Query.DefaultLimit <= 0 {
		cfg.Query.DefaultLimit = 50
	}
	if cfg.Query.ScanLimit <= 0 {
		cfg.Query.ScanLimit = 100
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Classifier.ConfidenceThreshold < 0 || cfg.Classifier.ConfidenceThreshold > 1 {
		return fmt.Errorf("MODEL_CONFIDENCE_THRESHOLD must be within [0, 1]")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
