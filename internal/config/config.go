package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Execution backends.
const (
	BackendJudge0 = "judge0"
	BackendDocker = "docker"
)

// Config holds runtime configuration values for the autograder.
type Config struct {
	AppName  string
	AppEnv   string
	AppPort  string
	LogLevel zerolog.Level

	DatabaseURL  string
	RedisURL     string
	NATSURL      string
	JWTSecret    string
	AllowOrigins string
	BulkTTL      time.Duration

	ExecutionBackend   string
	Judge0URL          string
	Judge0APIKey       string
	Judge0RapidAPIHost string
	Judge0PollInterval time.Duration
	Judge0MaxPolls     int
	CPUTimeLimit       float64
	MemoryLimitKB      int

	DockerHost       string
	ExecutionTimeout time.Duration
	CodeRunMemoryMB  int
	CodeRunCPUShares int

	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIMaxTokens int

	CorrectnessPolicy string
	GradeRateLimit    int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AUTOGRADER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Autograder API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("allow_origins", "*")
	v.SetDefault("bulk.ttl", "24h")
	v.SetDefault("execution.backend", BackendJudge0)
	v.SetDefault("judge0.poll_interval", "1s")
	v.SetDefault("judge0.max_polls", 10)
	v.SetDefault("cpu_time_limit", 5.0)
	v.SetDefault("memory_limit_kb", 128000)
	v.SetDefault("execution.timeout_ms", 5000)
	v.SetDefault("code_run.memory_mb", 256)
	v.SetDefault("code_run.cpu_shares", 512)
	v.SetDefault("openai.max_tokens", 1024)
	v.SetDefault("correctness.policy", "ai")
	v.SetDefault("grade.rate_limit", 30)

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("log.level")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	pollInterval, err := time.ParseDuration(v.GetString("judge0.poll_interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid judge0 poll interval: %w", err)
	}

	bulkTTL, err := time.ParseDuration(v.GetString("bulk.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid bulk ttl: %w", err)
	}

	timeoutMs := v.GetInt("execution.timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		LogLevel:           level,
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		AllowOrigins:       v.GetString("allow_origins"),
		BulkTTL:            bulkTTL,
		ExecutionBackend:   strings.ToLower(strings.TrimSpace(v.GetString("execution.backend"))),
		Judge0URL:          v.GetString("judge0.url"),
		Judge0APIKey:       v.GetString("judge0.api_key"),
		Judge0RapidAPIHost: v.GetString("judge0.rapidapi_host"),
		Judge0PollInterval: pollInterval,
		Judge0MaxPolls:     v.GetInt("judge0.max_polls"),
		CPUTimeLimit:       v.GetFloat64("cpu_time_limit"),
		MemoryLimitKB:      v.GetInt("memory_limit_kb"),
		DockerHost:         v.GetString("docker.host"),
		ExecutionTimeout:   time.Duration(timeoutMs) * time.Millisecond,
		CodeRunMemoryMB:    v.GetInt("code_run.memory_mb"),
		CodeRunCPUShares:   v.GetInt("code_run.cpu_shares"),
		OpenAIAPIKey:       v.GetString("openai.api_key"),
		OpenAIBaseURL:      v.GetString("openai.base_url"),
		OpenAIModel:        v.GetString("openai.model"),
		OpenAIMaxTokens:    v.GetInt("openai.max_tokens"),
		CorrectnessPolicy:  strings.ToLower(strings.TrimSpace(v.GetString("correctness.policy"))),
		GradeRateLimit:     v.GetInt("grade.rate_limit"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ExecutionBackend {
	case BackendJudge0:
		if strings.TrimSpace(c.Judge0URL) == "" {
			return fmt.Errorf("AUTOGRADER_JUDGE0_URL is required for the judge0 backend")
		}
	case BackendDocker:
	default:
		return fmt.Errorf("unknown execution backend %q", c.ExecutionBackend)
	}

	switch c.CorrectnessPolicy {
	case "ai", "cap_by_tests":
	default:
		return fmt.Errorf("unknown correctness policy %q", c.CorrectnessPolicy)
	}

	if c.Judge0MaxPolls <= 0 {
		c.Judge0MaxPolls = 10
	}
	if c.Judge0PollInterval <= 0 {
		c.Judge0PollInterval = time.Second
	}
	if c.CodeRunMemoryMB <= 0 {
		c.CodeRunMemoryMB = 256
	}
	if c.CodeRunCPUShares <= 0 {
		c.CodeRunCPUShares = 512
	}

	return nil
}
