package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultPort         = "3978"
	defaultModel        = "gpt-4"
	defaultMaxHistory   = 20
	defaultMaxTokens    = 1000
	defaultTemperature  = 0.7
	defaultTimeout      = 60 * time.Second
	defaultBurst        = 1
	defaultAppType      = "MultiTenant"
	repetitionPenalty   = 0.1
	defaultArkBaseURL   = "https://ark.cn-beijing.volces.com/api/v3"
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultArkRegion    = "cn-beijing"
	configFileEnvKey    = "RELAY_CONFIG_FILE"
	multiTenantAppType  = "MultiTenant"
	minimumHistoryPairs = 2
)

// ErrMissingBotCredentials is returned in production when the messaging
// platform credentials are absent.
var ErrMissingBotCredentials = errors.New("MICROSOFT_APP_ID and MICROSOFT_APP_PASSWORD are required in production")

// Config aggregates the service configuration.
type Config struct {
	Env      string
	Debug    bool
	Server   ServerConfig
	Bot      BotConfig
	AI       AIConfig
	Behavior BehaviorConfig
}

// Production reports whether the process runs in production mode.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads the environment and applies the optional YAML overlay.
func Load() (*Config, error) {
	return LoadWithFile(strings.TrimSpace(os.Getenv(configFileEnvKey)))
}

// LoadWithFile behaves like Load but takes the overlay path explicitly.
// An empty path skips the overlay.
func LoadWithFile(path string) (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	behavior, err := loadBehaviorConfig()
	if err != nil {
		return nil, err
	}

	debug, err := parseBoolEnv("DEBUG_MODE", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:      loadEnvName(),
		Debug:    debug,
		Server:   server,
		Bot:      loadBotConfig(),
		AI:       ai,
		Behavior: behavior,
	}

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.Behavior.normalize()

	if cfg.Production() && !cfg.Bot.Configured() {
		return nil, ErrMissingBotCredentials
	}

	return cfg, nil
}

func loadEnvName() string {
	if env := strings.TrimSpace(os.Getenv("NODE_ENV")); env != "" {
		return strings.ToLower(env)
	}
	return strings.ToLower(getEnvOrDefault("APP_ENV", EnvDevelopment))
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// loadServerConfig resolves the listen address.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = defaultPort
	}

	if strings.Contains(port, ":") {
		// Accept ":3978" or "127.0.0.1:3978" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// BotConfig holds the messaging platform credentials.
type BotConfig struct {
	AppID       string
	AppPassword string
	AppType     string
	TenantID    string
}

// Configured reports whether both app id and password were supplied.
func (c BotConfig) Configured() bool {
	return c.AppID != "" && c.AppPassword != ""
}

// EffectiveTenantID returns the tenant only for single-tenant apps.
func (c BotConfig) EffectiveTenantID() string {
	if c.AppType == multiTenantAppType {
		return ""
	}
	return c.TenantID
}

func loadBotConfig() BotConfig {
	return BotConfig{
		AppID:       strings.TrimSpace(os.Getenv("MICROSOFT_APP_ID")),
		AppPassword: strings.TrimSpace(os.Getenv("MICROSOFT_APP_PASSWORD")),
		AppType:     getEnvOrDefault("MICROSOFT_APP_TYPE", defaultAppType),
		TenantID:    strings.TrimSpace(os.Getenv("MICROSOFT_APP_TENANT_ID")),
	}
}

// AIConfig describes the completion backend.
type AIConfig struct {
	APIKey           string
	AccessKey        string
	SecretKey        string
	Model            string
	BaseURL          string
	Region           string
	MaxTokens        int
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
	Timeout          time.Duration
	RequestsPerSec   float64
	Burst            int
}

// Enabled reports whether credentials and a model id were supplied.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the ark chat model from the configuration.
// The client never retries: a failed call yields exactly one fallback reply.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide OPENAI_API_KEY/ARK_API_KEY or an AK/SK pair plus a model id")
	}

	temperature := float32(c.Temperature)
	presence := float32(c.PresencePenalty)
	frequency := float32(c.FrequencyPenalty)
	maxTokens := c.MaxTokens
	retries := 0

	cfg := &ark.ChatModelConfig{
		BaseURL:          c.BaseURL,
		Region:           c.Region,
		APIKey:           c.APIKey,
		AccessKey:        c.AccessKey,
		SecretKey:        c.SecretKey,
		Model:            c.Model,
		MaxTokens:        &maxTokens,
		Temperature:      &temperature,
		PresencePenalty:  &presence,
		FrequencyPenalty: &frequency,
		RetryTimes:       &retries,
	}
	if c.Timeout > 0 {
		timeout := c.Timeout
		cfg.Timeout = &timeout
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("COMPLETION_TIMEOUT", defaultTimeout)
	if err != nil {
		return AIConfig{}, err
	}

	rps, err := parseOptionalFloatEnv("COMPLETION_RPS")
	if err != nil {
		return AIConfig{}, err
	}

	burst, err := parseOptionalIntEnv("COMPLETION_BURST")
	if err != nil {
		return AIConfig{}, err
	}

	// OpenAI-compatible keys talk to the OpenAI endpoint unless a base URL
	// is given explicitly.
	baseURL := defaultArkBaseURL
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey != "" {
		baseURL = getEnvOrDefault("OPENAI_BASE_URL", defaultOpenAIURL)
	} else {
		apiKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
	}

	modelID := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if modelID == "" {
		modelID = getEnvOrDefault("Model", defaultModel)
	}

	cfg := AIConfig{
		APIKey:           apiKey,
		AccessKey:        strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:        strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:            modelID,
		BaseURL:          getEnvOrDefault("ARK_BASE_URL", baseURL),
		Region:           getEnvOrDefault("ARK_REGION", defaultArkRegion),
		MaxTokens:        defaultMaxTokens,
		Temperature:      defaultTemperature,
		PresencePenalty:  repetitionPenalty,
		FrequencyPenalty: repetitionPenalty,
		Timeout:          timeout,
		Burst:            defaultBurst,
	}
	if temperature != nil {
		cfg.Temperature = *temperature
	}
	if maxTokens != nil {
		cfg.MaxTokens = *maxTokens
	}
	if rps != nil {
		cfg.RequestsPerSec = *rps
	}
	if burst != nil && *burst > 0 {
		cfg.Burst = *burst
	}
	return cfg, nil
}

// BehaviorConfig describes conversation behaviour.
type BehaviorConfig struct {
	MaxHistory   int
	SystemPrompt string
	PersonaID    string
}

func (c *BehaviorConfig) normalize() {
	if c.MaxHistory < minimumHistoryPairs {
		c.MaxHistory = minimumHistoryPairs
	}
	c.SystemPrompt = strings.TrimSpace(c.SystemPrompt)
}

func loadBehaviorConfig() (BehaviorConfig, error) {
	maxHistory, err := parseOptionalIntEnv("MAX_CONVERSATION_HISTORY")
	if err != nil {
		return BehaviorConfig{}, err
	}

	cfg := BehaviorConfig{
		MaxHistory:   defaultMaxHistory,
		SystemPrompt: os.Getenv("SYSTEM_PROMPT"),
		PersonaID:    strings.TrimSpace(os.Getenv("PERSONA_ID")),
	}
	if maxHistory != nil {
		if *maxHistory <= 0 {
			return BehaviorConfig{}, fmt.Errorf("invalid MAX_CONVERSATION_HISTORY value %d: must be positive", *maxHistory)
		}
		cfg.MaxHistory = *maxHistory
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	// Bare integers are seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
