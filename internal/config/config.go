package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	// AI providers, tried in this order: Gemini, Groq, OpenAI.
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	GroqAPIKey      string
	GroqModel       string
	GroqBaseURL     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	ProviderTimeout time.Duration

	ChatHistoryTurns int
	CannedRulesPath  string

	// session store
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// optional audit database
	DBDSN string

	// admin
	JWTSecret         string
	AdminPasswordHash string

	// rabbitMQ (optional crisis alerts)
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int
}

// ProvidersConfigured reports whether at least one provider credential is set.
func (c Config) ProvidersConfigured() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != "" || c.OpenAIAPIKey != ""
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if logFormat == "" {
		logFormat = "json"
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-1.5-flash"
	}

	groqModel := os.Getenv("GROQ_MODEL")
	if groqModel == "" {
		groqModel = "llama-3.3-70b-versatile"
	}
	groqBaseURL := os.Getenv("GROQ_BASE_URL")
	if groqBaseURL == "" {
		groqBaseURL = "https://api.groq.com/openai/v1"
	}

	openAIModel := os.Getenv("OPENAI_MODEL")
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}
	openAIBaseURL := os.Getenv("OPENAI_BASE_URL")
	if openAIBaseURL == "" {
		openAIBaseURL = "https://api.openai.com/v1"
	}

	providerTimeout := 60 * time.Second
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			providerTimeout = d
		}
	}

	historyTurns := 20
	if v := os.Getenv("CHAT_HISTORY_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			historyTurns = n
		}
	}

	sessionStore := strings.ToLower(os.Getenv("SESSION_STORE"))
	if sessionStore == "" {
		sessionStore = "memory"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	var sessionTTL time.Duration
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			sessionTTL = d
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	rabbitQueue := os.Getenv("RABBIT_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "crisis_alerts"
	}

	concurrency := 2
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			concurrency = min(n, 50)
		}
	}

	return Config{
		Port:      port,
		GinMode:   os.Getenv("GIN_MODE"),
		LogLevel:  logLevel,
		LogFormat: logFormat,

		GeminiAPIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:     geminiModel,
		GeminiBaseURL:   os.Getenv("GEMINI_BASE_URL"),
		GroqAPIKey:      strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		GroqModel:       groqModel,
		GroqBaseURL:     groqBaseURL,
		OpenAIAPIKey:    strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:     openAIModel,
		OpenAIBaseURL:   openAIBaseURL,
		ProviderTimeout: providerTimeout,

		ChatHistoryTurns: historyTurns,
		CannedRulesPath:  os.Getenv("CANNED_RULES_PATH"),

		SessionStore:  sessionStore,
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		SessionTTL:    sessionTTL,

		DBDSN: os.Getenv("DB_DSN"),

		JWTSecret:         secret,
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       rabbitQueue,
		WorkerConcurrency: concurrency,
	}
}
