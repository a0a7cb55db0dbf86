package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LLMProviderYandexGPT = "yandexgpt"
	LLMProviderGigaChat  = "gigachat"
)

type Config struct {
	Server    ServerConfig
	Yandex    YandexConfig
	GigaChat  GigaChatConfig
	LLM       LLMConfig
	Limits    LimitsConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Database  DatabaseConfig
	Bot       BotConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	BodyLimit      int
}

// YandexConfig holds credentials for SpeechKit, Vision and the foundation models API.
// Each service may run with its own key; they share one folder.
type YandexConfig struct {
	FolderID        string
	SpeechKitAPIKey string
	VisionAPIKey    string
	GPTAPIKey       string
	STTEndpoint     string
	VisionEndpoint  string
	GPTEndpoint     string
	GPTModel        string
	STTLanguage     string
	OCRLanguages    []string
	HTTPTimeout     time.Duration
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type LLMConfig struct {
	Provider    string
	Temperature float64
}

// LimitsConfig bounds decoded payload sizes in bytes.
type LimitsConfig struct {
	AudioMinBytes int
	AudioMaxBytes int
	ImageMinBytes int
	ImageMaxBytes int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

type RateLimitConfig struct {
	Every time.Duration
	Burst int
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ApplicationName string
	ConnectTimeout  time.Duration
	MaxConns        int
}

// Enabled reports whether the submission journal should be used.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

type BotConfig struct {
	TelegramToken  string
	PassportURL    string
	AudioURL       string
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables win in containers
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", getEnv("PORT", "8080")),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			RequestTimeout: getEnvDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			BodyLimit:      getEnvInt("SERVER_BODY_LIMIT", 16<<20),
		},
		Yandex: YandexConfig{
			FolderID:        getEnv("YANDEX_FOLDER_ID", ""),
			SpeechKitAPIKey: getEnv("YANDEX_SPEECHKIT_API_KEY", ""),
			VisionAPIKey:    getEnv("YANDEX_VISION_API_KEY", ""),
			GPTAPIKey:       getEnv("YANDEX_GPT_API_KEY", ""),
			STTEndpoint:     getEnv("YANDEX_STT_ENDPOINT", "https://stt.api.cloud.yandex.net/speech/v1/stt:recognize"),
			VisionEndpoint:  getEnv("YANDEX_VISION_ENDPOINT", "https://vision.api.cloud.yandex.net/vision/v1/batchAnalyze"),
			GPTEndpoint:     getEnv("YANDEX_GPT_ENDPOINT", "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"),
			GPTModel:        getEnv("YANDEX_GPT_MODEL", "yandexgpt-lite"),
			STTLanguage:     getEnv("YANDEX_STT_LANG", "ru-RU"),
			OCRLanguages:    splitList(getEnv("YANDEX_OCR_LANGUAGES", "ru")),
			HTTPTimeout:     getEnvDuration("YANDEX_HTTP_TIMEOUT", 45*time.Second),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "false") == "true",
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderYandexGPT)),
			Temperature: temperature,
		},
		Limits: LimitsConfig{
			AudioMinBytes: getEnvInt("AUDIO_MIN_BYTES", 0),
			AudioMaxBytes: getEnvInt("AUDIO_MAX_BYTES", 4*1024*1024),
			ImageMinBytes: getEnvInt("IMAGE_MIN_BYTES", 10240),
			ImageMaxBytes: getEnvInt("IMAGE_MAX_BYTES", 4194304),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			TokenTTL:  getEnvDuration("AUTH_TOKEN_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Every: getEnvDuration("RATE_LIMIT_EVERY", 500*time.Millisecond),
			Burst: getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "doc_recognizer"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			ApplicationName: getEnv("DB_APPLICATION_NAME", "doc-recognizer-bot"),
			ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 4),
		},
		Bot: BotConfig{
			TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			PassportURL:    getEnv("PASSPORT_FUNCTION_URL", ""),
			AudioURL:       getEnv("AUDIO_FUNCTION_URL", ""),
			RequestTimeout: getEnvDuration("BOT_REQUEST_TIMEOUT", 60*time.Second),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
