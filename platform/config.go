package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port string

	MongoURI string
	MongoDB  string

	AccessSecret    string
	TokenTTLMinutes int

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	AllowedOrigins []string

	// Corpus tooling
	CorpusOutput string
	CollectCron  string

	// Collection report mail (optional; disabled when SMTPHost is empty)
	SMTPHost   string
	SMTPPort   string
	SMTPUser   string
	SMTPPass   string
	ReportFrom string
	ReportTo   string

	LogPath string
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("no .env file found, relying on environment variables")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "chatbot_db"),
		AccessSecret:    getEnv("ACCESS_SECRET", ""),
		TokenTTLMinutes: getEnvAsInt("TOKEN_TTL_MINUTES", 60),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", "qwen-turbo"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost,http://localhost:3000")),
		CorpusOutput:    getEnv("CORPUS_OUTPUT", "dataset_python_brut.csv"),
		CollectCron:     getEnv("COLLECT_CRON", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPass:        getEnv("SMTP_PASSWORD", ""),
		ReportFrom:      getEnv("REPORT_FROM", ""),
		ReportTo:        getEnv("REPORT_TO", ""),
		LogPath:         getEnv("LOG_PATH", "./log"),
	}

	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("ACCESS_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
