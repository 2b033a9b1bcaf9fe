package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Templates  TemplatesConfig  `json:"templates"`
	Conversion ConversionConfig `json:"conversion"`
	Gotenberg  GotenbergConfig  `json:"gotenberg"`
	Queue      QueueConfig      `json:"queue"`
}

type ServerConfig struct {
	Port         string   `json:"port"`
	Environment  string   `json:"environment"`
	AllowOrigins []string `json:"allow_origins"`
}

type TemplatesConfig struct {
	Dir     string `json:"dir"`
	DataDir string `json:"data_dir"`
	TempDir string `json:"temp_dir"`
}

type ConversionConfig struct {
	BaseURL         string `json:"base_url"`
	CredentialsFile string `json:"credentials_file"`
}

type GotenbergConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

type QueueConfig struct {
	Ceiling int `json:"ceiling"`
}

// ParsedTimeout returns the Gotenberg timeout as a duration, defaulting to
// 30s when the value does not parse.
func (g *GotenbergConfig) ParsedTimeout() time.Duration {
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			AllowOrigins: parseAllowOrigins(),
		},
		Templates: TemplatesConfig{
			Dir:     getEnv("TEMPLATES_DIR", "templates"),
			DataDir: getEnv("DATA_DIR", "data"),
			TempDir: getEnv("TEMP_DIR", os.TempDir()),
		},
		Conversion: ConversionConfig{
			BaseURL:         getEnv("CONVERSION_API_URL", "https://api.ilovepdf.com"),
			CredentialsFile: getEnv("CONVERSION_CREDENTIALS_FILE", "conversion_config.json"),
		},
		Gotenberg: GotenbergConfig{
			URL:     getEnv("GOTENBERG_URL", "http://localhost:3000"),
			Timeout: getEnv("GOTENBERG_TIMEOUT", "30s"),
		},
		Queue: QueueConfig{
			Ceiling: getEnvInt("QUEUE_CEILING", 2),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func parseAllowOrigins() []string {
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		var allowOrigins []string
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowOrigins = append(allowOrigins, trimmed)
			}
		}
		return allowOrigins
	}

	return []string{
		"http://localhost:3000",
		"http://localhost:3001",
	}
}
