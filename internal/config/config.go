package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds settings for the portal server runtime.
type ServerConfig struct {
	ListenAddr     string
	Database       DatabaseConfig
	JWT            JWTConfig
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxFrameBytes  int
	MaxUploadBytes int64
}

// ClientConfig holds settings for the terminal client.
type ClientConfig struct {
	ServerAddr     string
	CommandPrefix  rune
	DownloadDir    string
	MaxUploadBytes int64
}

// DatabaseConfig captures storage configuration.
type DatabaseConfig struct {
	Path string
}

// JWTConfig defines token issuance parameters.
type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

const defaultMaxUploadBytes = 2 << 20

// LoadServerConfig builds the server configuration from environment variables with sensible defaults.
func LoadServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:     envOrDefault("STUDYSHELF_LISTEN_ADDR", ":9000"),
		Database:       DatabaseConfig{Path: envOrDefault("STUDYSHELF_DB_PATH", "studyshelf.db")},
		JWT:            loadJWTConfig(),
		ReadTimeout:    envDuration("STUDYSHELF_READ_TIMEOUT", 15*time.Minute),
		WriteTimeout:   envDuration("STUDYSHELF_WRITE_TIMEOUT", 15*time.Second),
		MaxFrameBytes:  envInt("STUDYSHELF_MAX_FRAME_BYTES", 4<<20),
		MaxUploadBytes: int64(envInt("STUDYSHELF_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
	}
}

// LoadClientConfig builds the client configuration from environment variables.
func LoadClientConfig() ClientConfig {
	prefix := envOrDefault("STUDYSHELF_COMMAND_PREFIX", "/")
	runes := []rune(prefix)
	commandPrefix := '/'
	if len(runes) > 0 {
		commandPrefix = runes[0]
	}
	return ClientConfig{
		ServerAddr:     envOrDefault("STUDYSHELF_SERVER_ADDR", "localhost:9000"),
		CommandPrefix:  commandPrefix,
		DownloadDir:    envOrDefault("STUDYSHELF_DOWNLOAD_DIR", "downloads"),
		MaxUploadBytes: int64(envInt("STUDYSHELF_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
	}
}

func loadJWTConfig() JWTConfig {
	expiration := envDuration("STUDYSHELF_JWT_EXPIRATION", 24*time.Hour)
	return JWTConfig{
		Secret:     envOrDefault("STUDYSHELF_JWT_SECRET", "replace-me"),
		Issuer:     envOrDefault("STUDYSHELF_JWT_ISSUER", "studyshelf"),
		Expiration: expiration,
	}
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(env); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(key string, def int) int {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(env); err == nil {
			return parsed
		}
	}
	return def
}
