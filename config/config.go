package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServerURL   string // base URL of the HTTP API
	WSURL       string // websocket endpoint for the push channel
	LogFile     string // empty disables logging
	HTTPTimeout int    // seconds
}

func Load() *Config {
	cfg := &Config{
		ServerURL:   "http://localhost:5001",
		WSURL:       "ws://localhost:5001/ws",
		LogFile:     "",
		HTTPTimeout: 15,
	}

	if url := os.Getenv("CHAT_SERVER_URL"); url != "" {
		cfg.ServerURL = url
	}

	if url := os.Getenv("CHAT_WS_URL"); url != "" {
		cfg.WSURL = url
	}

	if path := os.Getenv("CHAT_LOG_FILE"); path != "" {
		cfg.LogFile = path
	}

	if timeoutStr := os.Getenv("CHAT_HTTP_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.HTTPTimeout = timeout
		}
	}

	return cfg
}
