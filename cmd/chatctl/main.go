// Command chatctl is a terminal client for the chat backend: contacts,
// per-conversation history, text/image messages and live delivery over the
// push channel.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatctl/config"
	"chatctl/internal/api"
	"chatctl/internal/push"
	"chatctl/internal/store"
	"chatctl/ui"
)

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Terminal chat client",
	RunE:  run,
}

var (
	flagServerURL string
	flagWSURL     string
	flagLogFile   string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServerURL, "server-url", "", "base URL of the chat HTTP API (overrides CHAT_SERVER_URL)")
	flags.StringVar(&flagWSURL, "ws-url", "", "websocket endpoint of the push channel (overrides CHAT_WS_URL)")
	flags.StringVar(&flagLogFile, "log-file", "", "write logs to this file (overrides CHAT_LOG_FILE; the terminal itself belongs to the UI)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}
	if flagWSURL != "" {
		cfg.WSURL = flagWSURL
	}
	if flagLogFile != "" {
		cfg.LogFile = flagLogFile
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := api.New(cfg.ServerURL, time.Duration(cfg.HTTPTimeout)*time.Second, logger)
	if err != nil {
		return err
	}

	dial := func(ctx context.Context, userID string) (*push.Channel, error) {
		return push.Dial(ctx, cfg.WSURL, userID, logger)
	}

	toasts := ui.NewToasts()
	session := store.NewSessionStore(client, dial, toasts, logger)
	defer session.Dispose()
	conv := store.NewConversationStore(client, session, toasts, logger)

	app := ui.NewApp(session, conv, toasts, cfg.ServerURL, logger)

	logger.Info().Str("server", cfg.ServerURL).Str("ws", cfg.WSURL).Msg("starting")
	return app.Run()
}

// newLogger opens a file-backed zerolog logger. With no log file configured
// all output is discarded.
func newLogger(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	logger := zerolog.New(f).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}
