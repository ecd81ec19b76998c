package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/docker/go-units"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"fsgate/internal/config"
	"fsgate/internal/sandbox"
	"fsgate/internal/tools"
)

const version = "0.1.0"

var (
	debugMode  = flag.Bool("d", false, "Enable debug mode")
	configPath = flag.String("config", "fsgate.json", "Config file path")
	logFile    = flag.String("log-file", "", "Log file path (default: stderr)")
	checkMode  = flag.Bool("check", false, "Interactive path-check mode instead of serving")
)

func main() {
	flag.Parse()

	logger := initLogger(*debugMode, *logFile)
	logger.Info().Str("version", version).Msg("fsgate starting")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	sb, err := cfg.Sandbox()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid sandbox configuration")
	}

	logStartupDiagnostics(logger, sb)

	if *checkMode {
		runCheck(sb, logger)
		return
	}

	if cfg.Enforce {
		if err := sb.Enforce(); err != nil {
			logger.Warn().Err(err).Msg("Kernel enforcement unavailable, path checks remain active")
		} else {
			logger.Info().Msg("Kernel enforcement active")
		}
	}

	if err := serve(context.Background(), sb, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server stopped")
	}
}

// serve runs the MCP server on stdio until the transport closes.
// Stdout belongs to the protocol; all diagnostics go to the logger.
func serve(ctx context.Context, sb *sandbox.Sandbox, logger zerolog.Logger) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "fsgate",
		Title:   "Scoped filesystem access for AI agents",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: `This server grants read and write access to an operator-configured
set of directories only. Requests outside those directories are denied.`,
	})
	tools.New(sb, logger).RegisterServer(server)
	logger.Info().Msg("Serving MCP over stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}

func logStartupDiagnostics(logger zerolog.Logger, sb *sandbox.Sandbox) {
	for _, root := range sb.Roots() {
		logger.Info().Str("path", root.Path).Str("permission", string(root.Perm)).Msg("Allowed root")
	}
	if sb.MaxBytes() == 0 {
		logger.Info().Msg("Size limit: disabled")
	} else {
		logger.Info().Str("limit", units.BytesSize(float64(sb.MaxBytes()))).Msg("Size limit")
	}
}

func initLogger(debug bool, logFilePath string) zerolog.Logger {
	// Set log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Configure output. Never stdout: that is the MCP channel.
	var output io.Writer
	switch {
	case logFilePath != "":
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		output = file
	case term.IsTerminal(int(os.Stderr.Fd())):
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	default:
		output = os.Stderr
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
