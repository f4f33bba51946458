package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/vision-tools-mcp/internal/coins"
	"github.com/ironsheep/vision-tools-mcp/internal/imaging"
	"github.com/ironsheep/vision-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("vision-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	logger := newLogger(os.Getenv("VISION_MCP_LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "count" {
		if err := runCount(os.Args[2:], logger); err != nil {
			logger.Fatal().Err(err).Msg("Count failed")
		}
		return
	}

	logger.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("Vision MCP server starting")

	srv := server.New(Version, logger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("Server error")
	}
}

func usage() {
	fmt.Println("vision-tools-mcp - MCP server for image processing and coin counting")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  vision-tools-mcp [options]")
	fmt.Println("  vision-tools-mcp count [-config file.yaml] [-annotate dir] frame...")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  VISION_MCP_LOG_LEVEL=debug   Log level (trace, debug, info, warn, error). Default warn")
	fmt.Println()
	fmt.Println("Without a command the server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// runCount counts the coins in a sequence of frame files and prints the
// tally per denomination.
func runCount(args []string, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML pipeline config (default: euro settings)")
	annotateDir := fs.String("annotate", "", "directory for annotated frames")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("count: no frames given")
	}

	cfg := coins.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = coins.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *annotateDir != "" {
		if err := os.MkdirAll(*annotateDir, 0755); err != nil {
			return err
		}
	}

	pipeline, err := coins.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	for i, path := range fs.Args() {
		frame, err := imaging.LoadFile(path)
		if err != nil {
			return err
		}
		report, err := pipeline.ProcessFrame(frame)
		if err == nil && *annotateDir != "" {
			if err = pipeline.Annotate(frame, report); err == nil {
				err = imaging.SaveFile(filepath.Join(*annotateDir, fmt.Sprintf("frame%05d.png", i)), frame)
			}
		}
		frame.Release()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	tally := pipeline.Tally()
	for _, cents := range tally.Values() {
		fmt.Printf("%-10s x %d\n", cfg.Classifier.Name(cents), tally.Counts[cents])
	}
	fmt.Printf("%d coins in %d frames, total %s\n", tally.Coins, pipeline.Frames(), coins.FormatCents(tally.Cents))
	return nil
}
