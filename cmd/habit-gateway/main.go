// ABOUTME: Entry point for habit-gateway, the daily habit tracker HTTP server
// ABOUTME: Dispatches serve, init, health, and tree subcommands

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/habit-gateway/internal/config"
	"github.com/2389/habit-gateway/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _           _     _ _
 | |__   __ _| |__ (_) |_ ___
 | '_ \ / _' | '_ \| | __/ __|
 | | | | (_| | |_) | | |_\__ \
 |_| |_|\__,_|_.__/|_|\__|___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: HABITS_CONFIG env var > XDG_CONFIG_HOME/habits/gateway.yaml > ~/.config/habits/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("HABITS_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "habits", "gateway.yaml")
}

// getDataPath returns the path to the habits data directory.
// Priority: XDG_DATA_HOME/habits > ~/.local/share/habits
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "habits")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: habit-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve           Start the habit API server")
		fmt.Println("  init            Create a new config file interactively")
		fmt.Println("  health          Check server health")
		fmt.Println("  tree [--local]  Print the habit tree (--local reads the data file directly)")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "tree":
		err = runTree(ctx, os.Stdout, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file, falling back to defaults when none exists.
func loadConfig() (*config.Config, string, bool, error) {
	configPath := getConfigPath()
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, configPath, false, fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, found, nil
}

func runServe(ctx context.Context) error {
	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, found, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog := setupLogger(cfg.Logging)
	defer closeLog()

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s", configPath)
	if !found {
		yellow.Print(" (not found, using defaults)")
	}
	fmt.Println()
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Habits:    %s\n", cfg.Storage.Path)
	if cfg.Logging.File != "" {
		green.Print("    ▶ ")
		fmt.Printf("Log file:  %s\n", cfg.Logging.File)
	}

	fmt.Println()

	logger.Info("starting habit-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"storage", cfg.Storage.Path,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}
