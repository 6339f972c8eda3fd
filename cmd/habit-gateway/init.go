// ABOUTME: Interactive "init" subcommand that writes a gateway config file
// ABOUTME: Prompts for listen address, data file, idempotency, and logging settings

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389/habit-gateway/internal/config"
)

// initAnswers holds the values collected by runInit.
type initAnswers struct {
	HTTPAddr       string
	StoragePath    string
	IdempotencyTTL string
	LogLevel       string
	LogFormat      string
	LogFile        string
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("habit-gateway configuration setup")
	fmt.Println("=================================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	answers := askInit(reader)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(renderConfig(answers)), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(answers.StoragePath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  habit-gateway serve\n")

	return nil
}

// askInit prompts for every config section.
func askInit(reader *bufio.Reader) initAnswers {
	var a initAnswers

	fmt.Println("\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, "HTTP address", config.DefaultHTTPAddr)

	fmt.Println("\n--- Storage Configuration ---")
	a.StoragePath = prompt(reader, "Habits JSON file", filepath.Join(getDataPath(), "habits.json"))

	fmt.Println("\n--- Idempotency Configuration ---")
	a.IdempotencyTTL = prompt(reader, "Idempotency-Key lifetime", config.DefaultIdempotencyTTL.String())

	fmt.Println("\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, "Log format (text/json)", "text")
	a.LogFile = prompt(reader, "Log file (leave empty for stdout)", "")

	return a
}

// renderConfig produces the YAML config file for a.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# habit-gateway configuration\n")
	cfg.WriteString("# Generated by habit-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	cfg.WriteString("  read_header_timeout: \"10s\"\n")
	cfg.WriteString("  shutdown_timeout: \"5s\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("storage:\n")
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.StoragePath))
	cfg.WriteString("\n")

	cfg.WriteString("idempotency:\n")
	cfg.WriteString(fmt.Sprintf("  ttl: %q\n", a.IdempotencyTTL))
	cfg.WriteString(fmt.Sprintf("  max_entries: %d\n", config.DefaultIdempotencyMax))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))
	if a.LogFile != "" {
		cfg.WriteString(fmt.Sprintf("  file: %q\n", a.LogFile))
	}

	return cfg.String()
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	return promptTo(os.Stdout, reader, question, defaultVal)
}

func promptTo(out io.Writer, reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
