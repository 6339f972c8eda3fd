// ABOUTME: Client-side subcommands that talk to a running habit-gateway
// ABOUTME: health pings /health; tree prints the habit forest as a checklist

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/habit-gateway/internal/config"
	"github.com/2389/habit-gateway/internal/habit"
	"github.com/2389/habit-gateway/internal/store"
)

// baseURL turns the configured listen address into a URL a local client can reach.
func baseURL(cfg *config.Config) string {
	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func runHealth(ctx context.Context) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}

	// Make HTTP request to health endpoint with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL(cfg)+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// runTree prints the habit forest. With --local it reads the data file
// named in the config instead of asking the server.
func runTree(ctx context.Context, w io.Writer, args []string) error {
	local := false
	for _, arg := range args {
		switch arg {
		case "--local", "-l":
			local = true
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}

	var forest habit.Forest
	if local {
		forest, err = store.NewFileStore(cfg.Storage.Path).Load()
	} else {
		forest, err = fetchForest(ctx, baseURL(cfg))
	}
	if err != nil {
		return err
	}

	return printTree(w, forest)
}

// fetchForest retrieves GET /habits from the server at base.
func fetchForest(ctx context.Context, base string) (habit.Forest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/habits", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching habits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetching habits: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var forest habit.Forest
	if err := json.NewDecoder(resp.Body).Decode(&forest); err != nil {
		return nil, fmt.Errorf("decoding habits: %w", err)
	}
	return forest, nil
}

func printTree(w io.Writer, forest habit.Forest) error {
	if len(forest) == 0 {
		color.New(color.FgHiBlack).Fprintln(w, "No habits yet.")
		return nil
	}
	if err := forest.Render(w); err != nil {
		return fmt.Errorf("rendering habits: %w", err)
	}
	color.New(color.FgHiBlack).Fprintf(w, "\n%d habit(s)\n", forest.Count())
	return nil
}
