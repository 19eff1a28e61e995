// ABOUTME: Entry point for promptdeck services
// ABOUTME: One binary serving the auth, project, or chat service per process

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/promptdeck/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                 _      _           _
 _ __  _ __ ___  _ __ ___  _ __ | |_ __| | ___  ___| | __
| '_ \| '__/ _ \| '_ ' _ \| '_ \| __/ _' |/ _ \/ __| |/ /
| |_) | | | (_) | | | | | | |_) | || (_| |  __/ (__|   <
| .__/|_|  \___/|_| |_| |_| .__/ \__\__,_|\___|\___|_|\_\
|_|                       |_|
`

// getConfigPath returns the path to the service config file.
// Priority: PROMPTDECK_CONFIG env var > XDG_CONFIG_HOME/promptdeck/<service>.yaml > ~/.config/promptdeck/<service>.yaml
func getConfigPath(service string) string {
	if envPath := os.Getenv("PROMPTDECK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return service + ".yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "promptdeck", service+".yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: promptdeck <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve-auth     Start the auth service")
		fmt.Println("  serve-project  Start the project service")
		fmt.Println("  serve-chat     Start the chat service")
		fmt.Println("  init           Write starter config files")
		fmt.Println("  health         Check a service's health endpoint")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve-auth":
		err = runServe(ctx, "auth")
	case "serve-project":
		err = runServe(ctx, "project")
	case "serve-chat":
		err = runServe(ctx, "chat")
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, service string) error {
	configPath := getConfigPath(service)

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Service:  %s\n", service)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	fmt.Println()

	logger.Info("starting promptdeck",
		"service", service,
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	handler, cleanup, err := buildService(service, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating %s service: %w", service, err)
	}
	defer cleanup()

	return serveHTTP(ctx, cfg.Server.HTTPAddr, handler, logger)
}

// runInit writes starter config files for all three services with a
// shared random JWT secret.
func runInit() error {
	configDir := filepath.Dir(getConfigPath("auth"))
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	jwtSecret := base64.StdEncoding.EncodeToString(secretBytes)

	green := color.New(color.FgGreen)
	for service, content := range starterConfigs(jwtSecret) {
		path := filepath.Join(configDir, service+".yaml")
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("    %s already exists, skipping\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		green.Print("    ▶ ")
		fmt.Printf("wrote %s\n", path)
	}

	return nil
}

func runHealth(ctx context.Context) error {
	service := "auth"
	if len(os.Args) > 2 {
		service = os.Args[2]
	}

	cfg, err := config.Load(getConfigPath(service))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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

// starterConfigs returns example YAML per service sharing one JWT secret.
func starterConfigs(jwtSecret string) map[string]string {
	return map[string]string{
		"auth": `server:
  http_addr: "127.0.0.1:8001"
database:
  path: "data/auth.db"
auth:
  jwt_secret: "` + jwtSecret + `"
  token_ttl: "30m"
  bcrypt_cost: 10
email:
  check_mx: true
  check_disposable: true
  dns_timeout: "5s"
  dns_failure_policy: "open"
logging:
  level: "info"
  format: "text"
`,
		"project": `server:
  http_addr: "127.0.0.1:8002"
database:
  path: "data/project.db"
auth:
  jwt_secret: "` + jwtSecret + `"
  verify_mode: "remote"
  authority_url: "http://127.0.0.1:8001"
  remote_timeout: "5s"
  local_fallback: true
logging:
  level: "info"
  format: "text"
`,
		"chat": `server:
  http_addr: "127.0.0.1:8003"
database:
  path: "data/chat.db"
auth:
  jwt_secret: "` + jwtSecret + `"
  verify_mode: "remote"
  authority_url: "http://127.0.0.1:8001"
  remote_timeout: "5s"
  local_fallback: true
llm:
  provider: "openrouter"
  model: "openai/gpt-3.5-turbo"
  api_key: "${OPENROUTER_API_KEY}"
  request_timeout: "60s"
logging:
  level: "info"
  format: "text"
`,
	}
}
