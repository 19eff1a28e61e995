// Package config handles configuration loading for promptdeck services.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. All three service binaries share one schema; each reads the
// sections it needs. Configuration is loaded once at startup and passed
// into component constructors, never read as ambient global state.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${PROMPTDECK_JWT_SECRET}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  token_ttl: "30m"
//	  remote_timeout: "5s"
//
// # Configuration Sections
//
// Server and database:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	database:
//	  path: "/var/lib/promptdeck/auth.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${PROMPTDECK_JWT_SECRET}"
//	  token_ttl: "30m"
//	  verify_mode: "remote"      # local, remote
//	  authority_url: "http://auth:8001"
//	  remote_timeout: "5s"
//	  local_fallback: true
//	  bcrypt_cost: 10
//
// Email validation (auth service only):
//
//	email:
//	  check_mx: true
//	  check_disposable: true
//	  dns_timeout: "5s"
//	  dns_failure_policy: "open"  # open, closed
//
// LLM provider (chat service only):
//
//	llm:
//	  provider: "openrouter"      # openrouter, openai
//	  model: "openai/gpt-3.5-turbo"
//	  api_key: "${OPENROUTER_API_KEY}"
//	  request_timeout: "60s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
