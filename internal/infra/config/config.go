// Package config provides application-wide configuration, loaded from an
// optional YAML file with environment variable overrides. All fields have
// safe defaults so the binary runs locally without any setup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the hats agent.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Chain   ChainConfig   `yaml:"chain"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"` // SERVER_ADDR — default: ":8080"
	// JWTSecret enables bearer auth on the API routes when non-empty.
	JWTSecret string `yaml:"jwt_secret"` // SERVER_JWT_SECRET — default: "" (auth disabled)
}

// LLMConfig selects the provider and model.
type LLMConfig struct {
	Provider      string `yaml:"provider"`       // LLM_PROVIDER — default: "ollama"
	Model         string `yaml:"model"`          // LLM_MODEL — default: "llama3.1"
	OllamaBaseURL string `yaml:"ollama_base_url"` // WAVS_ENV_OLLAMA_API_URL — default: "http://localhost:11434"
	OpenAIKey     string `yaml:"openai_api_key"`    // WAVS_ENV_OPENAI_API_KEY
	AnthropicKey  string `yaml:"anthropic_api_key"` // WAVS_ENV_ANTHROPIC_API_KEY
}

// ChainConfig points at the trigger and hat contracts.
type ChainConfig struct {
	RPCURL      string `yaml:"rpc_url"`      // CHAIN_RPC_URL — default: "http://localhost:8545"
	HatContract string `yaml:"hat_contract"` // CHAIN_HAT_CONTRACT — default: "" (hat lookups disabled)
}

// StorageConfig locates the run journal database.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // STORAGE_DB_PATH — default: "hatsagent.sqlite"
}

const (
	envKeyServerAddr      = "SERVER_ADDR"
	envKeyServerJWTSecret = "SERVER_JWT_SECRET"
	envKeyLLMProvider     = "LLM_PROVIDER"
	envKeyLLMModel        = "LLM_MODEL"
	envKeyOllamaAPIURL    = "WAVS_ENV_OLLAMA_API_URL"
	envKeyOpenAIAPIKey    = "WAVS_ENV_OPENAI_API_KEY"
	envKeyAnthropicAPIKey = "WAVS_ENV_ANTHROPIC_API_KEY"
	envKeyChainRPCURL     = "CHAIN_RPC_URL"
	envKeyHatContract     = "CHAIN_HAT_CONTRACT"
	envKeyDBPath          = "STORAGE_DB_PATH"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		LLM: LLMConfig{
			Provider:      "ollama",
			Model:         "llama3.1",
			OllamaBaseURL: "http://localhost:11434",
		},
		Chain: ChainConfig{
			RPCURL: "http://localhost:8545",
		},
		Storage: StorageConfig{
			DBPath: "hatsagent.sqlite",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variable overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Server.Addr, envKeyServerAddr)
	setFromEnv(&cfg.Server.JWTSecret, envKeyServerJWTSecret)
	setFromEnv(&cfg.LLM.Provider, envKeyLLMProvider)
	setFromEnv(&cfg.LLM.Model, envKeyLLMModel)
	setFromEnv(&cfg.LLM.OllamaBaseURL, envKeyOllamaAPIURL)
	setFromEnv(&cfg.LLM.OpenAIKey, envKeyOpenAIAPIKey)
	setFromEnv(&cfg.LLM.AnthropicKey, envKeyAnthropicAPIKey)
	setFromEnv(&cfg.Chain.RPCURL, envKeyChainRPCURL)
	setFromEnv(&cfg.Chain.HatContract, envKeyHatContract)
	setFromEnv(&cfg.Storage.DBPath, envKeyDBPath)
}

// setFromEnv overwrites dst when the environment variable is set and non-empty.
func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// AuthEnabled reports whether the API routes require a bearer token.
func (c ServerConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}
