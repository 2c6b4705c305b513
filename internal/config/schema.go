package config

import "time"

// ModelPreset describes one streaming model the chat can run against
type ModelPreset struct {
	Provider    string  `mapstructure:"provider" json:"provider" jsonschema:"enum=openai,enum=anthropic,enum=googleai,enum=script,enum=lorem" validate:"required,oneof=openai anthropic googleai script lorem"`
	Name        string  `mapstructure:"name" json:"name,omitempty"`
	Temperature float64 `mapstructure:"temperature" json:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"maxTokens" json:"maxTokens,omitempty" validate:"gte=0"`
	BaseURL     string  `mapstructure:"baseUrl" json:"baseUrl,omitempty" validate:"omitempty,url"`
	// ScriptPath points at a JSON fragment script for the script provider
	ScriptPath string `mapstructure:"scriptPath" json:"scriptPath,omitempty"`
	// WordDelay paces the lorem provider
	WordDelay time.Duration `mapstructure:"wordDelay" json:"wordDelay,omitempty"`
}

// Internal is used for one-off completions such as summarising provider data
type Internal struct {
	Model         string `mapstructure:"model" json:"model"`
	SummaryPrompt string `mapstructure:"summaryPrompt" json:"summaryPrompt,omitempty"`
}

type Embedding struct {
	Model string `mapstructure:"model" json:"model"`
}

// Endpoint configures one external data provider
type Endpoint struct {
	BaseURL string        `mapstructure:"baseUrl" json:"baseUrl" validate:"omitempty,url"`
	APIKey  string        `mapstructure:"apiKey" json:"apiKey,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
	Retries int           `mapstructure:"retries" json:"retries,omitempty" validate:"gte=0,lte=10"`
}

type Providers struct {
	CoinGecko Endpoint `mapstructure:"coingecko" json:"coingecko"`
	Tavily    Endpoint `mapstructure:"tavily" json:"tavily"`
	Bird      Endpoint `mapstructure:"bird" json:"bird"`
}

// SolanaAddress is one entry of the known address directory
type SolanaAddress struct {
	Address     string `mapstructure:"address" json:"address" validate:"required"`
	Description string `mapstructure:"description" json:"description"`
}

type Solana struct {
	Addresses []SolanaAddress `mapstructure:"addresses" json:"addresses" validate:"dive"`
}

type Turn struct {
	Timeout time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
}

type Purchase struct {
	StepDelay time.Duration `mapstructure:"stepDelay" json:"stepDelay,omitempty"`
}

type Prompts struct {
	System string `mapstructure:"system" json:"system"`
}

type Log struct {
	LogLevel string `mapstructure:"level" json:"level" jsonschema:"enum=DEBUG,enum=INFO,enum=WARN,enum=ERROR" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	LogFile  string `mapstructure:"file" json:"file,omitempty"`
}

type ConfigSchema struct {
	ActiveModel string                 `mapstructure:"activeModel" json:"activeModel" validate:"required"`
	Models      map[string]ModelPreset `mapstructure:"models" json:"models" validate:"required,dive"`
	Internal    Internal               `mapstructure:"internal" json:"internal"`
	Embedding   Embedding              `mapstructure:"embedding" json:"embedding"`
	Providers   Providers              `mapstructure:"providers" json:"providers"`
	Solana      Solana                 `mapstructure:"solana" json:"solana"`
	Turn        Turn                   `mapstructure:"turn" json:"turn"`
	Purchase    Purchase               `mapstructure:"purchase" json:"purchase"`
	Prompts     Prompts                `mapstructure:"prompts" json:"prompts"`
	DBPath      string                 `mapstructure:"dbPath" json:"dbPath"`
	Log         Log                    `mapstructure:"log" json:"log"`

	// Internal fields for printing
	sources map[string][]configSource
}

// Active returns the preset selected by activeModel
func (s *ConfigSchema) Active() ModelPreset {
	return s.Models[s.ActiveModel]
}
