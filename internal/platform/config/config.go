package config

import (
	"time"
)

type Config struct {
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Web     WebConfig     `yaml:"web" mapstructure:"web"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Auth    AuthConfig    `yaml:"auth" mapstructure:"auth"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
}

type ServerConfig struct {
	IP   string `yaml:"ip" mapstructure:"ip"`
	Port int    `yaml:"port" mapstructure:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level" mapstructure:"log_level"`
	Dir   string `yaml:"log_dir" mapstructure:"log_dir"`
	File  string `yaml:"log_file" mapstructure:"log_file"`
}

type WebConfig struct {
	StaticDir string `yaml:"static_dir" mapstructure:"static_dir"`
}

// StoreConfig selects and tunes the user store backend.
type StoreConfig struct {
	Driver        string            `yaml:"driver" mapstructure:"driver"` // file/sqlite
	Path          string            `yaml:"path" mapstructure:"path"`     // flat file location
	FlushInterval time.Duration     `yaml:"flush_interval" mapstructure:"flush_interval"`
	SQLite        StoreSQLiteConfig `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
}

type StoreSQLiteConfig struct {
	DSN string `yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// SessionConfig selects and tunes the session registry backend.
type SessionConfig struct {
	Driver     string             `yaml:"driver" mapstructure:"driver"` // memory/redis
	MaxPerUser int                `yaml:"max_per_user" mapstructure:"max_per_user"`
	Redis      SessionRedisConfig `yaml:"redis,omitempty" mapstructure:"redis"`
}

type SessionRedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `yaml:"db,omitempty" mapstructure:"db"`
	Prefix   string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

type AuthConfig struct {
	// BypassEmail is exempt from the payment gate. Comparison is
	// case-insensitive after normalization.
	BypassEmail string `yaml:"bypass_email" mapstructure:"bypass_email"`
}

type LLMConfig struct {
	Provider     string        `yaml:"provider" mapstructure:"provider"` // openai/polling
	ModelName    string        `yaml:"model_name" mapstructure:"model_name"`
	BaseURL      string        `yaml:"url" mapstructure:"url"`
	APIKey       string        `yaml:"api_key" mapstructure:"api_key"`
	Temperature  float32       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens    int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	SystemPrompt string        `yaml:"system_prompt" mapstructure:"system_prompt"`
	Poll         PollConfig    `yaml:"poll,omitempty" mapstructure:"poll"`
}

// PollConfig tunes the submit/poll provider used for asynchronous upstreams.
type PollConfig struct {
	SubmitURL string        `yaml:"submit_url" mapstructure:"submit_url"`
	Interval  time.Duration `yaml:"interval" mapstructure:"interval"`
	Deadline  time.Duration `yaml:"deadline" mapstructure:"deadline"`
}
