package config

import "time"

// DefaultSystemPrompt is the instruction sent ahead of every generation
// request. The output contract (CODE/EXPLANATION sections) is what the
// reply parser expects; replies that ignore it are still accepted verbatim.
const DefaultSystemPrompt = `You are LuaSpark, an AI assistant that generates functional Roblox LuaU scripts. Always respond with code and short explanations when needed. Structure your answer as:
CODE:
<the script>
---
EXPLANATION:
<short explanation>`

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 5000,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			StaticDir: "./public",
		},
		Store: StoreConfig{
			Driver:        "file",
			Path:          "./users.json",
			FlushInterval: 60 * time.Second,
		},
		Session: SessionConfig{
			Driver:     "memory",
			MaxPerUser: 5,
		},
		LLM: LLMConfig{
			Provider:     "openai",
			ModelName:    "gpt-4o-mini",
			Temperature:  0.3,
			MaxTokens:    700,
			Timeout:      60 * time.Second,
			SystemPrompt: DefaultSystemPrompt,
			Poll: PollConfig{
				Interval: 1200 * time.Millisecond,
				Deadline: 60 * time.Second,
			},
		},
	}
}
