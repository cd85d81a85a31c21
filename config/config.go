// Package config loads the optional TOML-backed settings a host process
// uses to construct a chat.Chat: dedupe bounds, per-adapter options, and
// logging level. None of this is required by the chat package itself —
// Chat can be built entirely through chat.New and its functional options —
// this is convenience plumbing for hosts that prefer a config file over
// wiring options by hand, the same relationship the teacher's
// internal/channel/config.go holds to internal/channel's core types.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/chatcore/sdk/chat"
)

// AdapterConfig is one [adapters.<name>] table: arbitrary platform
// credentials/options that ToMetadata places under adapter_opts, where
// host code can read them via Chat.AdapterOpts and pass them to
// chat.InitializeAdapter. chat.WithAdapter itself does not read them.
type AdapterConfig struct {
	Enabled bool           `toml:"enabled"`
	Options map[string]any `toml:"options"`
}

// ChatOptions is the root decoded shape of a chatcore TOML config file.
type ChatOptions struct {
	UserName     string                   `toml:"user_name"`
	DedupeLimit  int                      `toml:"dedupe_limit"`
	LogLevel     string                   `toml:"log_level"`
	Adapters     map[string]AdapterConfig `toml:"adapters"`
}

// Load reads and decodes path into a ChatOptions, applying DefaultDedupeLimit
// when the file does not set one.
func Load(path string) (ChatOptions, error) {
	var opts ChatOptions
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return ChatOptions{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if opts.DedupeLimit <= 0 {
		opts.DedupeLimit = chat.DefaultDedupeLimit
	}
	return opts, nil
}

// ToMetadata projects the decoded options into the Chat.Metadata shape the
// core reads dedupe_limit and adapter_opts from (chat/state.go).
func (o ChatOptions) ToMetadata() map[string]any {
	adapterOpts := make(map[string]any, len(o.Adapters))
	for name, cfg := range o.Adapters {
		if !cfg.Enabled {
			continue
		}
		adapterOpts[strings.ToLower(strings.TrimSpace(name))] = cfg.Options
	}
	return map[string]any{
		"dedupe_limit": o.DedupeLimit,
		"adapter_opts": adapterOpts,
	}
}

// IsAdapterEnabled reports whether name's table set enabled = true.
func (o ChatOptions) IsAdapterEnabled(name string) bool {
	cfg, ok := o.Adapters[strings.ToLower(strings.TrimSpace(name))]
	return ok && cfg.Enabled
}
