package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys are separated by
// "__", e.g. DOCVAULT_SERVER__PORT or DOCVAULT_STORAGE__UPLOAD_DIR.
const EnvPrefix = "DOCVAULT_"

// ApplyEnv overlays DOCVAULT_* variables from environ (KEY=VALUE pairs) onto cfg.
// List values are comma separated.
func ApplyEnv(cfg *Config, environ []string) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load config values: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   func() []string { return environ },
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	// Decode into a fresh value so lists from the environment replace, not patch, file lists.
	var out Config
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("failed to apply environment: %w", err)
	}
	*cfg = out
	return nil
}

func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	switch key {
	case "watch.directories", "watch.extensions":
		if value == "" {
			return key, []string{}
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}
