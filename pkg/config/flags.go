package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults and descriptions inline, so the same logical flag
// cannot drift between "specialist chat" and "specialist memory".
type Flag struct {
	// Name is the long flag name (e.g. "model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "model.chat").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of registry keys to Flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagCompleteModel  = "complete-model"
	FlagChatModel      = "chat-model"
	FlagMemory         = "memory"
	FlagMemoryPath     = "memory-path"
	FlagMemoryProvider = "memory-provider"
	FlagMemoryModel    = "memory-model"
	FlagMCPListen      = "mcp-listen"
	FlagUsage          = "usage"
)

// Flags is the registry shared by every specialist command.
var Flags = FlagSet{
	FlagCompleteModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "model.complete",
		Description: "Model to use, as provider/model",
	},
	FlagChatModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "model.chat",
		Description: "Model to use, as provider/model",
	},
	FlagMemory: {
		Name:        "memory",
		ViperKey:    "memory.enabled",
		Description: "Remember facts about the user across turns",
	},
	FlagMemoryPath: {
		Name:        "memory-path",
		ViperKey:    "memory.path",
		Description: "Directory holding the memory store",
	},
	FlagMemoryProvider: {
		Name:        "memory-provider",
		ViperKey:    "memory.provider",
		Description: "Memory backend (local, sqlite)",
	},
	FlagMemoryModel: {
		Name:        "memory-model",
		ViperKey:    "memory.model",
		Description: "Model used for fact extraction, defaults to the chat model",
	},
	FlagMCPListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "mcp.listen",
		Description: "Address for the streamable HTTP MCP server",
	},
	FlagUsage: {
		Name:        "usage",
		ViperKey:    "usage.enabled",
		Description: "Record token usage in usage.json",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default and description all come from the
// FlagSet entry.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultViper().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
