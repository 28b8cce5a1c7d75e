package config

import "github.com/spf13/viper"

// Config holds runtime configuration for a gitkan session.
// Values are populated from .gitkan.yaml, GITKAN_* env vars, and CLI flags.
type Config struct {
	// RepoRoot is the repository root containing .kanban/.
	RepoRoot string `mapstructure:"repo_root"`
	// ActorID identifies the acting user in appended ops. Informational
	// only; git remote ACLs are the real access boundary.
	ActorID string `mapstructure:"actor_id"`
	// Git enables the durability adapter: stage and commit each op file
	// after append. Disabling it is no-git mode.
	Git bool `mapstructure:"git"`
	// Remote and Branch are the sync defaults for fetch/pull/push.
	Remote string `mapstructure:"remote"`
	Branch string `mapstructure:"branch"`
	// Snapshot enables the SQLite state cache for read commands.
	Snapshot bool `mapstructure:"snapshot"`
	Verbose  bool `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() Config {
	viper.SetDefault("repo_root", ".")
	viper.SetDefault("actor_id", "")
	viper.SetDefault("git", true)
	viper.SetDefault("remote", "origin")
	viper.SetDefault("branch", "")
	viper.SetDefault("snapshot", false)
	viper.SetDefault("verbose", false)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
