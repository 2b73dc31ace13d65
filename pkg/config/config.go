// Package config locates the telos directories and loads the agent
// registry from agents.toml.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Agent modes. A linked agent points at a pack checked out elsewhere on
// disk; an installed agent was copied under the data directory.
const (
	ModeLinked    = "linked"
	ModeInstalled = "installed"
)

// Agent is one entry in agents.toml. PackDir defaults to the parent of the
// skills directory; MCPConfig is optional and overrides the pack-local
// mcp.json location.
type Agent struct {
	Name        string `mapstructure:"-"`
	Mode        string `mapstructure:"mode"`
	Description string `mapstructure:"description"`
	SkillsDir   string `mapstructure:"skills_dir"`
	WorkingDir  string `mapstructure:"working_dir"`
	PackDir     string `mapstructure:"pack_dir"`
	MCPConfig   string `mapstructure:"mcp_config"`
}

// ScriptDir returns the pack's companion scripts directory. Shell commands
// run there so skills can ship helper scripts next to their instructions.
func (a Agent) ScriptDir() string {
	return filepath.Join(a.PackDir, "scripts")
}

// MCPConfigPath returns the external server declaration file for the agent:
// the configured mcp_config when set, else mcp.json at the pack root.
func (a Agent) MCPConfigPath() string {
	if a.MCPConfig != "" {
		return a.MCPConfig
	}
	return filepath.Join(a.PackDir, "mcp.json")
}

// Config is the loaded agent registry.
type Config struct {
	DefaultAgent string
	Agents       map[string]Agent
}

// ConfigDir returns the directory holding agents.toml. TELOS_CONFIG_DIR
// overrides the default of ~/.config/telos.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TELOS_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".config", "telos"), nil
}

// DataDir returns the directory holding installed agents and the journal.
// TELOS_DATA_DIR overrides the default of ~/.local/share/telos.
func DataDir() (string, error) {
	if dir := os.Getenv("TELOS_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".local", "share", "telos"), nil
}

// ConfigPath returns the path of agents.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "agents.toml"), nil
}

// JournalDir returns the directory of the per-day journal files.
func JournalDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// AgentsDataDir returns the directory installed agent packs are copied to.
func AgentsDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "agents"), nil
}

// ExpandHome replaces a leading ~ with the home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Load reads agents.toml from path. A missing file yields an empty
// registry so listing commands work before any agent is configured.
func Load(path string) (*Config, error) {
	config := &Config{Agents: map[string]Agent{}}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read agents.toml")
	}

	config.DefaultAgent = v.GetString("defaults.default_agent")

	specs := map[string]Agent{}
	if err := v.UnmarshalKey("agents", &specs); err != nil {
		return nil, errors.Wrap(err, "failed to parse agents")
	}

	agentsDataDir, err := AgentsDataDir()
	if err != nil {
		return nil, err
	}

	for name, agent := range specs {
		agent.Name = name
		if agent.Mode == "" {
			agent.Mode = ModeLinked
		}

		switch agent.Mode {
		case ModeLinked:
			if agent.SkillsDir == "" {
				return nil, errors.Errorf("linked agent %q has no skills_dir", name)
			}
			agent.SkillsDir, err = ExpandHome(agent.SkillsDir)
			if err != nil {
				return nil, err
			}
		case ModeInstalled:
			// Installed packs live under the data directory; the entry
			// does not need to repeat the path.
			if agent.SkillsDir == "" {
				agent.SkillsDir = filepath.Join(agentsDataDir, name, "skills")
			}
		default:
			return nil, errors.Errorf("agent %q has unknown mode %q", name, agent.Mode)
		}

		if agent.PackDir == "" {
			agent.PackDir = filepath.Dir(agent.SkillsDir)
		} else {
			agent.PackDir, err = ExpandHome(agent.PackDir)
			if err != nil {
				return nil, err
			}
		}
		if agent.MCPConfig != "" {
			agent.MCPConfig, err = ExpandHome(agent.MCPConfig)
			if err != nil {
				return nil, err
			}
		}

		config.Agents[name] = agent
	}

	if config.DefaultAgent != "" {
		if _, ok := config.Agents[config.DefaultAgent]; !ok {
			return nil, errors.Errorf("default agent %q is not configured", config.DefaultAgent)
		}
	}

	return config, nil
}

// Resolve returns the named agent, falling back to the default agent when
// name is empty.
func (c *Config) Resolve(name string) (Agent, error) {
	if name == "" {
		name = c.DefaultAgent
	}
	if name == "" {
		return Agent{}, errors.New("no agent specified and no default agent configured")
	}
	agent, ok := c.Agents[name]
	if !ok {
		return Agent{}, errors.Errorf("unknown agent: %s", name)
	}
	return agent, nil
}

// Names returns the configured agent names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
