// Package installer copies agent packs under the data directory and keeps
// the agents.toml registry in sync.
package installer

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mpazaryna/telos/pkg/config"
)

// packManifest is the [agent] table of a pack's agent.toml.
type packManifest struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	WorkingDir  string `mapstructure:"working_dir"`
}

// Result summarizes an install.
type Result struct {
	Name        string
	Description string
	SkillCount  int
	Dir         string
}

// Install copies the pack at packDir into the data directory and registers
// it as an installed agent. Reinstalling an existing agent replaces it.
func Install(packDir string) (*Result, error) {
	manifest, err := readManifest(packDir)
	if err != nil {
		return nil, err
	}

	skillsDir := filepath.Join(packDir, "skills")
	skillCount, err := countSkills(skillsDir)
	if err != nil {
		return nil, err
	}
	if skillCount == 0 {
		return nil, errors.Errorf("pack %q has no skills", manifest.Name)
	}

	agentsDir, err := config.AgentsDataDir()
	if err != nil {
		return nil, err
	}
	dst := filepath.Join(agentsDir, manifest.Name)

	if err := os.RemoveAll(dst); err != nil {
		return nil, errors.Wrap(err, "failed to remove previous install")
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create install directory")
	}
	if err := os.CopyFS(dst, os.DirFS(packDir)); err != nil {
		return nil, errors.Wrap(err, "failed to copy pack")
	}

	if err := register(manifest); err != nil {
		return nil, err
	}

	return &Result{
		Name:        manifest.Name,
		Description: manifest.Description,
		SkillCount:  skillCount,
		Dir:         dst,
	}, nil
}

// Uninstall removes an installed agent's files and registry entry. Linked
// agents are refused since their files live outside the data directory.
func Uninstall(name string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	agent, ok := cfg.Agents[name]
	if !ok {
		return errors.Errorf("unknown agent: %s", name)
	}
	if agent.Mode != config.ModeInstalled {
		return errors.Errorf("agent %q is linked, not installed; remove it from agents.toml instead", name)
	}

	agentsDir, err := config.AgentsDataDir()
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(agentsDir, name)); err != nil {
		return errors.Wrap(err, "failed to remove agent files")
	}

	delete(cfg.Agents, name)
	if cfg.DefaultAgent == name {
		cfg.DefaultAgent = ""
	}
	return writeRegistry(cfg)
}

func readManifest(packDir string) (*packManifest, error) {
	v := viper.New()
	v.SetConfigFile(filepath.Join(packDir, "agent.toml"))
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read agent.toml")
	}

	manifest := &packManifest{}
	if err := v.UnmarshalKey("agent", manifest); err != nil {
		return nil, errors.Wrap(err, "failed to parse agent.toml")
	}
	if manifest.Name == "" {
		return nil, errors.New("agent.toml has no agent.name")
	}
	return manifest, nil
}

func countSkills(skillsDir string) (int, error) {
	entries, err := os.ReadDir(skillsDir)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read pack skills directory")
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(skillsDir, entry.Name(), "SKILL.md")); err == nil {
			count++
		}
	}
	return count, nil
}

func register(manifest *packManifest) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cfg.Agents[manifest.Name] = config.Agent{
		Name:        manifest.Name,
		Mode:        config.ModeInstalled,
		Description: manifest.Description,
		WorkingDir:  manifest.WorkingDir,
	}
	return writeRegistry(cfg)
}

// writeRegistry rewrites agents.toml from scratch. Viper cannot delete
// keys, so the document is rebuilt on every change.
func writeRegistry(cfg *config.Config) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	v := viper.New()
	v.SetConfigType("toml")

	if cfg.DefaultAgent != "" {
		v.Set("defaults.default_agent", cfg.DefaultAgent)
	}

	agents := map[string]map[string]string{}
	for name, agent := range cfg.Agents {
		entry := map[string]string{"mode": agent.Mode}
		if agent.Description != "" {
			entry["description"] = agent.Description
		}
		if agent.WorkingDir != "" {
			entry["working_dir"] = agent.WorkingDir
		}
		if agent.Mode == config.ModeLinked {
			entry["skills_dir"] = agent.SkillsDir
		}
		// Only explicit overrides are persisted; derived defaults are not.
		if agent.PackDir != "" && agent.PackDir != filepath.Dir(agent.SkillsDir) {
			entry["pack_dir"] = agent.PackDir
		}
		if agent.MCPConfig != "" {
			entry["mcp_config"] = agent.MCPConfig
		}
		agents[name] = entry
	}
	v.Set("agents", agents)

	return errors.Wrap(v.WriteConfigAs(configPath), "failed to write agents.toml")
}
