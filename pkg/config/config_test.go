package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TELOS_DATA_DIR", t.TempDir())

	path := writeConfig(t, `
[defaults]
default_agent = "research"

[agents.research]
mode = "linked"
description = "Research assistant"
skills_dir = "/opt/packs/research/skills"
working_dir = "/tmp/research"

[agents.notes]
mode = "installed"
description = "Note taking"
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "research", config.DefaultAgent)
	require.Len(t, config.Agents, 2)

	research := config.Agents["research"]
	assert.Equal(t, "research", research.Name)
	assert.Equal(t, ModeLinked, research.Mode)
	assert.Equal(t, "/opt/packs/research/skills", research.SkillsDir)
	assert.Equal(t, "/tmp/research", research.WorkingDir)
	assert.Equal(t, "/opt/packs/research", research.PackDir)
	assert.Equal(t, "/opt/packs/research/scripts", research.ScriptDir())
	assert.Equal(t, "/opt/packs/research/mcp.json", research.MCPConfigPath())

	notes := config.Agents["notes"]
	assert.Equal(t, ModeInstalled, notes.Mode)
	dataDir := os.Getenv("TELOS_DATA_DIR")
	assert.Equal(t, filepath.Join(dataDir, "agents", "notes", "skills"), notes.SkillsDir)
}

func TestLoadPackDirAndMCPConfig(t *testing.T) {
	path := writeConfig(t, `
[agents.research]
mode = "linked"
skills_dir = "/opt/packs/research/skills"
pack_dir = "/opt/elsewhere/research"
mcp_config = "/etc/telos/research-mcp.json"
`)

	config, err := Load(path)
	require.NoError(t, err)

	research := config.Agents["research"]
	assert.Equal(t, "/opt/elsewhere/research", research.PackDir)
	assert.Equal(t, "/opt/elsewhere/research/scripts", research.ScriptDir())
	assert.Equal(t, "/etc/telos/research-mcp.json", research.MCPConfigPath())
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "agents.toml"))
	require.NoError(t, err)
	assert.Empty(t, config.Agents)
	assert.Empty(t, config.DefaultAgent)
}

func TestLoadLinkedRequiresSkillsDir(t *testing.T) {
	path := writeConfig(t, `
[agents.broken]
mode = "linked"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skills_dir")
}

func TestLoadDefaultAgentMustExist(t *testing.T) {
	path := writeConfig(t, `
[defaults]
default_agent = "ghost"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestLoadUnknownMode(t *testing.T) {
	path := writeConfig(t, `
[agents.odd]
mode = "floating"
skills_dir = "/x"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestLoadModeDefaultsToLinked(t *testing.T) {
	path := writeConfig(t, `
[agents.plain]
skills_dir = "/opt/packs/plain/skills"
`)
	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeLinked, config.Agents["plain"].Mode)
}

func TestResolve(t *testing.T) {
	config := &Config{
		DefaultAgent: "a",
		Agents: map[string]Agent{
			"a": {Name: "a"},
			"b": {Name: "b"},
		},
	}

	agent, err := config.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "a", agent.Name)

	agent, err = config.Resolve("b")
	require.NoError(t, err)
	assert.Equal(t, "b", agent.Name)

	_, err = config.Resolve("c")
	assert.Error(t, err)
}

func TestResolveNoDefault(t *testing.T) {
	config := &Config{Agents: map[string]Agent{}}
	_, err := config.Resolve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no default agent")
}

func TestNamesSorted(t *testing.T) {
	config := &Config{Agents: map[string]Agent{
		"zeta": {}, "alpha": {}, "mid": {},
	}}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, config.Names())
}

func TestDirOverrides(t *testing.T) {
	t.Setenv("TELOS_CONFIG_DIR", "/custom/config")
	t.Setenv("TELOS_DATA_DIR", "/custom/data")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config", dir)

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/custom/config/agents.toml", path)

	dataDir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/data", dataDir)

	journalDir, err := JournalDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/data/logs", journalDir)

	agentsDir, err := AgentsDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/data/agents", agentsDir)
}

func TestDirDefaults(t *testing.T) {
	t.Setenv("TELOS_CONFIG_DIR", "")
	t.Setenv("TELOS_DATA_DIR", "")

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "telos"), dir)

	dataDir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "telos"), dataDir)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/packs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "packs"), got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
