package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpazaryna/telos/pkg/config"
)

func makePack(t *testing.T, name string, skillNames ...string) string {
	t.Helper()
	packDir := t.TempDir()

	manifest := "[agent]\nname = \"" + name + "\"\ndescription = \"Test pack\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(packDir, "agent.toml"), []byte(manifest), 0o644))

	for _, skill := range skillNames {
		dir := filepath.Join(packDir, "skills", skill)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		content := "---\ndescription: " + skill + "\n---\nDo " + skill + ".\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
	}

	scriptsDir := filepath.Join(packDir, "scripts")
	require.NoError(t, os.MkdirAll(scriptsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scriptsDir, "helper.sh"), []byte("#!/bin/sh\n"), 0o755))

	return packDir
}

func setupDirs(t *testing.T) {
	t.Helper()
	base := t.TempDir()
	t.Setenv("TELOS_CONFIG_DIR", filepath.Join(base, "config"))
	t.Setenv("TELOS_DATA_DIR", filepath.Join(base, "data"))
}

func TestInstall(t *testing.T) {
	setupDirs(t)
	packDir := makePack(t, "reporter", "weekly-report", "daily-notes")

	result, err := Install(packDir)
	require.NoError(t, err)
	assert.Equal(t, "reporter", result.Name)
	assert.Equal(t, "Test pack", result.Description)
	assert.Equal(t, 2, result.SkillCount)

	// pack files copied, scripts included
	assert.FileExists(t, filepath.Join(result.Dir, "skills", "weekly-report", "SKILL.md"))
	assert.FileExists(t, filepath.Join(result.Dir, "scripts", "helper.sh"))

	// registry entry written
	configPath, err := config.ConfigPath()
	require.NoError(t, err)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	agent, ok := cfg.Agents["reporter"]
	require.True(t, ok)
	assert.Equal(t, config.ModeInstalled, agent.Mode)
	assert.Equal(t, "Test pack", agent.Description)
	assert.Equal(t, filepath.Join(result.Dir, "skills"), agent.SkillsDir)
}

func TestInstallReplacesExisting(t *testing.T) {
	setupDirs(t)

	first := makePack(t, "reporter", "old-skill")
	result, err := Install(first)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(result.Dir, "skills", "old-skill", "SKILL.md"))

	second := makePack(t, "reporter", "new-skill")
	result, err = Install(second)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(result.Dir, "skills", "new-skill", "SKILL.md"))
	assert.NoFileExists(t, filepath.Join(result.Dir, "skills", "old-skill", "SKILL.md"))
}

func TestInstallRejectsEmptyPack(t *testing.T) {
	setupDirs(t)
	packDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(packDir, "agent.toml"), []byte("[agent]\nname = \"empty\"\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(packDir, "skills"), 0o755))

	_, err := Install(packDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no skills")
}

func TestInstallRequiresManifest(t *testing.T) {
	setupDirs(t)
	_, err := Install(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.toml")
}

func TestInstallRequiresName(t *testing.T) {
	setupDirs(t)
	packDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(packDir, "agent.toml"), []byte("[agent]\ndescription = \"x\"\n"), 0o644))

	_, err := Install(packDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.name")
}

func TestUninstall(t *testing.T) {
	setupDirs(t)
	packDir := makePack(t, "reporter", "weekly-report")

	result, err := Install(packDir)
	require.NoError(t, err)

	require.NoError(t, Uninstall("reporter"))

	assert.NoDirExists(t, result.Dir)

	configPath, err := config.ConfigPath()
	require.NoError(t, err)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Agents, "reporter")
}

func TestUninstallKeepsOtherAgents(t *testing.T) {
	setupDirs(t)

	_, err := Install(makePack(t, "one", "skill-a"))
	require.NoError(t, err)
	_, err = Install(makePack(t, "two", "skill-b"))
	require.NoError(t, err)

	require.NoError(t, Uninstall("one"))

	configPath, err := config.ConfigPath()
	require.NoError(t, err)
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Agents, "one")
	assert.Contains(t, cfg.Agents, "two")
}

func TestUninstallKeepsLinkedAgentOverrides(t *testing.T) {
	setupDirs(t)

	// A linked agent with explicit overrides sits alongside an installed
	// one; the registry rewrite on uninstall must not drop them.
	configPath, err := config.ConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
	require.NoError(t, os.WriteFile(configPath, []byte(`
[agents.research]
mode = "linked"
skills_dir = "/opt/packs/research/skills"
pack_dir = "/opt/elsewhere/research"
mcp_config = "/etc/telos/research-mcp.json"
`), 0o644))

	_, err = Install(makePack(t, "reporter", "weekly-report"))
	require.NoError(t, err)
	require.NoError(t, Uninstall("reporter"))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	research, ok := cfg.Agents["research"]
	require.True(t, ok)
	assert.Equal(t, "/opt/elsewhere/research", research.PackDir)
	assert.Equal(t, "/etc/telos/research-mcp.json", research.MCPConfig)
}

func TestUninstallUnknownAgent(t *testing.T) {
	setupDirs(t)
	err := Uninstall("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}
