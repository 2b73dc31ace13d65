package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mpazaryna/telos/pkg/config"
	"github.com/mpazaryna/telos/pkg/presenter"
)

const starterSkill = `---
description: Summarize the files in the working directory
---
# Summarize

List the files in the working directory, read any that look important, and
write a short summary of what this directory contains.
`

const starterManifest = `[agent]
name = "starter"
description = "A starter agent with one example skill"
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a starter agent pack",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "starter"
		if len(args) > 0 {
			dir = args[0]
		}

		if _, err := os.Stat(dir); err == nil {
			return errors.Errorf("%s already exists", dir)
		}

		skillDir := filepath.Join(dir, "skills", "summarize")
		if err := os.MkdirAll(skillDir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create pack directories")
		}
		if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0o755); err != nil {
			return errors.Wrap(err, "failed to create scripts directory")
		}

		if err := os.WriteFile(filepath.Join(dir, "agent.toml"), []byte(starterManifest), 0o644); err != nil {
			return errors.Wrap(err, "failed to write agent.toml")
		}
		if err := os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(starterSkill), 0o644); err != nil {
			return errors.Wrap(err, "failed to write SKILL.md")
		}

		configPath, err := config.ConfigPath()
		if err != nil {
			return err
		}

		presenter.Success(fmt.Sprintf("created starter pack in %s", dir))
		presenter.Info(fmt.Sprintf("install it with `telos install %s`, or link it in %s", dir, configPath))
		return nil
	},
	SilenceUsage: true,
}
