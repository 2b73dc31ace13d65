package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mpazaryna/telos/pkg/config"
	"github.com/mpazaryna/telos/pkg/executor"
	"github.com/mpazaryna/telos/pkg/presenter"
	"github.com/mpazaryna/telos/pkg/skills"
)

// runInteractive walks an agent menu, then a skill menu, then asks whether
// to execute, dry-run or quit. Invoked when telos starts on a terminal with
// no arguments.
func runInteractive(ctx context.Context) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	names := cfg.Names()
	if len(names) == 0 {
		presenter.Info("No agents configured. Run `telos init` then `telos install` to add one.")
		return nil
	}

	presenter.Section("Agents")
	for i, name := range names {
		agent := cfg.Agents[name]
		count := 0
		if available, err := skills.Discover(agent.SkillsDir); err == nil {
			count = len(available)
		}
		presenter.Info(fmt.Sprintf("  %2d. %-20s %2d skills  %s", i+1, name, count, agent.Description))
	}
	presenter.Info("")

	idx, ok := selectOption(presenter.Prompt("Select agent (number or name, q to quit):"), names)
	if !ok {
		return nil
	}
	agent := cfg.Agents[names[idx]]

	available, err := skills.Discover(agent.SkillsDir)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return errors.Errorf("agent %q has no skills", agent.Name)
	}

	presenter.Section(fmt.Sprintf("Skills for %s", agent.Name))
	skillNames := make([]string, 0, len(available))
	for i, skill := range available {
		skillNames = append(skillNames, skill.Name)
		presenter.Info(fmt.Sprintf("  %2d. %-24s %s", i+1, skill.Name, skill.Description))
	}
	presenter.Info("")

	idx, ok = selectOption(presenter.Prompt("Select skill (number or name, q to quit):"), skillNames)
	if !ok {
		return nil
	}
	skill := available[idx]

	presenter.Success(fmt.Sprintf("Matched: agent=%s, skill=%s", agent.Name, skill.Name))

	switch strings.ToLower(presenter.Prompt("Run? (y = execute, d = dry run, q = quit)")) {
	case "d":
		presenter.Dim(fmt.Sprintf("Dry run: would execute skill %q on agent %q", skill.Name, agent.Name))
		return nil
	case "y":
		env := executor.LoadEnv(agent.PackDir)
		return runSkill(ctx, agent, skill, env, "Run this skill.", os.Stdout)
	default:
		return nil
	}
}

// selectOption resolves a menu answer: a 1-based number or a
// case-insensitive option name. Reports false on quit or invalid input.
func selectOption(answer string, options []string) (int, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" || strings.EqualFold(answer, "q") {
		return 0, false
	}
	if idx, err := strconv.Atoi(answer); err == nil {
		if idx >= 1 && idx <= len(options) {
			return idx - 1, true
		}
		return 0, false
	}
	for i, option := range options {
		if strings.EqualFold(answer, option) {
			return i, true
		}
	}
	return 0, false
}
