package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mpazaryna/telos/pkg/config"
	"github.com/mpazaryna/telos/pkg/executor"
	"github.com/mpazaryna/telos/pkg/journal"
	"github.com/mpazaryna/telos/pkg/llm"
	"github.com/mpazaryna/telos/pkg/logger"
	"github.com/mpazaryna/telos/pkg/mcp"
	"github.com/mpazaryna/telos/pkg/presenter"
	"github.com/mpazaryna/telos/pkg/router"
	"github.com/mpazaryna/telos/pkg/skills"
	"github.com/mpazaryna/telos/pkg/tools"
)

// RunOptions holds the flags shared by the root and run commands.
type RunOptions struct {
	agent   string
	dryRun  bool
	verbose bool
}

var runOptions = &RunOptions{}

// runCmd is what bare arguments forward to. Hidden because `telos <request>`
// is the documented form.
var runCmd = &cobra.Command{
	Use:    "run [request]",
	Short:  "Route a request to a skill and execute it",
	Hidden: true,
	Args:   cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRequest(cmd.Context(), strings.Join(args, " "))
	},
	SilenceUsage: true,
}

// runRequest is the core flow: resolve the agent, discover its skills,
// route the request, then execute the chosen skill.
func runRequest(ctx context.Context, request string) error {
	agent, err := resolveAgent()
	if err != nil {
		return err
	}

	available, err := skills.Discover(agent.SkillsDir)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return errors.Errorf("agent %q has no skills", agent.Name)
	}

	env := executor.LoadEnv(agent.PackDir)

	skill, ok, err := router.NewRouter(env["ANTHROPIC_API_KEY"]).Route(ctx, available, request)
	if err != nil {
		return errors.Wrap(err, "failed to route request")
	}
	if !ok {
		return errors.Errorf("no skill matches the request; available skills: %s", skillNames(available))
	}

	if runOptions.dryRun {
		presenter.Info(fmt.Sprintf("would run skill %q (%s)", skill.Name, skill.Description))
		return nil
	}

	return runSkill(ctx, agent, skill, env, request, os.Stdout)
}

// runSkill executes one discovered skill against a request, streaming the
// model's text to out.
func runSkill(ctx context.Context, agent config.Agent, skill skills.Skill, env map[string]string, request string, out io.Writer) error {
	provider, err := llm.NewProviderFromEnv(env)
	if err != nil {
		return err
	}

	workingDir, err := executor.ResolveWorkingDir(agent.WorkingDir)
	if err != nil {
		return err
	}

	state := tools.NewBasicState(
		tools.WithWorkingDir(workingDir),
		tools.WithScriptDir(agent.ScriptDir()),
	)

	// A configured mcp_config path must exist; the default pack-local
	// mcp.json is optional.
	var manager *mcp.Manager
	mcpPath := agent.MCPConfigPath()
	_, statErr := os.Stat(mcpPath)
	if agent.MCPConfig != "" && statErr != nil {
		return errors.Wrapf(statErr, "mcp_config for agent %q", agent.Name)
	}
	if statErr == nil {
		mcpConfig, err := mcp.LoadConfig(mcpPath, env)
		if err != nil {
			return err
		}
		manager, err = mcp.Connect(ctx, mcpConfig)
		if err != nil {
			return err
		}
		defer manager.Close()
	}

	journalDir, err := config.JournalDir()
	if err != nil {
		return err
	}

	presenter.Dim(fmt.Sprintf("[%s/%s via %s %s]", agent.Name, skill.Name, provider.Name(), provider.Model()))

	engine := &executor.Engine{
		Provider: provider,
		State:    state,
		MCP:      manager,
		Journal:  journal.New(journalDir, agent.Name, skill.Name),
		Out:      out,
	}

	logger.G(ctx).WithField("skill", skill.Name).WithField("agent", agent.Name).Debug("executing skill")
	return engine.Execute(ctx, skill.Body, request)
}

func resolveAgent() (config.Agent, error) {
	configPath, err := config.ConfigPath()
	if err != nil {
		return config.Agent{}, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Agent{}, err
	}
	return cfg.Resolve(runOptions.agent)
}

func skillNames(available []skills.Skill) string {
	names := make([]string, 0, len(available))
	for _, skill := range available {
		names = append(names, skill.Name)
	}
	return strings.Join(names, ", ")
}
