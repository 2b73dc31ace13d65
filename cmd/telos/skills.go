package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpazaryna/telos/pkg/presenter"
	"github.com/mpazaryna/telos/pkg/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skills of an agent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := resolveAgent()
		if err != nil {
			return err
		}

		available, err := skills.Discover(agent.SkillsDir)
		if err != nil {
			return err
		}
		if len(available) == 0 {
			presenter.Info(fmt.Sprintf("agent %q has no skills", agent.Name))
			return nil
		}

		presenter.Section(fmt.Sprintf("Skills for %s", agent.Name))
		for _, skill := range available {
			presenter.Info(fmt.Sprintf("  %-24s %s", skill.Name, skill.Description))
		}
		return nil
	},
	SilenceUsage: true,
}
