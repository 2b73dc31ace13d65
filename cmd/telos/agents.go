package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpazaryna/telos/pkg/config"
	"github.com/mpazaryna/telos/pkg/presenter"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.ConfigPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		if len(cfg.Agents) == 0 {
			presenter.Info("no agents configured; run `telos init` or `telos install <pack>`")
			return nil
		}

		presenter.Section("Agents")
		for _, name := range cfg.Names() {
			agent := cfg.Agents[name]
			marker := " "
			if name == cfg.DefaultAgent {
				marker = "*"
			}
			presenter.Info(fmt.Sprintf("%s %-20s [%s] %s", marker, name, agent.Mode, agent.Description))
		}
		return nil
	},
	SilenceUsage: true,
}
