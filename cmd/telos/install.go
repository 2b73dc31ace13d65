package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mpazaryna/telos/pkg/installer"
	"github.com/mpazaryna/telos/pkg/presenter"
)

var installCmd = &cobra.Command{
	Use:   "install <pack-dir>",
	Short: "Install an agent pack from a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		packDir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		result, err := installer.Install(packDir)
		if err != nil {
			return err
		}

		presenter.Success(fmt.Sprintf("installed agent %q (%d skills) to %s", result.Name, result.SkillCount, result.Dir))
		return nil
	},
	SilenceUsage: true,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <agent>",
	Short: "Remove an installed agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := installer.Uninstall(args[0]); err != nil {
			return err
		}
		presenter.Success(fmt.Sprintf("uninstalled agent %q", args[0]))
		return nil
	},
	SilenceUsage: true,
}
