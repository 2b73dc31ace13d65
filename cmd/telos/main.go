package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mpazaryna/telos/pkg/logger"
	"github.com/mpazaryna/telos/pkg/presenter"
)

var rootCmd = &cobra.Command{
	Use:   "telos [request]",
	Short: "Route requests to skills and run them",
	Long: `Telos routes a natural-language request to one of an agent's skills and
executes it as a streaming tool-use conversation.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return runRequest(cmd.Context(), strings.Join(args, " "))
		}
		if isTerminal(os.Stdin) {
			return runInteractive(cmd.Context())
		}
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&runOptions.agent, "agent", "a", "", "Agent to use (defaults to the configured default agent)")
	rootCmd.PersistentFlags().BoolVar(&runOptions.dryRun, "dry-run", false, "Show which skill would run without executing it")
	rootCmd.PersistentFlags().BoolVarP(&runOptions.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(versionCmd)
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func configureLogging(cmd *cobra.Command) {
	level, _ := cmd.Flags().GetString("log-level")
	if runOptions.verbose {
		level = "debug"
	}
	if err := logger.SetLogLevel(level); err != nil {
		presenter.Warning(fmt.Sprintf("invalid log level %q, using warn", level))
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		presenter.Warning("cancellation requested, shutting down")
		cancel()
	}()

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
