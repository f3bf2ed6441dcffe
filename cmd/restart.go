package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restartCmd = &cobra.Command{
	Use:   "restart <environment-id>",
	Short: "Replace an environment with a fresh one",
	Long: `Creates a replacement environment from the same template, config, and
collaborators, then removes the old one. The replacement gets a new id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		newID, err := a.orch.RestartEnvironment(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("environment %s replaced by %s\n", args[0], newID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restartCmd)
}
