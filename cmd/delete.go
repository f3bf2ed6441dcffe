package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagDeleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <environment-id>",
	Short: "Delete an environment",
	Long: `Deletes an environment after stopping it gracefully. With --force the
graceful stop is skipped and backend teardown errors are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.orch.DeleteEnvironment(cmd.Context(), args[0], flagDeleteForce); err != nil {
			return err
		}
		fmt.Printf("environment %s deleted\n", args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&flagDeleteForce, "force", false, "Skip graceful stop and ignore backend errors")
	rootCmd.AddCommand(deleteCmd)
}
