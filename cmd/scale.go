package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitat/internal/api"
)

var scaleCmd = &cobra.Command{
	Use:   "scale <environment-id> <up|down>",
	Short: "Scale an environment one step up or down",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		direction := api.ScaleDirection(args[1])
		if err := a.orch.ScaleEnvironment(cmd.Context(), args[0], direction); err != nil {
			return err
		}
		fmt.Printf("environment %s scaled %s\n", args[0], direction)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scaleCmd)
}
