package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagListOwner string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		infos := a.orch.ListEnvironments(flagListOwner)
		out, err := formatter().FormatEnvironmentList(infos)
		if err != nil {
			return err
		}
		fmt.Println(out)

		if !flagQuiet {
			usage, err := formatter().FormatUsage(a.orch.GetResourceUsage())
			if err != nil {
				return err
			}
			fmt.Println(usage)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&flagListOwner, "owner", "", "Only list environments belonging to this owner")
	rootCmd.AddCommand(listCmd)
}
