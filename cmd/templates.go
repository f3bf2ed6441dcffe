package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List registered environment templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := formatter().FormatTemplateList(a.catalog.List())
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var templatesTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Show templates grouped by tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		categories := a.catalog.Categorize()
		tags := make([]string, 0, len(categories))
		for tag := range categories {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			fmt.Printf("%s: %v\n", tag, categories[tag])
		}
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesTagsCmd)
	rootCmd.AddCommand(templatesCmd)
}
