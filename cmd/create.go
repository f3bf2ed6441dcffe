package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"habitat/internal/api"
)

var (
	flagCreateName          string
	flagCreateOwner         string
	flagCreateWait          bool
	flagCreateWaitTimeout   time.Duration
	flagCreateConfig        []string
	flagCreateCollaborators []string
)

var createCmd = &cobra.Command{
	Use:   "create <template-id>",
	Short: "Create an environment from a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		overrides, err := parseConfigOverrides(flagCreateConfig)
		if err != nil {
			return err
		}

		id, err := a.orch.CreateEnvironment(api.CreateEnvironmentRequest{
			TemplateID:    args[0],
			Name:          flagCreateName,
			Config:        overrides,
			Owner:         flagCreateOwner,
			Collaborators: flagCreateCollaborators,
		})
		if err != nil {
			return err
		}
		fmt.Printf("environment %s created\n", id)

		if !flagCreateWait {
			return nil
		}

		var s *spinner.Spinner
		if !flagQuiet {
			s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = " Provisioning environment..."
			s.Start()
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), flagCreateWaitTimeout)
		defer cancel()
		info, waitErr := a.orch.WaitReady(ctx, id)

		if s != nil {
			s.Stop()
		}
		if waitErr != nil {
			return waitErr
		}
		if info.Status != api.StateReady {
			return fmt.Errorf("environment %s ended up %s: %v", id, info.Status, info.Metadata["last_error"])
		}

		if !flagQuiet {
			fmt.Println(text.FgGreen.Sprint("environment ready"))
		}
		out, err := formatter().FormatEnvironmentDetail(info)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

// parseConfigOverrides turns repeated key=value flags into a config map.
// Values are parsed as YAML scalars so numbers and booleans come through
// typed.
func parseConfigOverrides(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, found := cutPair(pair)
		if !found {
			return nil, fmt.Errorf("invalid --set %q, want key=value", pair)
		}
		var parsed interface{}
		if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		overrides[key] = parsed
	}
	return overrides, nil
}

func cutPair(pair string) (key, value string, found bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return pair[:i], pair[i+1:], true
		}
	}
	return pair, "", false
}

func init() {
	createCmd.Flags().StringVar(&flagCreateName, "name", "", "Display name (derived from the template when empty)")
	createCmd.Flags().StringVar(&flagCreateOwner, "owner", "", "Owner of the environment (required)")
	createCmd.Flags().BoolVar(&flagCreateWait, "wait", false, "Block until the environment is ready")
	createCmd.Flags().DurationVar(&flagCreateWaitTimeout, "wait-timeout", 10*time.Minute, "How long --wait blocks before giving up")
	createCmd.Flags().StringArrayVar(&flagCreateConfig, "set", nil, "Config override as key=value, repeatable")
	createCmd.Flags().StringArrayVar(&flagCreateCollaborators, "collaborator", nil, "Grant access to a collaborator, repeatable")
	createCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(createCmd)
}
