package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewContextCmd создаёт группу команд для управления переменными context.
func NewContextCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ctx",
		Aliases: []string{"context"},
		Short:   "Manage context variables",
	}

	cmd.AddCommand(
		newCtxSetCmd(depsFn, outputFn),
		newCtxGetCmd(depsFn, outputFn),
		newCtxUnsetCmd(depsFn, outputFn),
		newCtxListCmd(depsFn, outputFn),
	)

	return cmd
}

func newCtxSetCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Set a context variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			var value any = args[1]
			if asJSON {
				if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
					return fmt.Errorf("parse value JSON: %w", err)
				}
			}

			if err := deps.Vars.Set(cmd.Context(), args[0], value); err != nil {
				return err
			}

			out.Success("Set " + args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json-value", false, "Parse VALUE as JSON (for numbers and nested structures)")

	return cmd
}

func newCtxGetCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show a context variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			value, err := deps.Vars.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out.JSON(value)
			return nil
		},
	}
}

func newCtxUnsetCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "unset NAME",
		Short: "Remove a context variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			if err := deps.Vars.Unset(cmd.Context(), args[0]); err != nil {
				return err
			}

			out.Success("Unset " + args[0])
			return nil
		},
	}
}

func newCtxListCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List context variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			vars, err := deps.Vars.All(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			sort.Strings(names)

			headers := []string{"NAME", "VALUE"}
			rows := make([][]string, len(names))
			for i, name := range names {
				valueJSON, _ := json.Marshal(vars[name])
				rows[i] = []string{name, string(valueJSON)}
			}

			out.Print(headers, rows, vars)
			return nil
		},
	}
}
