package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shklv/reqchain/internal/domain"
)

// NewChainCmd создаёт группу команд для управления chains.
func NewChainCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Manage request chains",
	}

	cmd.AddCommand(
		newChainCreateCmd(depsFn, outputFn),
		newChainListCmd(depsFn, outputFn),
		newChainShowCmd(depsFn, outputFn),
		newChainDeleteCmd(depsFn, outputFn),
	)

	return cmd
}

func newChainCreateCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			chain := domain.NewChain(args[0])
			if err := deps.Chains.Create(cmd.Context(), chain); err != nil {
				return err
			}

			out.Success("Chain created: " + chain.ID.String())
			return nil
		},
	}
}

func newChainListCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			chains, err := deps.Chains.List(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "CREATED"}
			rows := make([][]string, len(chains))
			for i, c := range chains {
				rows[i] = []string{c.ID.String(), c.Name, c.CreatedAt.Format("2006-01-02 15:04")}
			}

			out.Print(headers, rows, chains)
			return nil
		},
	}
}

func newChainShowCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show CHAIN",
		Short: "Show a chain and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			chain, err := deps.ResolveChain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			steps, err := deps.Steps.ListByChainID(cmd.Context(), chain.ID)
			if err != nil {
				return err
			}

			headers := []string{"POS", "ID", "NAME", "TYPE", "STATUS"}
			rows := make([][]string, len(steps))
			for i, s := range steps {
				rows[i] = []string{
					strconv.Itoa(s.Position),
					s.ID.String(),
					s.Name,
					string(s.Type),
					responseSummary(s.Response),
				}
			}

			out.Print(headers, rows, map[string]any{"chain": chain, "steps": steps})
			return nil
		},
	}
}

func newChainDeleteCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete CHAIN",
		Short: "Delete a chain and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			chain, err := deps.ResolveChain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := deps.Chains.Delete(cmd.Context(), chain.ID); err != nil {
				return err
			}

			out.Success("Chain deleted: " + chain.Name)
			return nil
		},
	}
}
