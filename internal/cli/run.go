package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shklv/reqchain/internal/domain"
	"github.com/shklv/reqchain/internal/telemetry"
)

// NewRunCmd создаёт группу команд выполнения.
func NewRunCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute steps",
	}

	cmd.AddCommand(
		newRunStepCmd(depsFn, outputFn),
		newRunChainCmd(depsFn, outputFn),
	)

	return cmd
}

func newRunStepCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "step STEP_ID",
		Short: "Execute one step and persist its response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			step, err := deps.ResolveStep(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			resp, err := executeAndPersist(cmd.Context(), deps, step)
			if err != nil {
				return err
			}

			printResponse(out, step, resp)
			return nil
		},
	}
}

func newRunChainCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "chain CHAIN",
		Short: "Execute all steps of a chain in order",
		Long: `Execute all steps of a chain sequentially, one at a time.

A failed attempt (transport error, non-200 status) is a renderable
result and does not stop the chain. A structural failure (unknown
type, template error, OAuth timeout) aborts the remaining steps.`,
		Args: cobra.ExactArgs(1),
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
			if len(steps) == 0 {
				return fmt.Errorf("chain %q has no steps", chain.Name)
			}

			ctx := telemetry.WithLogger(cmd.Context(),
				telemetry.WithChainID(telemetry.FromContext(cmd.Context()), chain.ID.String()))

			for i := range steps {
				step := &steps[i]
				resp, err := executeAndPersist(ctx, deps, step)
				if err != nil {
					return fmt.Errorf("step %d (%s): %w", step.Position, step.ID, err)
				}
				printResponse(out, step, resp)
			}
			return nil
		},
	}
}

// executeAndPersist выполняет шаг и сохраняет его Response.
//
// Сохраняется и неудачная попытка: "запрос не прошёл" — тоже
// результат, который должен пережить сессию.
func executeAndPersist(ctx context.Context, deps *Deps, step *domain.Step) (*domain.Response, error) {
	resp, err := deps.Dispatcher.Execute(ctx, step)
	if err != nil {
		return nil, err
	}
	if err := deps.Steps.UpdateResponse(ctx, step.ID, resp); err != nil {
		return nil, fmt.Errorf("persist response: %w", err)
	}
	return resp, nil
}

// printResponse выводит результат выполнения шага.
func printResponse(out *Output, step *domain.Step, resp *domain.Response) {
	label := step.Name
	if label == "" {
		label = step.ID.String()
	}

	if out.jsonMode {
		out.JSON(map[string]any{"step_id": step.ID, "response": resp})
		return
	}

	out.Success(fmt.Sprintf("[%s] %s", label, responseSummary(resp)))

	pairs := [][2]string{
		{"Completed", fmt.Sprint(resp.Completed)},
		{"Error", fmt.Sprint(resp.Error)},
	}
	if resp.Status != 0 {
		pairs = append(pairs, [2]string{"Status", fmt.Sprint(resp.Status)})
	}
	if resp.ErrorDetail != "" {
		pairs = append(pairs, [2]string{"Detail", resp.ErrorDetail})
	}
	if resp.Code != "" {
		pairs = append(pairs, [2]string{"Code", resp.Code})
	}
	if resp.Body != nil {
		bodyJSON, err := json.MarshalIndent(resp.Body, "", "  ")
		if err == nil {
			pairs = append(pairs, [2]string{"Body", string(bodyJSON)})
		}
	}
	out.KeyValues(pairs, resp)
}
