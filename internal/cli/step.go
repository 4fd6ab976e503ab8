package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shklv/reqchain/internal/domain"
)

// NewStepCmd создаёт группу команд для управления шагами.
func NewStepCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Manage steps",
	}

	cmd.AddCommand(
		newStepAddCmd(depsFn, outputFn),
		newStepListCmd(depsFn, outputFn),
		newStepShowCmd(depsFn, outputFn),
		newStepDeleteCmd(depsFn, outputFn),
	)

	return cmd
}

func newStepAddCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	var (
		stepType    string
		name        string
		requestJSON string
		requestFile string
	)

	cmd := &cobra.Command{
		Use:   "add CHAIN",
		Short: "Add a step to a chain",
		Long: `Add a step to a chain.

The request description is arbitrary nested JSON; string leaves may
contain {{variable}} references resolved against the context at run
time. HTTP steps use url/method/headers/body/form/data keys, OAUTH
steps use action/url/browser/redirect_uri.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := depsFn(cmd)
			if err != nil {
				return err
			}
			defer deps.Close()
			out := outputFn()

			typ := domain.StepType(stepType)
			if !typ.Valid() {
				return fmt.Errorf("invalid step type %q (want HTTP or OAUTH)", stepType)
			}

			request, err := readRequest(requestJSON, requestFile)
			if err != nil {
				return err
			}

			chain, err := deps.ResolveChain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			position, err := deps.Steps.NextPosition(cmd.Context(), chain.ID)
			if err != nil {
				return err
			}

			step := domain.NewStep(chain.ID, name, position, typ, request)
			if err := deps.Steps.Create(cmd.Context(), step); err != nil {
				return err
			}

			out.Success("Step added: " + step.ID.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&stepType, "type", "HTTP", "Step type (HTTP or OAUTH)")
	cmd.Flags().StringVar(&name, "name", "", "Step name")
	cmd.Flags().StringVar(&requestJSON, "request", "", "Request description as inline JSON")
	cmd.Flags().StringVar(&requestFile, "request-file", "", "Request description from a JSON file")

	return cmd
}

func newStepListCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list CHAIN",
		Short: "List steps of a chain",
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

			out.Print(headers, rows, steps)
			return nil
		},
	}
}

func newStepShowCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show STEP_ID",
		Short: "Show a step with its request and last response",
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

			requestJSON, _ := json.MarshalIndent(step.Request, "", "  ")
			pairs := [][2]string{
				{"ID", step.ID.String()},
				{"Chain", step.ChainID.String()},
				{"Name", step.Name},
				{"Position", strconv.Itoa(step.Position)},
				{"Type", string(step.Type)},
				{"Request", string(requestJSON)},
				{"Response", responseSummary(step.Response)},
			}
			if step.Response != nil {
				responseJSON, _ := json.MarshalIndent(step.Response, "", "  ")
				pairs[len(pairs)-1] = [2]string{"Response", string(responseJSON)}
			}

			out.KeyValues(pairs, step)
			return nil
		},
	}
}

func newStepDeleteCmd(depsFn func(cmd *cobra.Command) (*Deps, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete STEP_ID",
		Short: "Delete a step",
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
			if err := deps.Steps.Delete(cmd.Context(), step.ID); err != nil {
				return err
			}

			out.Success("Step deleted: " + step.ID.String())
			return nil
		},
	}
}

// readRequest разбирает описание запроса из флага или файла.
func readRequest(inline, file string) (map[string]any, error) {
	var data []byte
	switch {
	case inline != "" && file != "":
		return nil, fmt.Errorf("--request and --request-file are mutually exclusive")
	case inline != "":
		data = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read request file: %w", err)
		}
		data = b
	default:
		return map[string]any{}, nil
	}

	var request map[string]any
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, fmt.Errorf("parse request JSON: %w", err)
	}
	return request, nil
}

// responseSummary — краткий статус последнего выполнения для таблиц.
func responseSummary(resp *domain.Response) string {
	switch {
	case resp == nil:
		return "-"
	case resp.Code != "":
		return "code received"
	case resp.Error && resp.Status != 0:
		return fmt.Sprintf("error (%d)", resp.Status)
	case resp.Error:
		return "error"
	case resp.Status != 0:
		return strconv.Itoa(resp.Status)
	default:
		return "completed"
	}
}
