// reqchain — терминальный инструмент для составления, шаблонизации
// и выполнения HTTP и OAuth запросов.
//
// Использование:
//
//	reqchain [--config PATH] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	chain  Управление chains
//	step   Управление шагами
//	ctx    Управление переменными context
//	run    Выполнение шагов
//
// Chains, шаги, переменные и результаты выполнения сохраняются
// в локальной БД между сессиями.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shklv/reqchain/internal/cli"
	"github.com/shklv/reqchain/internal/config"
	"github.com/shklv/reqchain/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	telemetry.SetupLogger()

	var configPath string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "reqchain",
		Short:         "reqchain — HTTP and OAuth request chains in the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	depsFn := func(cmd *cobra.Command) (*cli.Deps, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return cli.OpenDeps(cmd.Context(), cfg)
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewChainCmd(depsFn, outputFn),
		cli.NewStepCmd(depsFn, outputFn),
		cli.NewContextCmd(depsFn, outputFn),
		cli.NewRunCmd(depsFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
