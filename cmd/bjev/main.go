package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Eval     EvalCmd          `cmd:"" help:"Evaluate the actions at one decision point"`
	Chart    ChartCmd         `cmd:"" help:"Solve a basic strategy chart"`
	Simulate SimulateCmd      `cmd:"" help:"Play literal rounds with solver decisions"`
	Serve    ServeCmd         `cmd:"" help:"Run the evaluation service"`
}

func main() {
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bjev"),
		kong.Description("Exact expected values for blackjack decisions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
