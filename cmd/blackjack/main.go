package main

import (
	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	Config  string `short:"c" type:"path" help:"HCL config file" default:"blackjack.hcl" env:"BLACKJACK_CONFIG"`
	Debug   bool   `help:"Enable debug logging"`
	NoColor bool   `help:"Disable colors"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"1" help:"Play at the table"`
	Simulate SimulateCmd      `cmd:"" help:"Autoplay many rounds with a fixed strategy"`
	Balance  BalanceCmd       `cmd:"" help:"Show the saved bankroll"`
	Refill   RefillCmd        `cmd:"" help:"Refill the saved bankroll"`
	Reset    ResetCmd         `cmd:"" help:"Start over with a fresh bankroll"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Single player blackjack in the terminal"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	if cli.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
