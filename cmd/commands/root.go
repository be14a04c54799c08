package commands

// Root command for Cobra CLI
// Running without a subcommand is the same as "run"
// Registers run, once and wallet subcommands

import (
	"pharos-bot/internal/infra/config"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pharos-bot",
		Short: "Pharos testnet daily check-in and swap bot",
		Long: `Pharos bot derives a wallet address from PRIVATE_KEY and calls the Pharos testnet
check-in and swap endpoints once at startup and then every day at the scheduled times.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd())
	root.AddCommand(newOnceCmd())
	root.AddCommand(newWalletCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}
