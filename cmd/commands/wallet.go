package commands

// Command to print the wallet address derived from PRIVATE_KEY
// With --balance also asks the RPC node for chain id and balance (read only)

import (
	"fmt"

	"pharos-bot/internal/chain"
	"pharos-bot/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWalletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Show the wallet address (and balance with --balance)",
		RunE:  runWallet,
	}
	cmd.Flags().Bool("balance", false, "Query chain id and balance from RPC_URL")
	return cmd
}

func runWallet(cmd *cobra.Command, args []string) error {
	cfg, w, err := loadWallet(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "address: %s\n", w.Address())

	withBalance, _ := cmd.Flags().GetBool("balance")
	if !withBalance {
		return nil
	}

	info, err := chain.NewProbe(cfg.Chain.RPCURL, cfg.RequestTimeout()).Fetch(cmd.Context(), w.CommonAddress())
	if err != nil {
		log.LogError("Failed to query RPC", zap.String("rpc", cfg.Chain.RPCURL), zap.Error(err))
		return err
	}
	fmt.Fprintf(out, "chain id: %s\n", info.ChainID)
	fmt.Fprintf(out, "balance: %s ETH\n", info.BalanceEther())
	return nil
}
