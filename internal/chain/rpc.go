package chain

// Read-only probe of the testnet RPC node
// Used by the wallet command to show chain id and balance for the derived address

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
)

const DefaultRPCURL = "https://testnet-rpc.pharosnetwork.xyz"

type Info struct {
	ChainID *big.Int
	Balance *big.Int // wei
}

// BalanceEther wei formatted as decimal ether
func (i Info) BalanceEther() string {
	if i.Balance == nil {
		return "0"
	}
	f := new(big.Float).SetInt(i.Balance)
	f.Quo(f, big.NewFloat(params.Ether))
	return f.Text('f', 6)
}

type Probe struct {
	rpcURL  string
	timeout time.Duration
}

func NewProbe(rpcURL string, timeout time.Duration) *Probe {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Probe{rpcURL: rpcURL, timeout: timeout}
}

func (p *Probe) Fetch(ctx context.Context, address common.Address) (*Info, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, p.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", p.rpcURL, err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	balance, err := client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return &Info{ChainID: chainID, Balance: balance}, nil
}
