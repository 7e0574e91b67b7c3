package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNetworkMismatch is returned when the node reports a different network id
// than the one configured.
var ErrNetworkMismatch = errors.New("network id mismatch")

// Status is the result of a network check.
type Status struct {
	NetworkID   string
	ChainID     *big.Int
	BlockNumber uint64
	GasPrice    *big.Int // node's suggested gas price (Wei)
	Account     common.Address
	Balance     *big.Int // balance of Account (Wei)
	Latency     time.Duration
}

// Check queries the node within timeout and compares its network id with
// wantNetworkID. On ErrNetworkMismatch the returned Status is still filled in.
func (w *HDWallet) Check(ctx context.Context, wantNetworkID string, timeout time.Duration) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	client, err := w.Dial(ctx)
	if err != nil {
		return nil, err
	}

	netID, err := client.NetworkID(ctx)
	if err != nil {
		return nil, fmt.Errorf("net_version: %w", err)
	}
	st := &Status{NetworkID: netID.String(), Latency: time.Since(start)}

	if st.ChainID, err = client.ChainID(ctx); err != nil {
		return nil, fmt.Errorf("eth_chainId: %w", err)
	}
	if st.BlockNumber, err = client.BlockNumber(ctx); err != nil {
		return nil, fmt.Errorf("eth_blockNumber: %w", err)
	}
	if st.GasPrice, err = client.SuggestGasPrice(ctx); err != nil {
		return nil, fmt.Errorf("eth_gasPrice: %w", err)
	}
	st.Account = w.addrs[0]
	if st.Balance, err = client.BalanceAt(ctx, st.Account, nil); err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}

	if wantNetworkID != "" && st.NetworkID != wantNetworkID {
		return st, fmt.Errorf("%w: node reports %s, configured %s", ErrNetworkMismatch, st.NetworkID, wantNetworkID)
	}
	return st, nil
}
