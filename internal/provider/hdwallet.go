// Package provider signs transactions with a fixed set of private keys and
// relays them to a single node endpoint.
package provider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrNoKeys is returned when the provider is built without private keys.
	ErrNoKeys = errors.New("no private keys")
	// ErrEmptyURL is returned when the provider has no node endpoint.
	ErrEmptyURL = errors.New("empty provider url")
	// ErrUnknownAccount is returned when asked to sign for an address the provider does not hold.
	ErrUnknownAccount = errors.New("account not managed by provider")
)

// HDWallet is a signing provider bound to one node endpoint. It holds the
// accounts selected from the private keys it was built with.
type HDWallet struct {
	url   string
	keys  []*ecdsa.PrivateKey
	addrs []common.Address

	mu     sync.Mutex
	client *ethclient.Client
}

// NewHDWallet parses privateKeys and keeps numAddresses of them starting at
// addressIndex. Nothing is dialed until Dial or Check is called.
func NewHDWallet(privateKeys []string, url string, addressIndex, numAddresses int) (*HDWallet, error) {
	if len(privateKeys) == 0 {
		return nil, ErrNoKeys
	}
	if url == "" {
		return nil, ErrEmptyURL
	}
	if addressIndex < 0 || numAddresses < 1 || addressIndex+numAddresses > len(privateKeys) {
		return nil, fmt.Errorf("address range [%d, %d) out of bounds for %d keys",
			addressIndex, addressIndex+numAddresses, len(privateKeys))
	}

	w := &HDWallet{url: url}
	for i, hexKey := range privateKeys[addressIndex : addressIndex+numAddresses] {
		hexKey = strings.TrimSpace(hexKey)
		if hexKey == "" {
			return nil, fmt.Errorf("private key %d is empty", addressIndex+i)
		}
		key, err := crypto.HexToECDSA(stripHexPrefix(hexKey))
		if err != nil {
			return nil, fmt.Errorf("parsing private key %d: %w", addressIndex+i, err)
		}
		w.keys = append(w.keys, key)
		w.addrs = append(w.addrs, crypto.PubkeyToAddress(key.PublicKey))
	}
	return w, nil
}

// URL returns the node endpoint.
func (w *HDWallet) URL() string { return w.url }

// Addresses returns the managed accounts in key order.
func (w *HDWallet) Addresses() []common.Address {
	out := make([]common.Address, len(w.addrs))
	copy(out, w.addrs)
	return out
}

// Has reports whether addr is one of the managed accounts.
func (w *HDWallet) Has(addr common.Address) bool {
	return w.keyFor(addr) != nil
}

// SignTx signs tx on behalf of from.
func (w *HDWallet) SignTx(from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key := w.keyFor(from)
	if key == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, from.Hex())
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// Dial connects to the endpoint (http(s) or ws(s)) on first use and returns
// the cached client afterwards.
func (w *HDWallet) Dial(ctx context.Context) (*ethclient.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client != nil {
		return w.client, nil
	}
	rc, err := rpc.DialContext(ctx, w.url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", redactURL(w.url), err)
	}
	w.client = ethclient.NewClient(rc)
	return w.client, nil
}

// Close releases the node connection, if any.
func (w *HDWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client != nil {
		w.client.Close()
		w.client = nil
	}
}

func (w *HDWallet) keyFor(addr common.Address) *ecdsa.PrivateKey {
	for i, a := range w.addrs {
		if a == addr {
			return w.keys[i]
		}
	}
	return nil
}

func stripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// redactURL drops the last path segment, which carries the API key on
// hosted node endpoints.
func redactURL(url string) string {
	i := strings.LastIndex(url, "/")
	if i < 0 || i == len(url)-1 {
		return url
	}
	if strings.HasSuffix(url[:i], "/") {
		return url
	}
	return url[:i+1] + "***"
}
