// Package verify checks how a deployed contract was verified on Etherscan
// and compares it with the configured compiler settings.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const etherscanBaseURL = "https://api.etherscan.io/v2/api"

var (
	// ErrNoAPIKey is returned when no Etherscan API key is configured.
	ErrNoAPIKey = errors.New("etherscan api key not set")
	// ErrNotVerified is returned when the contract has no published source.
	ErrNotVerified = errors.New("contract source not verified")
	// ErrInvalidAddress is returned for malformed contract addresses.
	ErrInvalidAddress = errors.New("invalid contract address")
)

// SourceCode is the verification record Etherscan keeps for a contract.
type SourceCode struct {
	ContractName     string `json:"ContractName"`
	CompilerVersion  string `json:"CompilerVersion"`
	OptimizationUsed string `json:"OptimizationUsed"`
	Runs             string `json:"Runs"`
	EVMVersion       string `json:"EVMVersion"`
	LicenseType      string `json:"LicenseType"`
	Proxy            string `json:"Proxy"`
	Implementation   string `json:"Implementation"`
	SourceCode       string `json:"SourceCode"`
	ABI              string `json:"ABI"`
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client talks to the Etherscan V2 unified API for one chain.
type Client struct {
	chainID string
	apiKey  string
	baseURL string // defaults to etherscanBaseURL; overridable in tests
	http    *http.Client
}

// NewClient returns a client for the chain with the given network id.
func NewClient(apiKey, chainID string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &Client{
		chainID: chainID,
		apiKey:  apiKey,
		baseURL: etherscanBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// GetSourceCode fetches the verification record of address.
func (c *Client) GetSourceCode(ctx context.Context, address string) (*SourceCode, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	q := url.Values{}
	q.Set("chainid", c.chainID)
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address)
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("etherscan request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading etherscan response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("etherscan returned HTTP %d", resp.StatusCode)
	}

	var ar apiResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("parsing etherscan response: %w", err)
	}
	if ar.Status != "1" {
		// On failure the result is a plain message, e.g. "Invalid API Key".
		var reason string
		if json.Unmarshal(ar.Result, &reason) != nil || reason == "" {
			reason = ar.Message
		}
		return nil, fmt.Errorf("etherscan error: %s", reason)
	}

	var records []SourceCode
	if err := json.Unmarshal(ar.Result, &records); err != nil {
		return nil, fmt.Errorf("parsing etherscan result: %w", err)
	}
	if len(records) == 0 || records[0].SourceCode == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotVerified, address)
	}
	return &records[0], nil
}
