// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"sync"

	"tokenwise/internal/solana"
)

// RPCClient implements solana.RPCClient from in-memory fixtures.
// Setting Err makes every call fail with it.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[string]*solana.AccountInfo
	Transactions  map[string]*solana.Transaction
	Signatures    map[string][]solana.SignatureInfo
	TokenAccounts map[string][]solana.TokenAccount
	Err           error

	calls map[string]int
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[string]*solana.AccountInfo),
		Transactions:  make(map[string]*solana.Transaction),
		Signatures:    make(map[string][]solana.SignatureInfo),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		calls:         make(map[string]int),
	}
}

// Calls returns how many times method was invoked.
func (c *RPCClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *RPCClient) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	return c.Err
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if err := c.record("getAccountInfo"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetTransaction returns the stored transaction or nil.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	if err := c.record("getTransaction"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress pages through the stored signatures (newest first)
// honouring Before and Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if err := c.record("getSignaturesForAddress"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	sigs := c.Signatures[address]
	if opts == nil {
		return sigs, nil
	}

	if opts.Before != "" {
		for i, s := range sigs {
			if s.Signature == opts.Before {
				sigs = sigs[i+1:]
				break
			}
		}
	}

	if opts.Limit > 0 && opts.Limit < len(sigs) {
		sigs = sigs[:opts.Limit]
	}

	return sigs, nil
}

// GetTokenAccountsByMint returns the stored token accounts of mint.
func (c *RPCClient) GetTokenAccountsByMint(_ context.Context, mint string) ([]solana.TokenAccount, error) {
	if err := c.record("getProgramAccounts"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TokenAccounts[mint], nil
}

// AddAccount stores raw account data (base64) under pubkey.
func (c *RPCClient) AddAccount(pubkey, base64Data string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Accounts[pubkey] = &solana.AccountInfo{Data: base64Data}
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// AddSignatures sets the signatures for an address, newest first.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[address] = sigs
}
