package solana

import "context"

// RPCClient defines the Solana JSON-RPC calls TokenWise uses.
type RPCClient interface {
	// GetAccountInfo retrieves raw account data. Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction retrieves a parsed transaction by signature. Returns nil if not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetTokenAccountsByMint lists every SPL token account of mint.
	GetTokenAccountsByMint(ctx context.Context, mint string) ([]TokenAccount, error)
}

// Transaction represents a Solana transaction fetched with jsonParsed encoding.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err               interface{}
	LogMessages       []string
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	// InnerProgramIDs lists programs invoked through CPI.
	InnerProgramIDs []string
}

// Failed reports whether the transaction was executed with an error.
func (m *TransactionMeta) Failed() bool {
	return m != nil && m.Err != nil
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
	// ProgramIDs of the top-level instructions, in order.
	ProgramIDs []string
}

// TokenBalance is one entry of pre/postTokenBalances.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	// Amount is the raw integer amount as returned by the node.
	Amount   string
	Decimals int
}

// TokenAccount is an SPL token account returned by getProgramAccounts.
type TokenAccount struct {
	Pubkey   string
	Mint     string
	Owner    string
	Amount   string // raw u64, decimal string
	Decimals int
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}
