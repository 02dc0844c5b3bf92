package solana

// Well-known program IDs.
const (
	TokenProgramID         = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	MetaplexMetadataProgID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
)

// TokenAccountSize is the data length of an SPL token account.
const TokenAccountSize = 165

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}
