package refresh

import (
	"bytes"

	"github.com/mr-tron/base58"

	"tokenwise/internal/solana"
)

const (
	trackedMint = "8BtoThi2ZoXnF7QQK1Wjmh2JuBw9FjVvhnGMVZ2vpump"
	usdcMint    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// addr builds a valid address from a repeated byte.
func addr(b byte) string {
	return base58.Encode(bytes.Repeat([]byte{b}, 32))
}

func ptr[T any](v T) *T {
	return &v
}

func balance(owner, mint, amount string, decimals int) solana.TokenBalance {
	return solana.TokenBalance{Owner: owner, Mint: mint, Amount: amount, Decimals: decimals}
}

// swapTx moves tracked and counter amounts for owner between pre and post.
func swapTx(sig string, blockTime int64, owner string, pre, post []solana.TokenBalance, programs ...string) *solana.Transaction {
	return &solana.Transaction{
		Signature: sig,
		BlockTime: blockTime,
		Meta: &solana.TransactionMeta{
			PreTokenBalances:  pre,
			PostTokenBalances: post,
		},
		Message: &solana.TransactionMessage{
			AccountKeys: []string{owner},
			ProgramIDs:  programs,
		},
	}
}
