package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tokenwise/internal/domain"
	"tokenwise/internal/refresh"
	"tokenwise/internal/report"
)

// ANSI escapes for transaction lines.
const (
	ansiGreen = "\033[92m"
	ansiRed   = "\033[91m"
	ansiReset = "\033[0m"
)

const (
	lineTimeLayout    = "2006-01-02 15:04:05-07:00"
	summaryTimeLayout = "2006-01-02 15:04:05"
)

// Printer renders command output.
type Printer struct {
	out   io.Writer
	loc   *time.Location
	color bool
}

// NewPrinter creates a printer writing to out with times shown in loc.
func NewPrinter(out io.Writer, loc *time.Location, color bool) *Printer {
	if loc == nil {
		loc = time.UTC
	}
	return &Printer{out: out, loc: loc, color: color}
}

// TopWallets prints "N. address - balance tokens" per wallet.
func (p *Printer) TopWallets(wallets []domain.Wallet) {
	if len(wallets) == 0 {
		fmt.Fprintln(p.out, "No wallets stored yet. Run refresh first.")
		return
	}
	for i, w := range wallets {
		fmt.Fprintf(p.out, "%d. %s - %s tokens\n", i+1, w.Address, humanize.Comma(w.Balance))
	}
}

// TransactionLine formats one transaction without color.
// symbol is the counter token symbol, or "" when there is none.
func (p *Printer) TransactionLine(tx *domain.Transaction, symbol string) string {
	line := fmt.Sprintf("%s - %s %s",
		time.Unix(tx.Timestamp, 0).In(p.loc).Format(lineTimeLayout),
		tx.Type,
		tx.Amount.String(),
	)

	if price, ok := tx.ParsedPrice(); ok {
		if symbol == "" {
			symbol = "?"
		}
		line += fmt.Sprintf(" at %s %s", price.RoundBank(5).StringFixed(5), symbol)
	}

	if protocol := tx.ProtocolLabel(); protocol != domain.UnknownProtocol {
		line += " via " + protocol
	}
	return line
}

// Transactions prints the wallet's transactions, green for buys and red
// for sells. resolve maps a counter mint to its symbol.
func (p *Printer) Transactions(wt *report.WalletTransactions, resolve func(mint string) string) {
	if len(wt.Transactions) == 0 {
		fmt.Fprintf(p.out, "No transactions stored for wallet %s.\n", wt.Address)
		return
	}

	for i := range wt.Transactions {
		tx := &wt.Transactions[i]

		var symbol string
		if tx.CounterTokenMint != nil && *tx.CounterTokenMint != "" {
			symbol = resolve(*tx.CounterTokenMint)
		}
		line := p.TransactionLine(tx, symbol)

		if !p.color {
			fmt.Fprintln(p.out, line)
			continue
		}
		color := ansiRed
		if tx.Type == domain.TxTypeBuy {
			color = ansiGreen
		}
		fmt.Fprintf(p.out, "%s%s%s\n", color, line, ansiReset)
	}
}

// WalletNotFound reports an empty rank.
func (p *Printer) WalletNotFound(position int) {
	fmt.Fprintf(p.out, "Wallet at position %d not found.\n", position)
}

// Summary prints the summary block.
func (p *Printer) Summary(s *report.Summary) {
	if !s.WalletFound {
		p.WalletNotFound(s.Position)
		return
	}
	if s.NoData {
		fmt.Fprintln(p.out, "No transactions to summarize.")
		return
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "=== Wallet Transaction Summary ===")
	fmt.Fprintf(p.out, "Wallet: %s (position %d)\n", s.Address, s.Position)
	fmt.Fprintf(p.out, "Total Transactions: %d\n", s.TotalTransactions)
	fmt.Fprintf(p.out, "Buys: %d | Sells: %d\n", s.Buys, s.Sells)
	fmt.Fprintf(p.out, "Total Buy Volume: %s\n", s.TotalBuyVolume.String())
	fmt.Fprintf(p.out, "Total Sell Volume: %s\n", s.TotalSellVolume.String())
	if s.AvgBuyPrice != nil {
		fmt.Fprintf(p.out, "Average Buy Price: %s\n", s.AvgBuyPrice.StringFixed(6))
	}
	if s.AvgSellPrice != nil {
		fmt.Fprintf(p.out, "Average Sell Price: %s\n", s.AvgSellPrice.StringFixed(6))
	}
	fmt.Fprintf(p.out, "Most Used Protocol: %s\n", s.MostUsedProtocol)
	fmt.Fprintf(p.out, "First Transaction: %s\n", p.summaryTime(s.FirstTimestamp))
	fmt.Fprintf(p.out, "Last Transaction: %s\n", p.summaryTime(s.LastTimestamp))
	fmt.Fprintln(p.out, "==================================")
	fmt.Fprintln(p.out)
}

func (p *Printer) summaryTime(ts int64) string {
	return time.Unix(ts, 0).In(p.loc).Format(summaryTimeLayout)
}

// RefreshSucceeded prints the server's JSON answer.
func (p *Printer) RefreshSucceeded(resp *refresh.TriggerResponse) {
	fmt.Fprintf(p.out, "✅ Refresh successful: %s\n", strings.TrimSpace(resp.Raw))
}

// RefreshFailed prints a non-2xx answer.
func (p *Printer) RefreshFailed(err *refresh.StatusError) {
	fmt.Fprintf(p.out, "❌ Refresh failed: %d %s\n", err.StatusCode, strings.TrimSpace(err.Body))
}
