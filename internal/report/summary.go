package report

import (
	"github.com/shopspring/decimal"

	"tokenwise/internal/domain"
)

// Summary aggregates a wallet's transactions over a time range.
type Summary struct {
	Position    int
	Address     string
	Start, End  int64
	WalletFound bool
	// NoData is set when there is nothing to aggregate; the remaining fields are zero.
	NoData bool

	TotalTransactions int
	Buys              int
	Sells             int
	TotalBuyVolume    decimal.Decimal
	TotalSellVolume   decimal.Decimal
	// Averages only cover rows with a usable price; nil when a side has none.
	AvgBuyPrice  *decimal.Decimal
	AvgSellPrice *decimal.Decimal

	Protocols        map[string]int
	Types            map[domain.TxType]int
	MostUsedProtocol string

	// FirstTimestamp is the earliest transaction, LastTimestamp the most recent.
	FirstTimestamp int64
	LastTimestamp  int64
}

// aggregate fills the summary from txs ordered newest first.
func (s *Summary) aggregate(txs []domain.Transaction) {
	if len(txs) == 0 {
		s.NoData = true
		return
	}

	s.Protocols = make(map[string]int)
	s.Types = make(map[domain.TxType]int)

	var buyPrices, sellPrices sidePrices
	var seen []string

	for i := range txs {
		tx := &txs[i]
		s.TotalTransactions++
		s.Types[tx.Type]++
		protocol := tx.ProtocolLabel()
		if s.Protocols[protocol] == 0 {
			seen = append(seen, protocol)
		}
		s.Protocols[protocol]++

		price, hasPrice := tx.ParsedPrice()

		switch tx.Type {
		case domain.TxTypeBuy:
			s.Buys++
			s.TotalBuyVolume = s.TotalBuyVolume.Add(tx.Amount)
			if hasPrice {
				buyPrices.add(price)
			}
		case domain.TxTypeSell:
			s.Sells++
			s.TotalSellVolume = s.TotalSellVolume.Add(tx.Amount)
			if hasPrice {
				sellPrices.add(price)
			}
		}
	}

	s.AvgBuyPrice = buyPrices.average()
	s.AvgSellPrice = sellPrices.average()
	s.MostUsedProtocol = mostUsed(s.Protocols, seen)

	s.LastTimestamp = txs[0].Timestamp
	s.FirstTimestamp = txs[len(txs)-1].Timestamp
}

type sidePrices struct {
	sum   decimal.Decimal
	count int64
}

func (p *sidePrices) add(v decimal.Decimal) {
	p.sum = p.sum.Add(v)
	p.count++
}

func (p *sidePrices) average() *decimal.Decimal {
	if p.count == 0 {
		return nil
	}
	avg := p.sum.Div(decimal.NewFromInt(p.count))
	return &avg
}

// mostUsed returns the name with the highest count. Ties go to the name
// listed first in order, which holds each name once in first-seen order.
func mostUsed(counts map[string]int, order []string) string {
	best := ""
	for _, name := range order {
		if best == "" || counts[name] > counts[best] {
			best = name
		}
	}
	return best
}
