package exchange

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaperExecutor simulates order execution against live prices with
// in-memory balances. Sizing arithmetic goes through decimal so a long
// simulation never accumulates float drift in the books.
type PaperExecutor struct {
	mu    sync.Mutex
	quote decimal.Decimal
	base  decimal.Decimal
}

// NewPaperExecutor starts a simulated account holding startingQuote of
// the quote currency and no base.
func NewPaperExecutor(startingQuote float64) *PaperExecutor {
	return &PaperExecutor{quote: decimal.NewFromFloat(startingQuote)}
}

func (p *PaperExecutor) Name() string { return "paper" }

func (p *PaperExecutor) Balances(_ string) (float64, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, _ := p.quote.Float64()
	b, _ := p.base.Float64()
	return q, b, nil
}

func (p *PaperExecutor) MarketBuy(_ string, quoteFunds, price float64) (*Fill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if price <= 0 {
		return nil, fmt.Errorf("paper buy: invalid price %.2f", price)
	}
	funds := decimal.NewFromFloat(quoteFunds).Round(2)
	if funds.GreaterThan(p.quote) {
		return nil, fmt.Errorf("paper buy: insufficient funds: want %s, have %s", funds, p.quote)
	}
	size := funds.Div(decimal.NewFromFloat(price)).Round(8)
	p.quote = p.quote.Sub(funds)
	p.base = p.base.Add(size)

	s, _ := size.Float64()
	f, _ := funds.Float64()
	return &Fill{OrderID: "paper-" + uuid.NewString(), Size: s, Funds: f, Price: price}, nil
}

func (p *PaperExecutor) MarketSell(_ string, baseSize, price float64) (*Fill, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if price <= 0 {
		return nil, fmt.Errorf("paper sell: invalid price %.2f", price)
	}
	size := decimal.NewFromFloat(baseSize).Round(8)
	if size.GreaterThan(p.base) {
		return nil, fmt.Errorf("paper sell: insufficient base: want %s, have %s", size, p.base)
	}
	funds := size.Mul(decimal.NewFromFloat(price)).Round(2)
	p.base = p.base.Sub(size)
	p.quote = p.quote.Add(funds)

	s, _ := size.Float64()
	f, _ := funds.Float64()
	return &Fill{OrderID: "paper-" + uuid.NewString(), Size: s, Funds: f, Price: price}, nil
}
