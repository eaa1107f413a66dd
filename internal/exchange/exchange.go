package exchange

import (
	"time"

	"CoinPilot/internal/model"
)

// MarketData supplies candle history and spot prices for one product.
type MarketData interface {
	Candles(product string, granularity time.Duration, limit int) ([]model.Candle, error)
	CurrentPrice(product string) (float64, error)
	Name() string
}

// Executor places market orders and reports balances. The live Coinbase
// client and the paper simulator both satisfy it, so the decision loop
// cannot tell real money from play money.
type Executor interface {
	Balances(product string) (quote, base float64, err error)
	MarketBuy(product string, quoteFunds, price float64) (*Fill, error)
	MarketSell(product string, baseSize, price float64) (*Fill, error)
	Name() string
}

// Fill describes an executed market order.
type Fill struct {
	OrderID string
	Size    float64 // base units
	Funds   float64 // quote units
	Price   float64
}

// MockMarketData returns controllable fixed data for development and
// testing. A non-nil Err makes every fetch fail.
type MockMarketData struct {
	Price float64
	Bars  []model.Candle
	Err   error
}

func (m *MockMarketData) Name() string { return "mock" }

func (m *MockMarketData) CurrentPrice(_ string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Price, nil
}

func (m *MockMarketData) Candles(_ string, granularity time.Duration, limit int) ([]model.Candle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockCandles(m.Price, granularity, limit), nil
}

func generateMockCandles(basePrice float64, granularity time.Duration, count int) []model.Candle {
	bars := make([]model.Candle, count)
	now := time.Now()
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Candle{
			Time:   now.Add(-time.Duration(count-i) * granularity),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000,
		}
	}
	return bars
}

// Snapshot builds a portfolio valuation from live balances and price.
func Snapshot(ex Executor, product string, price float64) (model.Portfolio, error) {
	quote, base, err := ex.Balances(product)
	if err != nil {
		return model.Portfolio{}, err
	}
	return model.Portfolio{
		Quote:      quote,
		Base:       base,
		Price:      price,
		BaseValue:  base * price,
		TotalValue: quote + base*price,
	}, nil
}
