package model

import "time"

// Candle represents a single OHLC bar.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Portfolio is a point-in-time snapshot of balances and price.
type Portfolio struct {
	Quote      float64 // quote currency available (e.g. USDC)
	Base       float64 // base currency held (e.g. BTC)
	Price      float64 // last trade price
	BaseValue  float64 // Base * Price
	TotalValue float64 // Quote + BaseValue
}
