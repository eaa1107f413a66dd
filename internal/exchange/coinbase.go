package exchange

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CoinPilot/internal/model"
)

// CoinbaseClient talks to the Coinbase Exchange REST API. Market data
// endpoints are public; account and order endpoints are HMAC-signed.
type CoinbaseClient struct {
	BaseURL    string
	Key        string
	Secret     string // base64-encoded API secret
	Passphrase string
	Client     *http.Client
}

// NewCoinbaseClient creates a client against the production API.
func NewCoinbaseClient(key, secret, passphrase string) *CoinbaseClient {
	return &CoinbaseClient{
		BaseURL:    "https://api.exchange.coinbase.com",
		Key:        key,
		Secret:     secret,
		Passphrase: passphrase,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *CoinbaseClient) Name() string { return "coinbase" }

// Supported candle granularities, in seconds.
var granularities = []int{60, 300, 900, 3600, 21600, 86400}

// nearestGranularity snaps an arbitrary interval to the closest
// granularity the API accepts, rounding up.
func nearestGranularity(d time.Duration) int {
	secs := int(d.Seconds())
	for _, g := range granularities {
		if secs <= g {
			return g
		}
	}
	return granularities[len(granularities)-1]
}

// Candles fetches up to limit bars for the product, oldest first.
func (c *CoinbaseClient) Candles(product string, granularity time.Duration, limit int) ([]model.Candle, error) {
	g := nearestGranularity(granularity)
	end := time.Now().UTC()
	start := end.Add(-time.Duration(g*limit) * time.Second)
	path := fmt.Sprintf("/products/%s/candles?granularity=%d&start=%s&end=%s",
		product, g, start.Format(time.RFC3339), end.Format(time.RFC3339))

	body, err := c.do("GET", path, nil, false)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	// Rows are [time, low, high, open, close, volume], newest first.
	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}
	bars := make([]model.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 6 {
			continue
		}
		bars = append(bars, model.Candle{
			Time:   time.Unix(int64(r[0]), 0),
			Low:    r[1],
			High:   r[2],
			Open:   r[3],
			Close:  r[4],
			Volume: r[5],
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// CurrentPrice returns the last trade price for the product.
func (c *CoinbaseClient) CurrentPrice(product string) (float64, error) {
	body, err := c.do("GET", "/products/"+product+"/ticker", nil, false)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker: %w", err)
	}
	var ticker struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}
	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", ticker.Price, err)
	}
	return price, nil
}

// Balances returns the available quote and base balances for a product
// like "BTC-USDC".
func (c *CoinbaseClient) Balances(product string) (float64, float64, error) {
	base, quoteCur, err := splitProduct(product)
	if err != nil {
		return 0, 0, err
	}
	body, err := c.do("GET", "/accounts", nil, true)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch accounts: %w", err)
	}
	var accounts []struct {
		Currency  string `json:"currency"`
		Available string `json:"available"`
	}
	if err := json.Unmarshal(body, &accounts); err != nil {
		return 0, 0, fmt.Errorf("decode accounts: %w", err)
	}
	var quoteBal, baseBal float64
	for _, a := range accounts {
		v, err := strconv.ParseFloat(a.Available, 64)
		if err != nil {
			continue
		}
		switch a.Currency {
		case quoteCur:
			quoteBal = v
		case base:
			baseBal = v
		}
	}
	return quoteBal, baseBal, nil
}

// MarketBuy spends quoteFunds on a market order. The fill size is
// estimated from the reference price; exact fills settle asynchronously.
func (c *CoinbaseClient) MarketBuy(product string, quoteFunds, price float64) (*Fill, error) {
	funds := decimal.NewFromFloat(quoteFunds).Round(2)
	order := map[string]string{
		"client_oid": uuid.NewString(),
		"product_id": product,
		"side":       "buy",
		"type":       "market",
		"funds":      funds.String(),
	}
	id, err := c.placeOrder(order)
	if err != nil {
		return nil, err
	}
	size, _ := funds.Div(decimal.NewFromFloat(price)).Round(8).Float64()
	f, _ := funds.Float64()
	return &Fill{OrderID: id, Size: size, Funds: f, Price: price}, nil
}

// MarketSell sells baseSize base units at market.
func (c *CoinbaseClient) MarketSell(product string, baseSize, price float64) (*Fill, error) {
	size := decimal.NewFromFloat(baseSize).Round(8)
	order := map[string]string{
		"client_oid": uuid.NewString(),
		"product_id": product,
		"side":       "sell",
		"type":       "market",
		"size":       size.String(),
	}
	id, err := c.placeOrder(order)
	if err != nil {
		return nil, err
	}
	s, _ := size.Float64()
	funds, _ := size.Mul(decimal.NewFromFloat(price)).Round(2).Float64()
	return &Fill{OrderID: id, Size: s, Funds: funds, Price: price}, nil
}

func (c *CoinbaseClient) placeOrder(order map[string]string) (string, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("marshal order: %w", err)
	}
	body, err := c.do("POST", "/orders", payload, true)
	if err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	return resp.ID, nil
}

func (c *CoinbaseClient) do(method, path string, payload []byte, signed bool) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "CoinPilot/1.0")
	req.Header.Set("Content-Type", "application/json")
	if signed {
		if err := c.sign(req, path, payload); err != nil {
			return nil, err
		}
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coinbase request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coinbase read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coinbase: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// sign adds the CB-ACCESS-* headers: HMAC-SHA256 over
// timestamp+method+path+body with the base64-decoded secret.
func (c *CoinbaseClient) sign(req *http.Request, path string, payload []byte) error {
	secret, err := base64.StdEncoding.DecodeString(c.Secret)
	if err != nil {
		return fmt.Errorf("decode api secret: %w", err)
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts + req.Method + path))
	mac.Write(payload)
	req.Header.Set("CB-ACCESS-KEY", c.Key)
	req.Header.Set("CB-ACCESS-SIGN", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	req.Header.Set("CB-ACCESS-TIMESTAMP", ts)
	req.Header.Set("CB-ACCESS-PASSPHRASE", c.Passphrase)
	return nil
}

func splitProduct(product string) (base, quote string, err error) {
	parts := strings.SplitN(product, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed product id %q", product)
	}
	return parts[0], parts[1], nil
}
