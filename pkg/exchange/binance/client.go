// Package binance implements the exchange.Gateway contract against the
// Binance spot REST API.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trendbot/internal/market"
	"trendbot/pkg/exchange"
)

// Config holds Binance credentials and endpoint selection.
type Config struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	RecvWindow int64 // ms
}

// Client is a Binance spot client satisfying exchange.Gateway.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	timeSync   *exchange.TimeSync
	weight     *exchange.WeightTracker
}

// New builds a spot client. Credentials are only required for signed calls
// (balances, orders); market data works without them.
func New(cfg Config) *Client {
	base := "https://api.binance.com"
	if cfg.Testnet {
		base = "https://testnet.binance.vision"
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = 5000
	}
	c := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	c.timeSync = exchange.NewTimeSync(c.serverTime)
	// 1200 weight/min for spot endpoints.
	c.weight = exchange.NewWeightTracker(1200, time.Minute)
	return c
}

// Balances returns the free balance per asset from the account endpoint.
func (c *Client) Balances(ctx context.Context) (map[string]float64, error) {
	const op = "binance.balances"
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, exchange.Fatal(op, errors.New("API key/secret required"))
	}

	body, err := c.doSigned(ctx, op, http.MethodGet, "/api/v3/account", url.Values{})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, exchange.Fatal(op, fmt.Errorf("decode account: %w", err))
	}

	out := make(map[string]float64, len(resp.Balances))
	for _, b := range resp.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil {
			continue
		}
		if free > 0 {
			out[b.Asset] = free
		}
	}
	return out, nil
}

// Price returns the last ticker price for a symbol.
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	const op = "binance.price"
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.doPublic(ctx, op, "/api/v3/ticker/price", params)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, exchange.Fatal(op, fmt.Errorf("decode ticker: %w", err))
	}
	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, exchange.Fatal(op, fmt.Errorf("parse price %q: %w", resp.Price, err))
	}
	return price, nil
}

// Candles returns up to limit klines for the symbol, time-ascending.
func (c *Client) Candles(ctx context.Context, symbol, interval string, limit int) (market.Series, error) {
	const op = "binance.candles"
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.doPublic(ctx, op, "/api/v3/klines", params)
	if err != nil {
		return nil, err
	}

	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, exchange.Fatal(op, fmt.Errorf("decode klines: %w", err))
	}
	series, err := market.ParseKlines(raw)
	if err != nil {
		return nil, exchange.Fatal(op, err)
	}
	return series, nil
}

// LotConstraints extracts the LOT_SIZE and NOTIONAL filters for a symbol.
func (c *Client) LotConstraints(ctx context.Context, symbol string) (exchange.LotConstraints, error) {
	const op = "binance.exchangeinfo"
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.doPublic(ctx, op, "/api/v3/exchangeInfo", params)
	if err != nil {
		return exchange.LotConstraints{}, err
	}

	var resp struct {
		Symbols []struct {
			Symbol  string `json:"symbol"`
			Filters []struct {
				FilterType  string `json:"filterType"`
				MinQty      string `json:"minQty"`
				StepSize    string `json:"stepSize"`
				MinNotional string `json:"minNotional"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return exchange.LotConstraints{}, exchange.Fatal(op, fmt.Errorf("decode exchange info: %w", err))
	}

	var lot exchange.LotConstraints
	for _, s := range resp.Symbols {
		if s.Symbol != symbol {
			continue
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				lot.MinQty, _ = strconv.ParseFloat(f.MinQty, 64)
				lot.StepSize, _ = strconv.ParseFloat(f.StepSize, 64)
			case "MIN_NOTIONAL", "NOTIONAL":
				lot.MinNotional, _ = strconv.ParseFloat(f.MinNotional, 64)
			}
		}
	}
	if lot.MinQty == 0 || lot.StepSize == 0 {
		return exchange.LotConstraints{}, exchange.Fatal(op, fmt.Errorf("no lot filters for %s", symbol))
	}
	return lot, nil
}

// SubmitOrder places a market order and returns the normalized fill.
func (c *Client) SubmitOrder(ctx context.Context, symbol string, side exchange.Side, qty float64, clientID string) (exchange.Fill, error) {
	const op = "binance.order"
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return exchange.Fill{}, exchange.Fatal(op, errors.New("API key/secret required"))
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "MARKET")
	params.Set("quantity", formatFloat(qty))
	if clientID != "" {
		params.Set("newClientOrderId", clientID)
	}

	body, err := c.doSigned(ctx, op, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		return exchange.Fill{}, err
	}

	var resp struct {
		OrderID             int64  `json:"orderId"`
		ClientOrderID       string `json:"clientOrderId"`
		ExecutedQty         string `json:"executedQty"`
		CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return exchange.Fill{}, exchange.Fatal(op, fmt.Errorf("decode order response: %w", err))
	}

	filledQty, _ := strconv.ParseFloat(resp.ExecutedQty, 64)
	quoteQty, _ := strconv.ParseFloat(resp.CummulativeQuoteQty, 64)
	fill := exchange.Fill{
		OrderID:  strconv.FormatInt(resp.OrderID, 10),
		ClientID: resp.ClientOrderID,
		Symbol:   symbol,
		Side:     side,
		Qty:      filledQty,
	}
	if filledQty > 0 {
		fill.Price = quoteQty / filledQty
	}
	return fill, nil
}

func (c *Client) doPublic(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, exchange.Fatal(op, err)
	}
	return c.do(op, req)
}

func (c *Client) doSigned(ctx context.Context, op, method, path string, params url.Values) ([]byte, error) {
	params.Set("timestamp", strconv.FormatInt(c.timeSync.Now(), 10))
	params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow, 10))

	// The signature covers the exact payload as sent, so it is appended
	// rather than re-encoded into sorted position.
	encoded := params.Encode()
	encoded += "&signature=" + sign(encoded, c.cfg.APISecret)
	var req *http.Request
	var err error
	switch method {
	case http.MethodGet, http.MethodDelete:
		// Binance expects signed params in the query string for GET/DELETE.
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+encoded, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, exchange.Fatal(op, err)
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, exchange.Transient(op, err)
	}
	defer res.Body.Close()

	c.weight.Observe(res.Header.Get("X-MBX-USED-WEIGHT-1M"))

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		apiErr := fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
		var payload struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = json.Unmarshal(body, &payload)
		if exchange.ClassifyHTTP(res.StatusCode, payload.Code) == exchange.KindTransient {
			return nil, exchange.Transient(op, apiErr)
		}
		return nil, exchange.Fatal(op, apiErr)
	}
	return body, nil
}

func (c *Client) serverTime() (int64, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v3/time")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("server time status %d: %s", resp.StatusCode, string(b))
	}
	var res struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return 0, err
	}
	return res.ServerTime, nil
}

func sign(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
