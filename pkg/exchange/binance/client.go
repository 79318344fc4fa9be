package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"

	"perp-exec/pkg/exchange"
)

const (
	mainnetBase = "https://fapi.binance.com"
	testnetBase = "https://testnet.binancefuture.com"

	requestTimeout = 3 * time.Second
	recvWindow     = 6000

	// Venue error for a post-only order that would execute as taker.
	codePostOnlyReject = -5022
)

// Config for the USDT-M futures client.
type Config struct {
	APIKey    string
	APISecret string
	Testnet   bool
}

// Client talks to Binance USDT-M futures over REST.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	http      *fasthttp.Client
	pacer     *exchange.Pacer
}

// NewClient builds a REST client; Testnet switches base URLs.
func NewClient(cfg Config) *Client {
	base := mainnetBase
	if cfg.Testnet {
		base = testnetBase
	}
	return &Client{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		baseURL:   base,
		http:      &fasthttp.Client{ReadTimeout: requestTimeout, WriteTimeout: requestTimeout},
		pacer:     exchange.NewPacer(2400),
	}
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// do executes one REST round trip and returns the parsed body. Signed
// requests get timestamp, recvWindow and an HMAC signature appended.
func (c *Client) do(ctx context.Context, method, path string, args map[string]string, signed bool) (gjson.Result, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	queryArgs := req.URI().QueryArgs()
	for k, v := range args {
		queryArgs.Set(k, v)
	}
	if signed {
		queryArgs.Set("recvWindow", strconv.Itoa(recvWindow))
		queryArgs.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		queryArgs.Set("signature", c.sign(string(queryArgs.QueryString())))
	}

	if err := c.http.DoTimeout(req, resp, requestTimeout); err != nil {
		return gjson.Result{}, fmt.Errorf("binance %s %s: %w", method, path, err)
	}

	body := gjson.ParseBytes(append([]byte(nil), resp.Body()...))
	if resp.StatusCode() >= 400 {
		code := body.Get("code").Int()
		if code == codePostOnlyReject {
			return gjson.Result{}, exchange.ErrPostOnlyReject
		}
		return gjson.Result{}, fmt.Errorf("binance %s %s: status %d code %d: %s",
			method, path, resp.StatusCode(), code, body.Get("msg").String())
	}
	return body, nil
}

// BookTicker fetches best bid/ask for a symbol.
func (c *Client) BookTicker(ctx context.Context, symbol string) (exchange.BookTicker, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, "/fapi/v1/ticker/bookTicker",
		map[string]string{"symbol": symbol}, false)
	if err != nil {
		return exchange.BookTicker{}, err
	}
	return exchange.BookTicker{
		Symbol:   symbol,
		BidPrice: body.Get("bidPrice").Float(),
		AskPrice: body.Get("askPrice").Float(),
		Time:     body.Get("time").Int(),
	}, nil
}

// PositionRisk returns the signed position and exposure for a symbol.
// The exchange account is the source of truth; callers re-fetch every
// cycle instead of trusting local state.
func (c *Client) PositionRisk(ctx context.Context, symbol string) (exchange.Position, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, "/fapi/v2/positionRisk",
		map[string]string{"symbol": symbol}, true)
	if err != nil {
		return exchange.Position{}, err
	}

	pos := exchange.Position{Symbol: symbol}
	for _, row := range body.Array() {
		if row.Get("symbol").String() != symbol {
			continue
		}
		pos.Qty = row.Get("positionAmt").Float()
		pos.EntryPrice = row.Get("entryPrice").Float()
		pos.Notional = row.Get("notional").Float()
		pos.UnrealizedPnL = row.Get("unRealizedProfit").Float()
		break
	}
	return pos, nil
}

// PlaceOrder submits one order, rounding price and quantity to the
// instrument's tick and step first.
func (c *Client) PlaceOrder(ctx context.Context, req exchange.OrderRequest) (exchange.OrderResult, error) {
	args := map[string]string{
		"symbol": req.Symbol,
		"side":   string(req.Side),
		"type":   string(req.Type),
	}

	qty, err := RoundQty(req.Symbol, req.Qty)
	if err != nil {
		return exchange.OrderResult{}, err
	}
	args["quantity"] = qty

	if req.Type == exchange.TypeLimit {
		price, err := RoundPrice(req.Symbol, req.Price)
		if err != nil {
			return exchange.OrderResult{}, err
		}
		args["price"] = price
		tif := req.TimeInForce
		if tif == "" {
			tif = exchange.TifGTC
		}
		args["timeInForce"] = string(tif)
	}
	if req.ReduceOnly {
		args["reduceOnly"] = "true"
	}
	if req.ClientID != "" {
		args["newClientOrderId"] = req.ClientID
	}

	body, err := c.do(ctx, fasthttp.MethodPost, "/fapi/v1/order", args, true)
	if err != nil {
		return exchange.OrderResult{}, err
	}
	return parseOrder(body), nil
}

// OrderStatus queries one order by venue order id.
func (c *Client) OrderStatus(ctx context.Context, symbol, orderID string) (exchange.OrderResult, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, "/fapi/v1/order",
		map[string]string{"symbol": symbol, "orderId": orderID}, true)
	if err != nil {
		return exchange.OrderResult{}, err
	}
	return parseOrder(body), nil
}

// CancelOrder cancels a single order by venue order id.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	_, err := c.do(ctx, fasthttp.MethodDelete, "/fapi/v1/order",
		map[string]string{"symbol": symbol, "orderId": orderID}, true)
	return err
}

func parseOrder(body gjson.Result) exchange.OrderResult {
	return exchange.OrderResult{
		OrderID:     body.Get("orderId").String(),
		ClientID:    body.Get("clientOrderId").String(),
		Status:      body.Get("status").String(),
		Side:        exchange.Side(body.Get("side").String()),
		Price:       body.Get("price").Float(),
		ExecutedQty: body.Get("executedQty").Float(),
	}
}

// CancelAllOpen cancels every open order for the symbol. Idempotent:
// the venue answers success when nothing is open.
func (c *Client) CancelAllOpen(ctx context.Context, symbol string) error {
	_, err := c.do(ctx, fasthttp.MethodDelete, "/fapi/v1/allOpenOrders",
		map[string]string{"symbol": symbol}, true)
	return err
}

var _ exchange.Gateway = (*Client)(nil)
