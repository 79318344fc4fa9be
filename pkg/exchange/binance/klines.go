package binance

import (
	"context"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

// Kline is one USDT-M futures candlestick.
type Kline struct {
	OpenTime    int64
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	CloseTime   int64
	QuoteVolume float64
}

// Klines fetches up to limit candles, most recent last. The final entry
// is the still-forming candle.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	if limit <= 0 || limit > 1500 {
		limit = 1500
	}
	body, err := c.do(ctx, fasthttp.MethodGet, "/fapi/v1/klines", map[string]string{
		"symbol":   symbol,
		"interval": interval,
		"limit":    strconv.Itoa(limit),
	}, false)
	if err != nil {
		return nil, err
	}
	return parseKlines(body), nil
}

// ClosedKlines fetches candles and drops the unfinished last entry, so
// only closed bars ever reach the position state machine.
func (c *Client) ClosedKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	ks, err := c.Klines(ctx, symbol, interval, limit+1)
	if err != nil {
		return nil, err
	}
	if len(ks) == 0 {
		return nil, nil
	}
	return ks[:len(ks)-1], nil
}

func parseKlines(body gjson.Result) []Kline {
	rows := body.Array()
	klines := make([]Kline, 0, len(rows))
	for _, v := range rows {
		row := v.Array()
		if len(row) < 8 {
			continue
		}
		klines = append(klines, Kline{
			OpenTime:    row[0].Int(),
			Open:        row[1].Float(),
			High:        row[2].Float(),
			Low:         row[3].Float(),
			Close:       row[4].Float(),
			Volume:      row[5].Float(),
			CloseTime:   row[6].Int(),
			QuoteVolume: row[7].Float(),
		})
	}
	return klines
}
