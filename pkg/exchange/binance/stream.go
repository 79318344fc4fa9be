package binance

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// StreamClient manages streaming from the futures public websocket.
type StreamClient struct {
	StreamURL string
	dialer    *websocket.Dialer
	log       zerolog.Logger
}

// NewStreamClient builds a websocket client; testnet toggles the host.
func NewStreamClient(testnet bool, log zerolog.Logger) *StreamClient {
	host := "fstream.binance.com"
	if testnet {
		host = "stream.binancefuture.com"
	}
	return &StreamClient{
		StreamURL: (&url.URL{Scheme: "wss", Host: host, Path: "/ws"}).String(),
		dialer:    websocket.DefaultDialer,
		log:       log,
	}
}

// StreamKline is a kline update pushed over the websocket. Final marks
// the candle as closed; consumers must drop non-final updates before
// feeding the state machine.
type StreamKline struct {
	Kline
	Final bool
}

// SubscribeKlines listens to the kline stream and pushes parsed updates
// into a channel. It returns the channel and a stop function.
func (c *StreamClient) SubscribeKlines(ctx context.Context, symbol, interval string) (<-chan StreamKline, func(), error) {
	stream := fmt.Sprintf("%s@kline_%s", strings.ToLower(symbol), interval)
	u := fmt.Sprintf("%s/%s", c.StreamURL, stream)

	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("dial binance ws: %w", err)
	}

	out := make(chan StreamKline, 100)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		})
	}

	go func() {
		// The reader is the only sender, so it alone closes out. stop
		// just tears down the connection and lets the read error end
		// the loop.
		defer close(out)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
					strings.Contains(err.Error(), "use of closed network connection") {
					return
				}
				c.log.Warn().Err(err).Msg("binance ws read error")
				return
			}

			k := gjson.GetBytes(msg, "k")
			if !k.Exists() {
				continue
			}
			out <- StreamKline{
				Kline: Kline{
					OpenTime:    k.Get("t").Int(),
					Open:        k.Get("o").Float(),
					High:        k.Get("h").Float(),
					Low:         k.Get("l").Float(),
					Close:       k.Get("c").Float(),
					Volume:      k.Get("v").Float(),
					CloseTime:   k.Get("T").Int(),
					QuoteVolume: k.Get("q").Float(),
				},
				Final: k.Get("x").Bool(),
			}
		}
	}()

	return out, stop, nil
}
