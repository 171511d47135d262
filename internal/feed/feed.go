// Package feed is the ingest worker's market data source: a
// gorilla/websocket client that subscribes to a symbol list and
// decodes incoming trade batches over a plain JSON wire.
package feed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Trade is one tick as the feed emits it: price, symbol, millisecond
// timestamp, traded volume. The transactions table only accepts
// positive volume.
type Trade struct {
	Price  float64 `json:"p"`
	Symbol string  `json:"s"`
	Stamp  int64   `json:"t"`
	Volume float64 `json:"v"`
}

type tradeBatch struct {
	Data []Trade `json:"data"`
}

type subscribeRequest struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// Client is a long-lived connection to the external trade feed.
type Client struct {
	url     string
	token   string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewClient builds a feed client for url, authenticating with token
// as a bearer token on connect.
func NewClient(url, token string) *Client {
	return &Client{url: url, token: token}
}

// Connect dials the feed.
func (c *Client) Connect() error {
	header := make(http.Header)
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.url, header)
	if err != nil {
		return fmt.Errorf("feed: dial %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Subscribe sends one subscribe request per symbol.
func (c *Client) Subscribe(symbols []string) error {
	for _, sym := range symbols {
		data, err := json.Marshal(subscribeRequest{Type: "subscribe", Symbol: sym})
		if err != nil {
			return fmt.Errorf("feed: marshal subscribe %s: %w", sym, err)
		}
		if err := c.writeMessage(data); err != nil {
			return fmt.Errorf("feed: subscribe %s: %w", sym, err)
		}
	}
	return nil
}

func (c *Client) writeMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// StartPing keeps the connection alive with periodic pings.
func (c *Client) StartPing(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.writeMu.Lock()
				err := c.conn.WriteMessage(websocket.PingMessage, nil)
				c.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()
}

// ReadTrades blocks for the next frame and decodes it into individual
// trades. A frame with no "data" field yields an empty, non-error
// slice (pings and other control frames are tolerated).
func (c *Client) ReadTrades() ([]Trade, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var batch tradeBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("feed: decode batch: %w", err)
	}
	return batch.Data, nil
}

type symbolFile struct {
	Symbol string `json:"symbol"`
}

// DiscoverSymbols globs dir/mask and decodes each match's "symbol"
// field into the subscription list.
func DiscoverSymbols(dir, mask string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, mask))
	if err != nil {
		return nil, fmt.Errorf("feed: glob %s/%s: %w", dir, mask, err)
	}

	symbols := make([]string, 0, len(matches))
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("feed: read %s: %w", path, err)
		}
		var sf symbolFile
		if err := json.Unmarshal(raw, &sf); err != nil {
			return nil, fmt.Errorf("feed: decode %s: %w", path, err)
		}
		if sf.Symbol == "" {
			continue
		}
		symbols = append(symbols, sf.Symbol)
	}
	return symbols, nil
}
