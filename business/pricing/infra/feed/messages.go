// Package feed implements ReadingProvider on a push-based WebSocket
// price feed.
package feed

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/nmoretto/oraclewatch/internal/apperror"
)

// WSRequest is a subscription request.
type WSRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// WSResponse is a subscription acknowledgement.
type WSResponse struct {
	Result json.RawMessage `json:"result"`
	ID     int64           `json:"id"`
}

// TickEvent is one price update pushed by the feed. The price is the raw
// integer string at the feed's native precision.
type TickEvent struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Decimals  uint8  `json:"decimals"`
	Timestamp int64  `json:"ts"` // unix millis
}

// ParsePrice parses the raw integer price.
func (e *TickEvent) ParsePrice() (*big.Int, error) {
	value, ok := new(big.Int).SetString(e.Price, 10)
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidPrice,
			apperror.WithContext("feed price "+e.Price))
	}
	return value, nil
}

// UpdatedAt returns the update timestamp as time.Time.
func (e *TickEvent) UpdatedAt() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}
