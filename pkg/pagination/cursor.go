package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Table names the result set a cursor pages through.
type Table string

const (
	TableMonthlyAverage  Table = "monthly_average"
	TableMonthlyWeighted Table = "monthly_weighted"
	TableDispersion      Table = "dispersion"
)

// Cursor is the canonical, opaque pagination token (pre-encoding) with short field names to
// minimize payload size. It is serialized to minified JSON and encoded with URL-safe base64.
//
// Fields:
//   - v:   version of the cursor schema
//   - did: dataset handle ID
//   - t:   result table being paged
//   - off: row offset into the table
//   - ps:  page size in rows
//   - iat: issued-at timestamp (unix seconds)
//   - st:  optional state filter carried for cursor-only resume
//   - ym:  optional year-month filter carried for cursor-only resume
type Cursor struct {
	V   int    `json:"v"`
	Did string `json:"did"`
	T   Table  `json:"t"`
	Off int    `json:"off"`
	Ps  int    `json:"ps"`
	Iat int64  `json:"iat"`
	St  string `json:"st,omitempty"`
	Ym  string `json:"ym,omitempty"`
}

// EncodeCursor serializes and encodes the cursor as URL-safe base64 (without padding).
func EncodeCursor(c Cursor) (string, error) {
	if err := validate(&c); err != nil {
		return "", err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor decodes a URL-safe base64 token and parses the JSON cursor.
func DecodeCursor(token string) (*Cursor, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, errors.New("cursor: empty token")
	}
	data, err := base64.RawURLEncoding.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("cursor: invalid base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cursor: invalid json: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate performs structural checks and defaulting.
func validate(c *Cursor) error {
	if c.V <= 0 {
		c.V = 1
	}
	if c.Iat == 0 {
		c.Iat = time.Now().Unix()
	}
	if strings.TrimSpace(c.Did) == "" {
		return errors.New("cursor: did (dataset id) required")
	}
	switch c.T {
	case TableMonthlyAverage, TableMonthlyWeighted, TableDispersion:
	default:
		return fmt.Errorf("cursor: invalid table %q", string(c.T))
	}
	if c.Off < 0 {
		return errors.New("cursor: off must be >= 0")
	}
	if c.Ps <= 0 {
		return errors.New("cursor: ps must be > 0")
	}
	return nil
}

// Window returns the [start, end) slice bounds for a page of size ps at
// offset off over total rows, and the offset of the following page or -1
// when the page is the last one.
func Window(total, off, ps int) (start, end, next int) {
	if off < 0 {
		off = 0
	}
	if off > total {
		off = total
	}
	end = off + ps
	if ps <= 0 || end > total {
		end = total
	}
	next = -1
	if end < total {
		next = end
	}
	return off, end, next
}
