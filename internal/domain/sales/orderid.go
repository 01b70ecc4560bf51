package sales

import (
	"strings"
	"time"

	"dsrsales/internal/core/id"
)

// NewOrderID returns ORD-YYYYMMDD-XXXXXXXXXXXX: the UTC date and 48 random bits.
func NewOrderID(now time.Time) string {
	return "ORD-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(id.RandomHex(12))
}
