package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID generates an order id of the form BF-<timestamp36>-<random>,
// the correlation key shared with the payment processor as session id.
func NewID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	rand := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return strings.ToUpper("BF-" + ts + "-" + rand)
}
