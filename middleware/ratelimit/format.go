package ratelimit

import (
	"strconv"
	"time"

	"static-httpd/middleware/ratelimit/domain"
)

type windowInfo interface {
	Max() int
	Window() time.Duration
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// describe monta a linha curta da política usada em logs, ex.:
// "sliding max=100 window=1m0s" ou "token rps=0.5 burst=1".
func describe(store domain.LimiterStore) string {
	switch s := store.(type) {
	case nil:
		return "disabled"
	case windowInfo:
		return "sliding max=" + strconv.Itoa(s.Max()) + " window=" + s.Window().String()
	case rateInfo:
		// 'f' com precisão -1 evita notação científica (rps=0.016666666666666666)
		return "token rps=" + strconv.FormatFloat(s.RPS(), 'f', -1, 64) + " burst=" + strconv.Itoa(s.Burst())
	default:
		return "custom"
	}
}
