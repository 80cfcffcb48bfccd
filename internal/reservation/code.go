package reservation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateBookingCode produces a human-shareable reservation identifier of the
// form RSV-YYYYMMDD-XXXXXX. Uniqueness is probabilistic; the orchestrator
// retries on a unique-constraint violation.
func GenerateBookingCode(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			// crypto/rand only fails when the platform source is broken;
			// fall back to a time-derived index rather than panic.
			suffix[i] = codeAlphabet[int(time.Now().UnixNano())%len(codeAlphabet)]
			continue
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("RSV-%s-%s", now.Format("20060102"), string(suffix))
}
