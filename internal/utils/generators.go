package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// GenerateOrderID produces a ledger order identifier.
func GenerateOrderID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("order_%d_%06d", timestamp, randomNum.Int64())
}

// GenerateTicketNumber produces a human-readable ticket number prefixed
// with the event it belongs to.
func GenerateTicketNumber(eventID string) string {
	prefix := strings.ToUpper(eventID)
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999999))
	return fmt.Sprintf("TKT-%s-%09d", prefix, randomNum.Int64())
}
