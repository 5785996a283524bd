package utils

import (
	"fmt"
	"strconv"
	"strings"
)

const orderNumberPrefix = "WS-"

// FormatOrderNumber renders a sequence value as WS-00000042.
func FormatOrderNumber(seq int64) string {
	return fmt.Sprintf("%s%08d", orderNumberPrefix, seq)
}

// IsOrderNumber reports whether s looks like a value produced by FormatOrderNumber.
func IsOrderNumber(s string) bool {
	if !strings.HasPrefix(s, orderNumberPrefix) {
		return false
	}
	digits := strings.TrimPrefix(s, orderNumberPrefix)
	if len(digits) < 8 {
		return false
	}
	_, err := strconv.ParseUint(digits, 10, 64)
	return err == nil
}
