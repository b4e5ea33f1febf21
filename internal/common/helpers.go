package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlexZinkM/stellar-wallet/internal/model"
)

const (
	StellarDecimals = 7 // 1 unit = 10^7 stroops
)

// StroopsToAmount converts stroops to a decimal amount string without float precision loss
func StroopsToAmount(stroops int64) string {
	if stroops < 0 {
		return "-" + formatWithDecimals(uint64(-stroops), StellarDecimals)
	}
	return formatWithDecimals(uint64(stroops), StellarDecimals)
}

// AmountToStroops converts a decimal amount string to stroops without float precision loss.
// Amounts with more than 7 fractional digits are rejected rather than truncated.
func AmountToStroops(amount string) (int64, error) {
	v, err := parseWithDecimals(amount, StellarDecimals)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", model.ErrInvalidAmount, amount, err)
	}
	if v > uint64(1<<63-1) {
		return 0, fmt.Errorf("%w %q: too large", model.ErrInvalidAmount, amount)
	}
	return int64(v), nil
}

// NormalizeAmount validates a strictly positive payment amount and returns its canonical form.
func NormalizeAmount(amount string) (string, error) {
	stroops, err := AmountToStroops(amount)
	if err != nil {
		return "", err
	}
	if stroops == 0 {
		return "", fmt.Errorf("%w %q: must be positive", model.ErrInvalidAmount, amount)
	}
	return StroopsToAmount(stroops), nil
}

// formatWithDecimals converts integer to decimal string by inserting decimal point
// Example: formatWithDecimals(105000000, 7) = "10.5000000"
func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseWithDecimals converts decimal string to integer by removing decimal point
// Example: parseWithDecimals("10.5", 7) = 105000000
func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid decimal format")
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid decimal format")
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("only digits and a single decimal point are allowed")
	}
	if len(frac) > decimals {
		return 0, fmt.Errorf("at most %d decimal places are allowed", decimals)
	}

	frac += strings.Repeat("0", decimals-len(frac))
	return strconv.ParseUint(whole+frac, 10, 64)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
