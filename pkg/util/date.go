package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical wire format for observation dates.
const DateLayout = "2006-01-02"

// NormalizeUSDate converts a "M/D/YYYY" date to "YYYY-MM-DD".
// Returns ("", false) when the input is not a parseable US-style date.
func NormalizeUSDate(s string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return "", false
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return "", false
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return "", false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 1000 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// DateUTC formats t as a YYYY-MM-DD day in UTC.
func DateUTC(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
