package service

import (
	"fmt"
	"strings"
	"time"
)

// TimeframeDuration maps a normalized timeframe ("1m", "4h", "1d") to its bar length.
func TimeframeDuration(tf string) (time.Duration, error) {
	switch normTF(tf) {
	case "1m":
		return time.Minute, nil
	case "3m":
		return 3 * time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "2h":
		return 2 * time.Hour, nil
	case "4h":
		return 4 * time.Hour, nil
	case "8h":
		return 8 * time.Hour, nil
	case "12h":
		return 12 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	case "1w":
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unsupported timeframe %q", tf)
}

func normTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case "60m":
		return "1h"
	case "240m":
		return "4h"
	case "24h":
		return "1d"
	}
	return s
}

func okxBar(tf string) (string, error) {
	switch s := normTF(tf); s {
	case "1m", "3m", "5m", "15m", "30m":
		return s, nil
	case "1h", "2h", "4h", "12h":
		return strings.ToUpper(s), nil
	case "1d":
		return "1D", nil
	case "1w":
		return "1W", nil
	}
	return "", fmt.Errorf("unsupported timeframe for OKX bar: %q", tf)
}

func mexcInterval(tf string) (string, error) {
	switch normTF(tf) {
	case "1m":
		return "Min1", nil
	case "5m":
		return "Min5", nil
	case "15m":
		return "Min15", nil
	case "30m":
		return "Min30", nil
	case "1h":
		return "Min60", nil
	case "4h":
		return "Hour4", nil
	case "8h":
		return "Hour8", nil
	case "1d":
		return "Day1", nil
	case "1w":
		return "Week1", nil
	}
	return "", fmt.Errorf("unsupported timeframe for MEXC interval: %q", tf)
}
