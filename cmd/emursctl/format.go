package main

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numbers = message.NewPrinter(language.English)

// formatNumber renders n with thousands separators.
func formatNumber[T ~int | ~int64 | ~uint64 | ~uintptr](n T) string {
	return numbers.Sprintf("%d", n)
}

func formatBytes[T ~int | ~int64 | ~uint64 | ~uintptr](n T) string {
	const unit = 1024
	bytes := uint64(n)
	if bytes < unit {
		return numbers.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for m := bytes / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
