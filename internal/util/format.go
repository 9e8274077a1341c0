package util

import "fmt"

// FormatBytes formats a byte count with a binary unit suffix for readability.
// Examples: 512 -> "512 B", 1536 -> "1.5 KiB", 33554432 -> "32.0 MiB"
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 4; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTP"[exp])
}
