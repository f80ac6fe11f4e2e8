// Package cli provides utilities for CLI argument parsing and user interaction.
package cli

import "unicode"

// IsFlag returns true if the argument looks like a flag (starts with - or --).
// Returns false for single dash, empty string, or negative numbers.
func IsFlag(arg string) bool {
	if len(arg) < 2 {
		return false
	}

	if arg[0] != '-' {
		return false
	}

	// Check for negative number (e.g., -123, -1.23)
	if unicode.IsDigit(rune(arg[1])) || (arg[1] == '.' && len(arg) > 2 && unicode.IsDigit(rune(arg[2]))) {
		return false
	}

	return true
}
