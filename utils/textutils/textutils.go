// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils normalizes user supplied names and formats numbers for
// terminal output.
package textutils

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

var printer = message.NewPrinter(language.English)

// FormatInt formats an integer with thousands separators.
func FormatInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat formats a float with thousands separators and the given number
// of decimals.
func FormatFloat(f float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), f)
}
