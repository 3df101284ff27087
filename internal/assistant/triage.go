// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package assistant

import "strings"

// riskPhrases trigger the emergency short-circuit. Matching is substring
// based and deliberately permissive: a false positive costs one canned
// advisory reply, a false negative could cost far more.
var riskPhrases = []string{
	"chest pain",
	"heart attack",
	"can't breathe",
	"cannot breathe",
	"difficulty breathing",
	"severe bleeding",
	"stroke",
	"unconscious",
	"suicide",
	"kill myself",
	"severe allergic",
	"anaphylaxis",
	"choking",
}

// IsEmergency reports whether the message contains a risk phrase. Pure
// function, case-insensitive, no I/O.
func IsEmergency(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range riskPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
