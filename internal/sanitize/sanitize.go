// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package sanitize strips HTML from user-submitted form fields before they
// are persisted or relayed by email.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Strip removes all HTML tags and attributes from s and trims surrounding
// whitespace. Idempotent.
func Strip(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// StripPtr sanitizes an optional field. A nil input or an input that
// sanitizes to the empty string yields nil.
func StripPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Strip(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// StripAll sanitizes every entry of values, dropping entries that end up
// empty.
func StripAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if clean := Strip(v); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
