package failure

import "github.com/vietddude/tikwatch/internal/core/domain"

type entry struct {
	text        string
	suggestions []string
}

var table = map[domain.Category]entry{
	domain.CategoryNetwork: {
		text: "Network connection error",
		suggestions: []string{
			"Check your internet connection",
			"Try again in a few minutes",
		},
	},
	domain.CategoryAPIKey: {
		text: "API key is invalid or not configured",
		suggestions: []string{
			"Verify the RapidAPI key in the configuration",
			"Make sure the API subscription is active",
		},
	},
	domain.CategoryUserNotFound: {
		text: "User not found or not currently live",
		suggestions: []string{
			"Check that the username is spelled correctly",
			"Make sure the account is public and streaming",
		},
	},
	domain.CategoryRateLimited: {
		text: "Request rate limit exceeded",
		suggestions: []string{
			"Wait a few minutes before retrying",
			"Consider upgrading the API plan",
		},
	},
	domain.CategoryCORS: {
		text: "Cross-origin access was blocked",
		suggestions: []string{
			"Route requests through a server-side proxy",
			"Try a different proxy in the rotation",
		},
	},
	domain.CategoryTimeout: {
		text: "Request timed out",
		suggestions: []string{
			"Check your connection speed",
			"The upstream may be overloaded, try again later",
		},
	},
	domain.CategoryParse: {
		text: "Could not parse the upstream response",
		suggestions: []string{
			"The upstream page format may have changed",
			"Try again later or report the issue",
		},
	},
	domain.CategoryUnknown: {
		text: "Unexpected error",
		suggestions: []string{
			"Retry the request",
		},
	},
}

// Describe returns the human-readable text for a category.
func Describe(cat domain.Category) string {
	if e, ok := table[cat]; ok {
		return e.text
	}
	return table[domain.CategoryUnknown].text
}

// Suggestions returns a copy of the remediation list for a category.
func Suggestions(cat domain.Category) []string {
	e, ok := table[cat]
	if !ok {
		e = table[domain.CategoryUnknown]
	}
	out := make([]string, len(e.suggestions))
	copy(out, e.suggestions)
	return out
}
