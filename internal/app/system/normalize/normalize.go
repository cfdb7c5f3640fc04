// Package normalize provides canonical forms for user-entered identity
// fields, applied at every store boundary so lookups and unique indexes
// compare like with like.
package normalize

import "strings"

// Email lowercases and trims an email address. Emails are unique
// case-insensitively; this is the single stored form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// InviteCode uppercases and trims a user-entered invite code so redemption
// is forgiving about how the code was typed or pasted.
func InviteCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
