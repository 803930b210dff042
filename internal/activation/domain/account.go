package domain

import "strings"

// ResolvedAccount is the payload returned by the account-resolution provider
type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// SplitName returns the first two whitespace-delimited tokens of the account
// name. Names with more than two tokens silently drop the remainder.
func (a ResolvedAccount) SplitName() (firstName, lastName string) {
	parts := strings.Fields(a.AccountName)
	if len(parts) > 0 {
		firstName = parts[0]
	}
	if len(parts) > 1 {
		lastName = parts[1]
	}
	return firstName, lastName
}
