// ABOUTME: Known disposable/throwaway mail domains rejected at registration
// ABOUTME: Matched case-insensitively against the normalized domain

package email

import "strings"

// disposableDomains is the fixed set of known throwaway mail providers.
var disposableDomains = map[string]struct{}{
	"mailinator.com":         {},
	"temp-mail.org":          {},
	"guerrillamail.com":      {},
	"tempmail.com":           {},
	"10minutemail.com":       {},
	"throwaway.email":        {},
	"maildrop.cc":            {},
	"trashmail.com":          {},
	"yopmail.com":            {},
	"fakeinbox.com":          {},
	"getnada.com":            {},
	"anonbox.net":            {},
	"dispostable.com":        {},
	"emailondeck.com":        {},
	"spam4.me":               {},
	"temp-mail.io":           {},
	"mohmal.com":             {},
	"mailnesia.com":          {},
	"sharklasers.com":        {},
	"guerrillamailblock.com": {},
	"getairmail.com":         {},
	"mytemp.email":           {},
	"tmpmail.net":            {},
	"fakemail.net":           {},
	"throwawaymail.com":      {},
	"mintemail.com":          {},
	"tempinbox.com":          {},
	"jetable.org":            {},
}

// IsDisposableDomain reports whether the domain is a known disposable
// mail provider.
func IsDisposableDomain(domain string) bool {
	_, ok := disposableDomains[strings.ToLower(domain)]
	return ok
}
