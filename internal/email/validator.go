// ABOUTME: Email normalization and validation for the registration flow
// ABOUTME: Syntax, disposable-domain, and MX checks with a DNS failure policy

package email

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Validation errors. ErrInvalidEmail is deliberately generic: syntax and
// MX failures share one message so callers cannot learn which check
// tripped. Disposable domains get their own message.
var (
	ErrInvalidEmail    = errors.New("please enter a valid email address that can receive mail")
	ErrDisposableEmail = errors.New("please use a permanent email address, not a disposable one")
)

// FailurePolicy decides what an inconclusive DNS check means.
type FailurePolicy string

const (
	// FailOpen accepts the address when DNS is flaky. DNS outages must
	// never block a legitimate signup.
	FailOpen FailurePolicy = "open"
	// FailClosed rejects the address when DNS is flaky.
	FailClosed FailurePolicy = "closed"
)

// DefaultDNSTimeout bounds each resolver call when none is configured.
const DefaultDNSTimeout = 5 * time.Second

// localPartRE matches the RFC 5322 atext character class plus dots.
var localPartRE = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+$")

// domainLabelRE matches the LDH (letters, digits, hyphen) class domain
// labels are restricted to.
var domainLabelRE = regexp.MustCompile("^[a-zA-Z0-9-]+$")

// Resolver is the subset of net.Resolver the MX check needs. Tests inject
// fakes to simulate timeouts and missing records.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Options configures a Validator.
type Options struct {
	CheckMX          bool
	CheckDisposable  bool
	DNSTimeout       time.Duration
	DNSFailurePolicy FailurePolicy
	Resolver         Resolver
	Logger           *slog.Logger
}

// Validator runs the registration email pipeline: normalize, syntax,
// disposable-domain, and mail-exchanger checks, in that order,
// short-circuiting on the first failure.
type Validator struct {
	checkMX         bool
	checkDisposable bool
	dnsTimeout      time.Duration
	failurePolicy   FailurePolicy
	resolver        Resolver
	logger          *slog.Logger
}

// NewValidator creates a validator. The zero Resolver defaults to
// net.DefaultResolver, the zero timeout to DefaultDNSTimeout, and the
// zero failure policy to FailOpen.
func NewValidator(opts Options) *Validator {
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	if opts.DNSTimeout <= 0 {
		opts.DNSTimeout = DefaultDNSTimeout
	}
	if opts.DNSFailurePolicy == "" {
		opts.DNSFailurePolicy = FailOpen
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Validator{
		checkMX:         opts.CheckMX,
		checkDisposable: opts.CheckDisposable,
		dnsTimeout:      opts.DNSTimeout,
		failurePolicy:   opts.DNSFailurePolicy,
		resolver:        opts.Resolver,
		logger:          opts.Logger.With("component", "email-validator"),
	}
}

// Normalize canonicalizes an email address: trim, NFKC normalize,
// lowercase the domain portion, and strip trailing dots from the domain.
// The local part is preserved as-is. Normalize is idempotent.
func Normalize(email string) string {
	email = norm.NFKC.String(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return strings.ToLower(email)
	}

	local := email[:at]
	// Domains are case-insensitive per RFC; local parts technically are
	// not, so they stay untouched.
	domain := strings.ToLower(email[at+1:])
	domain = strings.TrimRight(domain, ".")

	return local + "@" + domain
}

// Validate runs the full pipeline and returns the normalized address.
// DNS timeouts and transport errors follow the configured failure policy
// instead of surfacing as errors.
func (v *Validator) Validate(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrInvalidEmail
	}

	normalized := Normalize(email)

	if !checkSyntax(normalized) {
		return "", ErrInvalidEmail
	}

	domain := normalized[strings.LastIndex(normalized, "@")+1:]

	if v.checkDisposable && IsDisposableDomain(domain) {
		return "", ErrDisposableEmail
	}

	if v.checkMX {
		if err := v.checkMailServer(ctx, domain); err != nil {
			return "", err
		}
	}

	return normalized, nil
}

// checkSyntax enforces the RFC 5321/5322 shape: exactly one @, a 1-64
// char local part from the permitted class, and a dotted domain of 1-255
// chars whose labels are 1-63 letters, digits, and hyphens, with no
// leading or trailing hyphen.
func checkSyntax(email string) bool {
	if strings.Count(email, "@") != 1 {
		return false
	}

	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]

	if len(local) == 0 || len(local) > 64 {
		return false
	}
	if !localPartRE.MatchString(local) {
		return false
	}

	if len(domain) == 0 || len(domain) > 255 {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}

	for _, label := range strings.Split(domain, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !domainLabelRE.MatchString(label) {
			return false
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}

	return true
}

// checkMailServer verifies the domain can receive mail: MX records first,
// then a basic address record as fallback. A definite "no such host" from
// the resolver rejects; anything inconclusive (timeout, transport error)
// follows the failure policy.
func (v *Validator) checkMailServer(ctx context.Context, domain string) error {
	ctx, cancel := context.WithTimeout(ctx, v.dnsTimeout)
	defer cancel()

	mxRecords, err := v.resolver.LookupMX(ctx, domain)
	if err == nil && len(mxRecords) > 0 {
		return nil
	}
	if err != nil && !isNotFound(err) {
		return v.applyFailurePolicy(domain, err)
	}

	// Domain resolved but has no MX records. Some domains accept mail on
	// their address record.
	addrs, err := v.resolver.LookupIPAddr(ctx, domain)
	if err == nil && len(addrs) > 0 {
		return nil
	}
	if err != nil && !isNotFound(err) {
		return v.applyFailurePolicy(domain, err)
	}

	v.logger.Warn("no MX or A records for domain", "domain", domain)
	return ErrInvalidEmail
}

// applyFailurePolicy resolves an inconclusive DNS outcome.
func (v *Validator) applyFailurePolicy(domain string, err error) error {
	if v.failurePolicy == FailClosed {
		v.logger.Warn("DNS check failed, rejecting per fail-closed policy", "domain", domain, "error", err)
		return ErrInvalidEmail
	}
	v.logger.Warn("DNS check failed, accepting per fail-open policy", "domain", domain, "error", err)
	return nil
}

// isNotFound reports whether the resolver definitively said the name does
// not exist, as opposed to timing out or otherwise failing.
func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}
