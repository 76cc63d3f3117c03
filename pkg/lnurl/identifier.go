package lnurl

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/pkg/errors"

	"github.com/code-payments/code-payout-server/pkg/lightning"
)

const (
	bech32Prefix = "lnurl"
	payScheme    = "lnurlp"
)

var (
	ErrInvalidIdentifier = errors.New("invalid lnurl identifier")

	lightningAddressPattern = regexp.MustCompile(`^[a-z0-9\-_.+]+@([a-z0-9\-]+\.)+[a-z0-9\-]+(:[0-9]+)?$`)
)

// IsLightningAddress reports whether value is an internet identifier of the
// form user@domain
func IsLightningAddress(value string) bool {
	return lightningAddressPattern.MatchString(strings.ToLower(lightning.TrimScheme(value)))
}

// IsIdentifier reports whether value can be resolved into a pay endpoint
func IsIdentifier(value string) bool {
	_, err := ParseIdentifier(value)
	return err == nil
}

// ParseIdentifier normalises a lightning address, bech32 encoded LNURL or
// lnurlp:// URL into the endpoint that serves pay parameters
func ParseIdentifier(value string) (*url.URL, error) {
	value = lightning.TrimScheme(value)
	if len(value) == 0 {
		return nil, ErrInvalidIdentifier
	}

	if IsLightningAddress(value) {
		return fromLightningAddress(value)
	}

	lowered := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lowered, bech32Prefix+"1"):
		return fromBech32(value)
	case strings.HasPrefix(lowered, payScheme+"://"):
		return fromURL(value[len(payScheme+"://"):])
	case strings.HasPrefix(lowered, "https://"), strings.HasPrefix(lowered, "http://"):
		return fromFallbackURL(value)
	}
	return nil, ErrInvalidIdentifier
}

func fromLightningAddress(value string) (*url.URL, error) {
	parts := strings.SplitN(strings.ToLower(value), "@", 2)
	user, domain := parts[0], parts[1]

	return &url.URL{
		Scheme: schemeFor(domain),
		Host:   domain,
		Path:   "/.well-known/lnurlp/" + user,
	}, nil
}

func fromBech32(value string) (*url.URL, error) {
	hrp, data, err := bech32.DecodeNoLimit(value)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidIdentifier, err.Error())
	}
	if hrp != bech32Prefix {
		return nil, errors.Wrapf(ErrInvalidIdentifier, "unexpected prefix %s", hrp)
	}

	converted, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidIdentifier, err.Error())
	}

	parsed, err := url.Parse(string(converted))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidIdentifier, err.Error())
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return nil, errors.Wrapf(ErrInvalidIdentifier, "unsupported scheme %s", parsed.Scheme)
	}
	if parsed.Scheme == "http" && !isOnion(parsed.Hostname()) {
		return nil, errors.Wrap(ErrInvalidIdentifier, "clearnet endpoints must use https")
	}
	return parsed, nil
}

func fromURL(rest string) (*url.URL, error) {
	parsed, err := url.Parse("https://" + rest)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidIdentifier, err.Error())
	}
	if len(parsed.Host) == 0 {
		return nil, ErrInvalidIdentifier
	}

	parsed.Scheme = schemeFor(parsed.Hostname())
	return parsed, nil
}

// fromFallbackURL handles web links carrying the bech32 LNURL in a
// "lightning" query parameter
func fromFallbackURL(value string) (*url.URL, error) {
	parsed, err := url.Parse(value)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidIdentifier, err.Error())
	}

	embedded := parsed.Query().Get("lightning")
	if !strings.HasPrefix(strings.ToLower(embedded), bech32Prefix+"1") {
		return nil, ErrInvalidIdentifier
	}
	return fromBech32(embedded)
}

// EncodeBech32 encodes an endpoint as a bech32 LNURL
func EncodeBech32(endpoint *url.URL) (string, error) {
	converted, err := bech32.ConvertBits([]byte(endpoint.String()), 8, 5, true)
	if err != nil {
		return "", err
	}

	encoded, err := bech32.Encode(bech32Prefix, converted)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(encoded), nil
}

func schemeFor(host string) string {
	if isOnion(host) {
		return "http"
	}
	return "https"
}

func isOnion(host string) bool {
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.HasSuffix(strings.ToLower(host), ".onion")
}
