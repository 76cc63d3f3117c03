package lightning

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/pkg/errors"
)

var (
	ErrInvalidInvoice  = errors.New("invalid invoice")
	ErrUnknownNetwork  = errors.New("unknown network")
	ErrMissingHash     = errors.New("invoice is missing a payment hash")
	ErrNetworkMismatch = errors.New("invoice is for a different network")
)

// Invoice is a decoded payment request. A zero Amount means the payee
// accepts any amount.
type Invoice struct {
	PaymentRequest string
	Amount         MilliSatoshi
	Expiry         time.Time
	PaymentHash    string
}

// IsExpired reports whether the invoice can no longer be paid at the
// provided time
func (i *Invoice) IsExpired(at time.Time) bool {
	return i.Expiry.Before(at)
}

// IsAnyAmount reports whether the payee left the amount up to the payer
func (i *Invoice) IsAnyAmount() bool {
	return i.Amount == 0
}

// InvoiceDecoder turns an encoded payment request into an Invoice
type InvoiceDecoder interface {
	Decode(paymentRequest string) (*Invoice, error)
}

type bolt11Decoder struct {
	network *chaincfg.Params
}

// NewBolt11Decoder returns an InvoiceDecoder for BOLT11 payment requests on
// the provided network
func NewBolt11Decoder(network *chaincfg.Params) InvoiceDecoder {
	return &bolt11Decoder{
		network: network,
	}
}

// Decode implements InvoiceDecoder.Decode
func (d *bolt11Decoder) Decode(paymentRequest string) (*Invoice, error) {
	paymentRequest = TrimScheme(paymentRequest)

	decoded, err := zpay32.Decode(paymentRequest, d.network)
	if err != nil {
		if strings.Contains(err.Error(), "invoice not for current active network") {
			return nil, errors.Wrap(ErrNetworkMismatch, err.Error())
		}
		return nil, errors.Wrap(ErrInvalidInvoice, err.Error())
	}

	if decoded.PaymentHash == nil {
		return nil, ErrMissingHash
	}

	var amount MilliSatoshi
	if decoded.MilliSat != nil {
		amount = MilliSatoshi(*decoded.MilliSat)
	}

	return &Invoice{
		PaymentRequest: paymentRequest,
		Amount:         amount,
		Expiry:         decoded.Timestamp.Add(decoded.Expiry()),
		PaymentHash:    hex.EncodeToString(decoded.PaymentHash[:]),
	}, nil
}

// TrimScheme removes a leading "lightning:" URI scheme, case-insensitively
func TrimScheme(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= len("lightning:") && strings.EqualFold(value[:len("lightning:")], "lightning:") {
		return value[len("lightning:"):]
	}
	return value
}

// ParseNetwork maps a network name to its chain parameters
func ParseNetwork(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mainnet", "main", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	}
	return nil, errors.Wrap(ErrUnknownNetwork, name)
}
