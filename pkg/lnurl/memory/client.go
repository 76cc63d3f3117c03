package memory

import (
	"context"
	"net/url"
	"sync"

	"github.com/code-payments/code-payout-server/pkg/lightning"
	"github.com/code-payments/code-payout-server/pkg/lnurl"
)

// Client is a scriptable lnurl.Client keyed by endpoint URL
type Client struct {
	mu sync.Mutex

	params     map[string]*lnurl.PayParams
	invoices   map[string]string
	fetchErr   error
	requestErr error

	fetchCalls   []string
	requestCalls []lightning.MilliSatoshi
}

func NewClient() *Client {
	return &Client{
		params:   make(map[string]*lnurl.PayParams),
		invoices: make(map[string]string),
	}
}

// SetPayParams registers the parameters served at endpoint and the payment
// request its callback issues
func (c *Client) SetPayParams(endpoint *url.URL, params *lnurl.PayParams, paymentRequest string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cloned := *params
	c.params[endpoint.String()] = &cloned
	if params.Callback != nil {
		c.invoices[params.Callback.String()] = paymentRequest
	}
}

func (c *Client) SetFetchError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchErr = err
}

func (c *Client) SetRequestError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestErr = err
}

// FetchPayParams implements lnurl.Client.FetchPayParams
func (c *Client) FetchPayParams(ctx context.Context, endpoint *url.URL) (*lnurl.PayParams, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchCalls = append(c.fetchCalls, endpoint.String())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}

	params, ok := c.params[endpoint.String()]
	if !ok {
		return nil, &lnurl.Error{Reason: "unknown endpoint"}
	}

	cloned := *params
	return &cloned, nil
}

// RequestInvoice implements lnurl.Client.RequestInvoice
func (c *Client) RequestInvoice(ctx context.Context, params *lnurl.PayParams, amount lightning.MilliSatoshi) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCalls = append(c.requestCalls, amount)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.requestErr != nil {
		return "", c.requestErr
	}
	if !params.Accepts(amount) {
		return "", lnurl.ErrAmountNotAllowed
	}

	paymentRequest, ok := c.invoices[params.Callback.String()]
	if !ok {
		return "", &lnurl.Error{Reason: "unknown callback"}
	}
	return paymentRequest, nil
}

func (c *Client) FetchCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]string, len(c.fetchCalls))
	copy(res, c.fetchCalls)
	return res
}

func (c *Client) RequestCalls() []lightning.MilliSatoshi {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]lightning.MilliSatoshi, len(c.requestCalls))
	copy(res, c.requestCalls)
	return res
}
