package memory

import (
	"context"
	"sync"

	"github.com/code-payments/code-payout-server/pkg/lightning"
)

// PayCall records a single invocation of Client.Pay
type PayCall struct {
	PaymentRequest string
	Amount         lightning.MilliSatoshi
}

// Client is a scriptable lightning.Client for tests and local development
type Client struct {
	mu sync.Mutex

	payResponse *lightning.PayResponse
	payErr      error
	blockPay    bool

	payments        map[string]*lightning.Payment
	getPaymentErr   error
	blockGetPayment bool

	payCalls        []PayCall
	getPaymentCalls []string
}

func NewClient() *Client {
	return &Client{
		payResponse: &lightning.PayResponse{Result: lightning.PayResultOk},
		payments:    make(map[string]*lightning.Payment),
	}
}

// SetPayResponse configures what Pay returns
func (c *Client) SetPayResponse(resp *lightning.PayResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.payResponse = resp
	c.payErr = err
}

// BlockPay makes Pay wait until its context is done
func (c *Client) BlockPay(block bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blockPay = block
}

// SetPayment configures the payment GetPayment returns for a hash. A nil
// payment removes any existing record.
func (c *Client) SetPayment(paymentHash string, payment *lightning.Payment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if payment == nil {
		delete(c.payments, paymentHash)
		return
	}
	c.payments[paymentHash] = clonePayment(payment)
}

// SetGetPaymentError configures an error GetPayment returns for every hash
func (c *Client) SetGetPaymentError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.getPaymentErr = err
}

// BlockGetPayment makes GetPayment wait until its context is done
func (c *Client) BlockGetPayment(block bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.blockGetPayment = block
}

// Pay implements lightning.Client.Pay
func (c *Client) Pay(ctx context.Context, paymentRequest string, amount lightning.MilliSatoshi) (*lightning.PayResponse, error) {
	c.mu.Lock()
	c.payCalls = append(c.payCalls, PayCall{
		PaymentRequest: paymentRequest,
		Amount:         amount,
	})
	block := c.blockPay
	resp, err := c.payResponse, c.payErr
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	cloned := *resp
	return &cloned, nil
}

// GetPayment implements lightning.Client.GetPayment
func (c *Client) GetPayment(ctx context.Context, paymentHash string) (*lightning.Payment, error) {
	c.mu.Lock()
	c.getPaymentCalls = append(c.getPaymentCalls, paymentHash)
	block := c.blockGetPayment
	err := c.getPaymentErr
	payment, ok := c.payments[paymentHash]
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return clonePayment(payment), nil
}

// PayCalls returns every recorded Pay invocation
func (c *Client) PayCalls() []PayCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]PayCall, len(c.payCalls))
	copy(res, c.payCalls)
	return res
}

// GetPaymentCalls returns the hashes of every recorded GetPayment invocation
func (c *Client) GetPaymentCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make([]string, len(c.getPaymentCalls))
	copy(res, c.getPaymentCalls)
	return res
}

func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.payResponse = &lightning.PayResponse{Result: lightning.PayResultOk}
	c.payErr = nil
	c.blockPay = false
	c.payments = make(map[string]*lightning.Payment)
	c.getPaymentErr = nil
	c.blockGetPayment = false
	c.payCalls = nil
	c.getPaymentCalls = nil
}

func clonePayment(payment *lightning.Payment) *lightning.Payment {
	cloned := &lightning.Payment{
		Status: payment.Status,
	}
	if payment.Preimage != nil {
		preimage := *payment.Preimage
		cloned.Preimage = &preimage
	}
	if payment.AmountSent != nil {
		amount := *payment.AmountSent
		cloned.AmountSent = &amount
	}
	return cloned
}
