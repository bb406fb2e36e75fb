package lightning

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/moogmodular/asksats-sub000/internal/money"
)

// RestClient talks to an LND node over its REST gateway. Authentication is a
// hex macaroon sent on every request.
type RestClient struct {
	baseURL  string
	macaroon string
	http     *http.Client
}

// NewRestClient creates a client for the given LND REST endpoint.
func NewRestClient(baseURL, macaroonHex string) *RestClient {
	return &RestClient{
		baseURL:  baseURL,
		macaroon: macaroonHex,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *RestClient) CreateInvoice(ctx context.Context, amount money.Msat, memo string, expiry time.Duration) (*Invoice, error) {
	body := map[string]interface{}{
		"value_msat": strconv.FormatInt(int64(amount), 10),
		"memo":       memo,
		"expiry":     strconv.FormatInt(int64(expiry.Seconds()), 10),
	}

	var out struct {
		RHash          string `json:"r_hash"`
		PaymentRequest string `json:"payment_request"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/invoices", body, &out); err != nil {
		return nil, fmt.Errorf("error creating invoice: %w", err)
	}

	hash, err := rHashToHex(out.RHash)
	if err != nil {
		return nil, err
	}

	return &Invoice{
		ID:         hash,
		Hash:       hash,
		PayRequest: out.PaymentRequest,
	}, nil
}

func (c *RestClient) DecodePayRequest(ctx context.Context, payRequest string) (*Decoded, error) {
	var out struct {
		NumMsat     string `json:"num_msat"`
		PaymentHash string `json:"payment_hash"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/payreq/"+url.PathEscape(payRequest), nil, &out); err != nil {
		return nil, fmt.Errorf("error decoding payment request: %w", err)
	}

	amount, err := strconv.ParseInt(out.NumMsat, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing decoded amount: %w", err)
	}

	return &Decoded{
		AmountMsat: money.Msat(amount),
		Hash:       out.PaymentHash,
	}, nil
}

// SubscribeInvoice streams invoice state over the REST gateway's chunked
// line-delimited JSON endpoint until a terminal state arrives.
func (c *RestClient) SubscribeInvoice(ctx context.Context, hash string) (<-chan InvoiceUpdate, error) {
	raw, err := hex.DecodeString(hash)
	if err != nil {
		return nil, fmt.Errorf("error decoding invoice hash: %w", err)
	}
	path := "/v2/invoices/subscribe/" + base64.URLEncoding.EncodeToString(raw)

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error subscribing to invoice: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("invoice subscription failed with status %d", resp.StatusCode)
	}

	updates := make(chan InvoiceUpdate, 1)
	go func() {
		defer close(updates)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var line struct {
				Result struct {
					State       string `json:"state"`
					AmtPaidMsat string `json:"amt_paid_msat"`
				} `json:"result"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				continue
			}

			switch line.Result.State {
			case "SETTLED":
				paid, _ := strconv.ParseInt(line.Result.AmtPaidMsat, 10, 64)
				updates <- InvoiceUpdate{State: InvoiceConfirmed, AmountMsat: money.Msat(paid)}
				return
			case "CANCELED":
				updates <- InvoiceUpdate{State: InvoiceCanceled}
				return
			}
		}
	}()

	return updates, nil
}

// Pay sends the payment through the router subsystem and reports the terminal
// outcome on the returned stream.
func (c *RestClient) Pay(ctx context.Context, payRequest string, maxFee money.Msat) (<-chan PayUpdate, error) {
	body := map[string]interface{}{
		"payment_request": payRequest,
		"fee_limit_msat":  strconv.FormatInt(int64(maxFee), 10),
		"timeout_seconds": 60,
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v2/router/send", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending payment: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("payment failed with status %d", resp.StatusCode)
	}

	updates := make(chan PayUpdate, 1)
	go func() {
		defer close(updates)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			var line struct {
				Result struct {
					Status      string `json:"status"`
					ValueMsat   string `json:"value_msat"`
					FeeMsat     string `json:"fee_msat"`
					FailureCode string `json:"failure_reason"`
				} `json:"result"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				continue
			}

			switch line.Result.Status {
			case "SUCCEEDED":
				value, _ := strconv.ParseInt(line.Result.ValueMsat, 10, 64)
				fee, _ := strconv.ParseInt(line.Result.FeeMsat, 10, 64)
				updates <- PayUpdate{
					State:      PayConfirmed,
					AmountMsat: money.Msat(value),
					FeeMsat:    money.Msat(fee),
				}
				return
			case "FAILED":
				updates <- PayUpdate{
					State: PayFailed,
					Err:   fmt.Errorf("payment failed: %s", line.Result.FailureCode),
				}
				return
			}
		}
	}()

	return updates, nil
}

func (c *RestClient) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Grpc-Metadata-macaroon", c.macaroon)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *RestClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// rHashToHex normalizes LND's base64 r_hash to the hex form used everywhere
// else in this codebase.
func rHashToHex(rHash string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(rHash)
	if err != nil {
		// Some gateways already return hex.
		if _, hexErr := hex.DecodeString(rHash); hexErr == nil {
			return rHash, nil
		}
		return "", fmt.Errorf("error decoding r_hash: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
