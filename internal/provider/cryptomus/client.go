package cryptomus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	merchantID string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Cryptomus.
func NewClient(merchantID, apiKey, baseURL string) *Client {
	return &Client{
		merchantID: merchantID,
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreatePayment создаёт платёж и возвращает ссылку на оплату.
func (c *Client) CreatePayment(ctx context.Context, reqParams CreatePaymentRequest) (*PaymentResult, error) {
	const op = "cryptomus.CreatePayment"

	body, err := json.Marshal(reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", c.merchantID)
	req.Header.Set("sign", Sign(body, c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var paymentResp createPaymentResponse
	if err = json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK || paymentResp.Result == nil {
		if paymentResp.Message != "" {
			return nil, fmt.Errorf("%s: %s", op, paymentResp.Message)
		}
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	return paymentResp.Result, nil
}

// VerifyWebhook проверяет подпись вебхука по сырому телу запроса,
// байт в байт как оно пришло от шлюза.
func (c *Client) VerifyWebhook(rawBody []byte, sign string) bool {
	return VerifySign(rawBody, c.apiKey, sign)
}
