// Package rates реализует клиент курсов криптовалют на основе
// публичного тикера Binance. Стейблкоины конвертируются 1:1.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт новый клиент курсов.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// USDToCrypto конвертирует сумму в USD в количество криптовалюты.
// USDT и USDC считаются равными доллару, остальные валюты
// пересчитываются по текущему курсу {currency}USDT.
func (c *Client) USDToCrypto(ctx context.Context, amountUSD float64, currency string) (float64, error) {
	const op = "rates.USDToCrypto"

	if currency == "USDT" || currency == "USDC" {
		return amountUSD, nil
	}

	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%sUSDT", c.baseURL, currency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var ticker tickerResponse
	if err = json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%s: invalid price %q for %s", op, ticker.Price, currency)
	}
	return amountUSD / price, nil
}
