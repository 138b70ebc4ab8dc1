package tellabot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ProviderError ошибка, возвращённая провайдером в поле message.
// Текст передаётся пользователю без изменений.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsUnableToReject сообщает, что провайдер не смог отменить заказ
// на своей стороне. В этом случае заказ отклоняется локально.
func IsUnableToReject(err error) bool {
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		return false
	}
	return strings.Contains(provErr.Message, "Unable to reject")
}

type Client struct {
	endpoint   string
	user       string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Tellabot.
func NewClient(endpoint, user, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		user:       user,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// call выполняет GET-запрос с командой cmd и разбирает конверт ответа.
func (c *Client) call(ctx context.Context, cmd string, params url.Values) (json.RawMessage, error) {
	const op = "tellabot.call"

	q := url.Values{}
	q.Set("user", c.user)
	q.Set("api_key", c.apiKey)
	q.Set("cmd", cmd)
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var env envelope
	if err = json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if env.Status != "ok" {
		var message string
		if err = json.Unmarshal(env.Message, &message); err != nil {
			message = string(env.Message)
		}
		if strings.EqualFold(message, "No messages") {
			return nil, ErrNoMessages
		}
		return nil, &ProviderError{Message: message}
	}
	return env.Message, nil
}

// firstOf разбирает message как массив и возвращает первый элемент;
// провайдер оборачивает в массив даже одиночные объекты.
func firstOf[T any](raw json.RawMessage) (*T, error) {
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return &list[0], nil
	}
	var single T
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return &single, nil
}

// ListServices возвращает каталог сервисов провайдера.
func (c *Client) ListServices(ctx context.Context) ([]ServiceInfo, error) {
	const op = "tellabot.ListServices"

	raw, err := c.call(ctx, "list_services", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var services []ServiceInfo
	if err = json.Unmarshal(raw, &services); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return services, nil
}

// RequestNumber запрашивает одноразовый номер для сервиса.
func (c *Client) RequestNumber(ctx context.Context, service, state string) (*RequestResult, error) {
	const op = "tellabot.RequestNumber"

	params := url.Values{}
	params.Set("service", service)
	if state != "" && state != "random" {
		params.Set("state", state)
	}
	raw, err := c.call(ctx, "request", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := firstOf[RequestResult](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ReadSMS возвращает входящие сообщения номера mdn для сервиса.
// При отсутствии сообщений возвращает ErrNoMessages.
func (c *Client) ReadSMS(ctx context.Context, service, mdn string) ([]SMSMessage, error) {
	const op = "tellabot.ReadSMS"

	params := url.Values{}
	params.Set("service", service)
	params.Set("mdn", mdn)
	raw, err := c.call(ctx, "read_sms", params)
	if err != nil {
		if err == ErrNoMessages {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var messages []SMSMessage
	if err = json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return messages, nil
}

// RequestStatus возвращает статус заказа у провайдера.
func (c *Client) RequestStatus(ctx context.Context, id string) (*StatusResult, error) {
	const op = "tellabot.RequestStatus"

	params := url.Values{}
	params.Set("id", id)
	raw, err := c.call(ctx, "request_status", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := firstOf[StatusResult](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// Reject отменяет заказ у провайдера.
func (c *Client) Reject(ctx context.Context, id string) error {
	const op = "tellabot.Reject"

	params := url.Values{}
	params.Set("id", id)
	if _, err := c.call(ctx, "reject", params); err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RentNumber арендует долгосрочный номер. Ненулевой mdn запрашивает
// продление аренды того же номера.
func (c *Client) RentNumber(ctx context.Context, service, state string, days int, mdn string) (*RentResult, error) {
	const op = "tellabot.RentNumber"

	params := url.Values{}
	params.Set("service", service)
	params.Set("duration", strconv.Itoa(days))
	params.Set("autorenew", "0")
	if state != "" && state != "random" {
		params.Set("state", state)
	}
	if mdn != "" {
		params.Set("mdn", mdn)
	}
	raw, err := c.call(ctx, "ltr_rent", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := firstOf[RentResult](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ReleaseRental освобождает арендованный номер.
func (c *Client) ReleaseRental(ctx context.Context, id, mdn, service string) error {
	const op = "tellabot.ReleaseRental"

	params := url.Values{}
	params.Set("id", id)
	params.Set("mdn", mdn)
	params.Set("service", service)
	if _, err := c.call(ctx, "ltr_release", params); err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RentalStatus возвращает состояние аренды номера.
func (c *Client) RentalStatus(ctx context.Context, mdn string) (*LTRStatusResult, error) {
	const op = "tellabot.RentalStatus"

	params := url.Values{}
	params.Set("mdn", mdn)
	raw, err := c.call(ctx, "ltr_status", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result, err := firstOf[LTRStatusResult](raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ActivateRental активирует арендованный номер для сервиса.
func (c *Client) ActivateRental(ctx context.Context, mdn, service string) error {
	const op = "tellabot.ActivateRental"

	params := url.Values{}
	params.Set("mdn", mdn)
	params.Set("service", service)
	if _, err := c.call(ctx, "ltr_activate", params); err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
