package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pcinfobro/numvault/internal/provider/cryptomus"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// MockService реализует интерфейс webhook.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) VerifyWebhook(rawBody []byte, sign string) bool {
	args := m.Called(rawBody, sign)
	return args.Bool(0)
}

func (m *MockService) HandleWebhook(ctx context.Context, rawBody []byte, payload cryptomus.WebhookPayload) error {
	args := m.Called(ctx, rawBody, payload)
	return args.Error(0)
}

func TestWebhookHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	paidBody := `{"uuid":"pay-1","order_id":"dep-1","amount":"50.00000000","currency":"USDT","network":"TRC20","status":"paid","is_final":true}`

	tests := []struct {
		name           string
		body           string
		sign           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное зачисление платежа",
			body: paidBody,
			sign: "abc123",
			setupMock: func(m *MockService) {
				m.On("VerifyWebhook", []byte(paidBody), "abc123").Return(true)
				m.On("HandleWebhook", mock.Anything, []byte(paidBody), mock.MatchedBy(func(p cryptomus.WebhookPayload) bool {
					return p.OrderID == "dep-1" && p.Status == "paid"
				})).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name: "неверная подпись в заголовке",
			body: paidBody,
			sign: "deadbeef",
			setupMock: func(m *MockService) {
				m.On("VerifyWebhook", []byte(paidBody), "deadbeef").Return(false)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid signature`,
		},
		{
			name: "запрос без заголовка подписи",
			body: paidBody,
			sign: "",
			setupMock: func(m *MockService) {
				m.On("VerifyWebhook", []byte(paidBody), "").Return(false)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid signature`,
		},
		{
			name:           "некорректное тело запроса",
			body:           `not json`,
			sign:           "abc123",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `failed to decode request`,
		},
		{
			name: "депозит не найден",
			body: paidBody,
			sign: "abc123",
			setupMock: func(m *MockService) {
				m.On("VerifyWebhook", []byte(paidBody), "abc123").Return(true)
				m.On("HandleWebhook", mock.Anything, []byte(paidBody), mock.Anything).
					Return(repository.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `deposit not found`,
		},
		{
			name: "повторная доставка уже зачисленного платежа",
			body: paidBody,
			sign: "abc123",
			setupMock: func(m *MockService) {
				m.On("VerifyWebhook", []byte(paidBody), "abc123").Return(true)
				m.On("HandleWebhook", mock.Anything, []byte(paidBody), mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(tt.body))
			if tt.sign != "" {
				req.Header.Set("sign", tt.sign)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

// Подпись шлюза считается по сырым байтам тела из заголовка sign, без
// перестроения JSON на стороне получателя.
func TestWebhookHandler_GatewaySignature(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Порядок ключей принадлежит шлюзу и не алфавитный.
	rawBody := `{"order_id":"dep-1","status":"paid","amount":"50.00"}`
	apiKey := "secret"
	sign := cryptomus.Sign([]byte(rawBody), apiKey)

	client := cryptomus.NewClient("merchant-1", apiKey, "https://api.cryptomus.com")
	mockService := new(MockService)
	mockService.On("VerifyWebhook", []byte(rawBody), sign).
		Return(client.VerifyWebhook([]byte(rawBody), sign))
	mockService.On("HandleWebhook", mock.Anything, []byte(rawBody), mock.Anything).Return(nil)

	handler := New(logger, mockService)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(rawBody))
	req.Header.Set("sign", sign)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"OK"`)
	mockService.AssertExpectations(t)
}
