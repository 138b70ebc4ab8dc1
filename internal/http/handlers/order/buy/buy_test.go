package buy

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

	"github.com/pcinfobro/numvault/internal/http/middlewarectx"
	"github.com/pcinfobro/numvault/internal/models"
	"github.com/pcinfobro/numvault/internal/provider/tellabot"
	"github.com/pcinfobro/numvault/internal/services/order"
	"github.com/pcinfobro/numvault/internal/storage/repository"
)

// MockService реализует интерфейс buy.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Buy(ctx context.Context, userUID string, req models.DummyBuyOrder) (*models.Order, error) {
	args := m.Called(ctx, userUID, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestBuyHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешная покупка номера",
			body:    `{"service":"telegram"}`,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Buy", mock.Anything, "uid-1", mock.Anything).Return(&models.Order{
					ID:      "order-1",
					Service: "telegram",
					Status:  models.OrderStatusPending,
					Number:  "15550001111",
					Amount:  0.5,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "нет сервиса в запросе",
			body:           `{}`,
			userUID:        "uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Service is a required field`,
		},
		{
			name:           "нет пользователя в контексте",
			body:           `{"service":"telegram"}`,
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"status":"Error"`,
		},
		{
			name:    "недостаточно средств",
			body:    `{"service":"telegram"}`,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Buy", mock.Anything, "uid-1", mock.Anything).
					Return(nil, repository.ErrInsufficientFunds)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `insufficient funds`,
		},
		{
			name:    "неизвестный сервис",
			body:    `{"service":"nosuch"}`,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Buy", mock.Anything, "uid-1", mock.Anything).
					Return(nil, order.ErrUnknownService)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `unknown service`,
		},
		{
			name:    "текст ошибки провайдера передается пользователю",
			body:    `{"service":"telegram"}`,
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Buy", mock.Anything, "uid-1", mock.Anything).
					Return(nil, &tellabot.ProviderError{Message: "Service temporarily out of stock"})
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Service temporarily out of stock`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body))
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
