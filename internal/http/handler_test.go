package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"factory-assistant/internal/auth"
	"factory-assistant/internal/http/middleware"
	"factory-assistant/internal/service"
)

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) Ask(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

func (m *mockAssistant) Health() service.Health {
	args := m.Called()
	return args.Get(0).(service.Health)
}

func newTestRouter(assistant Assistant, parser *auth.Parser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(assistant, zerolog.Nop())
	return NewRouter(handler, middleware.Auth(parser), "test", nil, zerolog.Nop())
}

func post(r http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chatbot", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  chatResponse `json:"data"`
	Error string       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestChat(t *testing.T) {
	assistant := &mockAssistant{}
	assistant.On("Ask", mock.Anything, "total production yesterday").Return("Total production: 450 units", nil)
	r := newTestRouter(assistant, auth.NewParser("secret"))

	w := post(r, `{"message":"total production yesterday","user_id":"u-7"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Total production: 450 units", body.Data.Response)
	assert.Equal(t, "u-7", body.Data.UserID)
	assert.NotEmpty(t, body.Data.RequestID)
	assert.Equal(t, body.Data.RequestID, w.Header().Get("X-Request-ID"))
	assistant.AssertExpectations(t)
}

func TestChatTokenPrincipal(t *testing.T) {
	parser := auth.NewParser("secret")
	token, err := parser.Sign(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "from-token"}})
	require.NoError(t, err)

	assistant := &mockAssistant{}
	assistant.On("Ask", mock.Anything, "hello").Return("hi", nil)
	r := newTestRouter(assistant, parser)

	w := post(r, `{"message":"hello","user_id":"spoofed"}`, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from-token", decode(t, w).Data.UserID)

	w = post(r, `{"message":"hello"}`, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChatErrors(t *testing.T) {
	assistant := &mockAssistant{}
	assistant.On("Ask", mock.Anything, "").Return("", service.ErrEmptyQuestion)
	r := newTestRouter(assistant, auth.NewParser("secret"))

	w := post(r, `{"message":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message is required", decode(t, w).Error)

	w = post(r, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		health service.Health
		code   int
		status string
	}{
		{"ok", service.Health{StoreAvailable: true, ClassifierReady: true}, http.StatusOK, "ok"},
		{"degraded", service.Health{StoreError: "connection refused", ClassifierReady: true}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := &mockAssistant{}
			assistant.On("Health").Return(tt.health)
			r := newTestRouter(assistant, auth.NewParser(""))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, w.Code)
			var body struct {
				Status string         `json:"status"`
				Checks service.Health `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, tt.health, body.Checks)
		})
	}
}
