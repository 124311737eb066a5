package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	handler "github.com/Nazarious-ucu/weather-screen/internal/handlers/http"
	"github.com/Nazarious-ucu/weather-screen/internal/models"
	"github.com/Nazarious-ucu/weather-screen/internal/view"
)

type mockScreen struct {
	mock.Mock
}

func (m *mockScreen) State() view.State {
	return m.Called().Get(0).(view.State)
}

func (m *mockScreen) SetCity(ctx context.Context, city string) error {
	return m.Called(ctx, city).Error(0)
}

func (m *mockScreen) Refresh(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newRouter(h *handler.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/weather", h.GetWeather)
	r.PUT("/weather/city", h.SetCity)
	r.POST("/weather/refresh", h.Refresh)
	return r
}

func serve(t *testing.T, r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, target, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetWeather_Success(t *testing.T) {
	m := &mockScreen{}
	m.On("State").Return(view.State{
		City: "nasik",
		Phase: view.Success{Result: models.WeatherResult{
			TemperatureC: 28.5, Condition: "Sunny", Location: "Nashik", Country: "India",
		}},
	}).Once()

	rec := serve(t, newRouter(handler.NewHandler(m)), http.MethodGet, "/weather", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"status":"success"`)
	assert.Contains(t, body, `"Weather in Nashik , India :"`)
	assert.Contains(t, body, `"is 28.5°C"`)
	assert.Contains(t, body, `"Condition is Sunny"`)
	assert.NotContains(t, body, `"error"`)
	m.AssertExpectations(t)
}

func TestGetWeather_Failure(t *testing.T) {
	m := &mockScreen{}
	m.On("State").Return(view.State{
		City:  "nasik",
		Phase: view.Failure{Message: "Error : no such host"},
	}).Once()

	rec := serve(t, newRouter(handler.NewHandler(m)), http.MethodGet, "/weather", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Error : no such host"`)
	assert.NotContains(t, rec.Body.String(), `"weather"`)
}

func TestSetCity_Accepted(t *testing.T) {
	m := &mockScreen{}
	m.On("SetCity", mock.Anything, "Lviv").Return(nil).Once()

	rec := serve(t, newRouter(handler.NewHandler(m)), http.MethodPut, "/weather/city", `{"city":"Lviv"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"city":"Lviv"}`, rec.Body.String())
	m.AssertExpectations(t)
}

func TestSetCity_NoCity(t *testing.T) {
	m := &mockScreen{}

	rec := serve(t, newRouter(handler.NewHandler(m)), http.MethodPut, "/weather/city", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"city is required"}`, rec.Body.String())
	m.AssertNotCalled(t, "SetCity", mock.Anything, mock.Anything)
}

func TestSetCity_BlankCity(t *testing.T) {
	m := &mockScreen{}
	m.On("SetCity", mock.Anything, "  ").Return(view.ErrEmptyCity).Once()

	rec := serve(t, newRouter(handler.NewHandler(m)), http.MethodPut, "/weather/city", `{"city":"  "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"stopped", view.ErrScreenStopped, http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockScreen{}
			m.On("Refresh", mock.Anything).Return(tt.err).Once()

			rec := serve(t, newRouter(handler.NewHandler(m)), http.MethodPost, "/weather/refresh", "")

			assert.Equal(t, tt.code, rec.Code)
			m.AssertExpectations(t)
		})
	}
}
