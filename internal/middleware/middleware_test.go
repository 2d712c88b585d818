package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mliu/whisper/internal/auth"
)

func init() {
	auth.SetSecret("test-secret")
}

func TestAuthMiddleware(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r)
		if !ok {
			t.Error("Expected userID in context")
		}
		if userID != 123 {
			t.Errorf("Expected userID 123, got %v", userID)
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		cookieValue    string
		expectedStatus int
	}{
		{
			name:           "Valid Cookie",
			cookieValue:    auth.SignCookie("123"),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid Signature",
			cookieValue:    "123|invalid_signature",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Value",
			cookieValue:    "not_an_int|signature",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.AddCookie(&http.Cookie{Name: "user_id", Value: tt.cookieValue})
			rr := httptest.NewRecorder()

			AuthMiddleware(nextHandler).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					rr.Code, tt.expectedStatus)
			}
		})
	}

	t.Run("Missing Cookie", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()

		AuthMiddleware(nextHandler).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v",
				rr.Code, http.StatusUnauthorized)
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	LoggingMiddleware(nextHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v",
			rr.Code, http.StatusNotFound)
	}
}

// MockHijacker implements http.Hijacker for testing
type MockHijacker struct {
	httptest.ResponseRecorder
}

func (m *MockHijacker) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, nil
}

func TestLoggingMiddleware_Hijack(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hijacker, ok := w.(http.Hijacker)
		if !ok {
			t.Error("ResponseWriter does not implement http.Hijacker")
			return
		}
		_, _, err := hijacker.Hijack()
		if err != nil {
			t.Errorf("Hijack failed: %v", err)
		}
	})

	req := httptest.NewRequest("GET", "/", nil)
	mockWriter := &MockHijacker{ResponseRecorder: *httptest.NewRecorder()}

	LoggingMiddleware(nextHandler).ServeHTTP(mockWriter, req)
}
