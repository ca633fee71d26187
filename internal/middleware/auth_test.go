package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tour-booking/internal/middleware"
)

type fakeVerifier struct {
	valid string
}

func (f fakeVerifier) Verify(token string) (string, error) {
	if token != f.valid {
		return "", errors.New("bad token")
	}
	return "operator", nil
}

func TestRequireBearer(t *testing.T) {
	var gotSubject string
	h := middleware.RequireBearer(fakeVerifier{valid: "good"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotSubject, _ = middleware.Subject(r.Context())
			w.WriteHeader(http.StatusOK)
		}),
	)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
		{"invalid token", "Bearer forged", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotSubject = ""
			req := httptest.NewRequest(http.MethodGet, "/api/admin/reservations", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "operator", gotSubject)
			} else {
				assert.Contains(t, rec.Body.String(), `"unauthorized"`)
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
