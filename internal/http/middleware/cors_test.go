package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		preflight   bool
		wantOrigin  string
		wantCode    int
		wantHandled bool
	}{
		{"listed origin", []string{"https://agenda.example/"}, "https://agenda.example", false, "https://agenda.example", http.StatusOK, true},
		{"unknown origin still served", []string{"https://agenda.example"}, "https://evil.example", false, "", http.StatusOK, true},
		{"wildcard", []string{" * "}, "https://random.example", false, "https://random.example", http.StatusOK, true},
		{"subdomain wildcard", []string{"https://*.salon.example"}, "https://painel.salon.example", false, "https://painel.salon.example", http.StatusOK, true},
		{"subdomain wildcard wrong scheme", []string{"https://*.salon.example"}, "http://painel.salon.example", false, "", http.StatusOK, true},
		{"subdomain wildcard bare domain", []string{"https://*.salon.example"}, "https://.salon.example", false, "", http.StatusOK, true},
		{"no origin", []string{"*"}, "", false, "", http.StatusOK, true},
		{"preflight", []string{"https://agenda.example"}, "https://agenda.example", true, "https://agenda.example", http.StatusNoContent, false},
		{"preflight from unknown origin", []string{"https://agenda.example"}, "https://evil.example", true, "", http.StatusForbidden, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handled = true
				w.WriteHeader(http.StatusOK)
			})

			method := http.MethodGet
			req := httptest.NewRequest(method, "/api/v1/slots", nil)
			if tt.preflight {
				req = httptest.NewRequest(http.MethodOptions, "/api/v1/slots", nil)
				req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantHandled, handled)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			if tt.preflight && tt.wantOrigin != "" {
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
				assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}
