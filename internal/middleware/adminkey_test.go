package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestAdminKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		hash string
		key  string
		want int
	}{
		{"disabled", "", "s3cret", http.StatusNotFound},
		{"missing key", string(hash), "", http.StatusUnauthorized},
		{"wrong key", string(hash), "nope", http.StatusForbidden},
		{"valid key", string(hash), "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AdminKey(tt.hash)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/history", http.NoBody)
			if tt.key != "" {
				req.Header.Set("X-Admin-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
