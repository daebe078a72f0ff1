package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestLegalDocuments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	policy := "# Privacy Policy\n\nWe keep your parts to ourselves."
	if err := os.WriteFile(filepath.Join(dir, "privacy-policy.md"), []byte(policy), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	t.Setenv("LEGAL_DOCS_DIR", dir)

	h := NewLegalHandler()
	router := gin.New()
	router.GET("/api/legal/privacy-policy", h.PrivacyPolicy)
	router.GET("/api/legal/terms-of-service", h.TermsOfService)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/legal/privacy-policy", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Privacy Policy") {
		t.Errorf("expected document content, got %s", rec.Body.String())
	}

	// terms-of-service.md was never written.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/legal/terms-of-service", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a missing document, got %d", rec.Code)
	}
}
