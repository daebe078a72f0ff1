package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
)

// LegalHandler serves the markdown legal documents shipped alongside
// the binary.
type LegalHandler struct {
	docsDir string
}

func NewLegalHandler() *LegalHandler {
	return &LegalHandler{docsDir: envutil.String("LEGAL_DOCS_DIR", "static/legal")}
}

func (h *LegalHandler) PrivacyPolicy(c *gin.Context) {
	h.serve(c, "privacy-policy.md", "Privacy Policy")
}

func (h *LegalHandler) TermsOfService(c *gin.Context) {
	h.serve(c, "terms-of-service.md", "Terms of Service")
}

func (h *LegalHandler) serve(c *gin.Context, filename, label string) {
	content, err := os.ReadFile(filepath.Join(h.docsDir, filename))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "document_not_found", fmt.Errorf("%s not found", label))
		return
	}
	response.RespondOK(c, gin.H{"content": string(content)})
}
