package http

import (
	"encoding/json"
	"net/http"

	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
	"github.com/Tharunkunamalla/realtime-editor/internal/execution"
	"github.com/Tharunkunamalla/realtime-editor/pkg/httputil"
)

type Handler struct {
	exec *execution.Gateway
}

func NewHandler(exec *execution.Gateway) *Handler {
	return &Handler{exec: exec}
}

type executeRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"sourceCode"`
}

// Execute runs code through the gateway's fallback chain.
// POST /execute {language, sourceCode} -> {stdout, stderr} | {error:{message}}
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !domain.LanguageSupported(req.Language) {
		httputil.Error(w, http.StatusBadRequest, "unsupported language")
		return
	}

	res, err := h.exec.Execute(r.Context(), execution.Request{
		Language: req.Language,
		Source:   req.SourceCode,
	})
	if err != nil {
		// per-backend failures are already logged by the gateway
		httputil.Error(w, http.StatusBadGateway, execution.UserMessage)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// Languages lists the supported language set for the embedding UI.
func (h *Handler) Languages(w http.ResponseWriter, _ *http.Request) {
	httputil.OK(w, domain.Languages)
}
