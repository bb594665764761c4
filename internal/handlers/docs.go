package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>CA Compliance API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/api/v1/openapi.json",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis],
      layout: "BaseLayout"
    });
  </script>
</body>
</html>
`

// DocsHandler serves the API reference page and the OpenAPI document
type DocsHandler struct {
	specPath string
	logger   *zap.Logger

	once     sync.Once
	yamlSpec []byte
	jsonSpec []byte
	loadErr  error
}

// NewDocsHandler creates a docs handler reading the OpenAPI document
// from the given path
func NewDocsHandler(specPath string, logger *zap.Logger) *DocsHandler {
	return &DocsHandler{specPath: specPath, logger: logger}
}

// RegisterRoutes registers documentation routes on the given router
func (h *DocsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/docs", h.Page).Methods("GET")
	r.HandleFunc("/api/v1/openapi.yaml", h.YAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.JSON).Methods("GET")
}

// load reads the OpenAPI document once and prepares both representations
func (h *DocsHandler) load() {
	h.once.Do(func() {
		raw, err := os.ReadFile(h.specPath)
		if err != nil {
			h.loadErr = err
			return
		}
		h.yamlSpec = raw

		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			h.loadErr = err
			return
		}
		h.jsonSpec, h.loadErr = json.Marshal(doc)
	})
}

// Page serves the interactive API reference
func (h *DocsHandler) Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(swaggerPage))
}

// YAML serves the OpenAPI document as YAML
func (h *DocsHandler) YAML(w http.ResponseWriter, r *http.Request) {
	h.load()
	if h.loadErr != nil {
		h.logger.Error("openapi_load_failed", zap.Error(h.loadErr))
		respondJSONError(w, http.StatusInternalServerError, "Docs error", "API document is unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(h.yamlSpec)
}

// JSON serves the OpenAPI document converted to JSON
func (h *DocsHandler) JSON(w http.ResponseWriter, r *http.Request) {
	h.load()
	if h.loadErr != nil {
		h.logger.Error("openapi_load_failed", zap.Error(h.loadErr))
		respondJSONError(w, http.StatusInternalServerError, "Docs error", "API document is unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.jsonSpec)
}
