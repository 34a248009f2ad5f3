package handlers

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

//go:embed openapi/openapi.yaml
var openAPISpec []byte

// OpenAPIHandler handles OpenAPI specification requests
type OpenAPIHandler struct {
	spec []byte
}

// NewOpenAPIHandler creates a handler serving the embedded API description
func NewOpenAPIHandler() *OpenAPIHandler {
	return &OpenAPIHandler{spec: openAPISpec}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(h.spec); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
		return
	}
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	// Parse YAML into a map
	var yamlData map[string]any
	if err := yaml.Unmarshal(h.spec, &yamlData); err != nil {
		http.Error(w, "Failed to parse OpenAPI specification", http.StatusInternalServerError)
		return
	}

	// Convert to JSON
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(yamlData); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
		return
	}
}
