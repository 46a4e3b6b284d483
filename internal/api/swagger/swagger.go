// Package swagger serves the portal's OpenAPI document and a browser viewer.
package swagger

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

// Spec returns the embedded OpenAPI document.
func Spec() []byte { return openAPISpec }

var (
	specJSONOnce sync.Once
	specJSON     []byte
	specJSONErr  error
)

// SpecJSON returns the OpenAPI document converted to JSON.
func SpecJSON() ([]byte, error) {
	specJSONOnce.Do(func() {
		var doc map[string]any
		if err := yaml.Unmarshal(openAPISpec, &doc); err != nil {
			specJSONErr = fmt.Errorf("decode openapi.yaml: %w", err)
			return
		}
		specJSON, specJSONErr = json.Marshal(doc)
	})
	return specJSON, specJSONErr
}

// Handler serves the viewer at / and the document at openapi.yaml and
// openapi.json, relative to wherever it is mounted.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", serveViewer)
	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openAPISpec)
	})
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := SpecJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	})
	return mux
}

func serveViewer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, viewerPage, swaggerUIVersion, swaggerUIVersion, "openapi.yaml")
}

const swaggerUIVersion = "5.11.0"

const viewerPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Santa Cruz Water District API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@%[1]s/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@%[2]s/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: "%[3]s", dom_id: "#swagger-ui", docExpansion: "list"});
</script>
</body>
</html>
`
