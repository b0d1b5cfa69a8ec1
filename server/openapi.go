package server

import (
	_ "embed"
	"net/http"
)

const openAPIPath = "/openapi.yaml"

// openAPIDocument describes the /v1 routes
//
//go:embed openapi.yaml
var openAPIDocument []byte

// docsPage renders the OpenAPI document through Redoc
const docsPage = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>fxcompare quote comparison API</title>
  </head>
  <body>
    <redoc spec-url="` + openAPIPath + `"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  </body>
</html>`

// OpenAPI serves the embedded OpenAPI document
func (s *Server) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write(openAPIDocument) //nolint:errcheck // Fine to ignore
}

// Docs serves the API reference page
func (s *Server) Docs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte(docsPage)) //nolint:errcheck // Fine to ignore
}
