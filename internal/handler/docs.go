package handler

import (
	"html"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DocsHandler serves the OpenAPI document and a Swagger UI page for it.
type DocsHandler struct {
	OpenAPIPath string
	Title       string
}

func (h DocsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/openapi.yaml", h.serveOpenAPI)
	r.Get("/docs", h.serveUI)
}

func (h DocsHandler) serveOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	http.ServeFile(w, r, h.OpenAPIPath)
}

func (h DocsHandler) serveUI(w http.ResponseWriter, r *http.Request) {
	title := h.Title
	if title == "" {
		title = "Barber POS"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <title>` + html.EscapeString(title) + ` API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({ url: 'openapi.yaml', dom_id: '#swagger-ui' });
      };
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
