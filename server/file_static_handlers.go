package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"
)

//go:embed static
var staticFiles embed.FS

// StaticFilesFS is the app shell and its assets, rooted at static/.
func StaticFilesFS() fs.FS {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses an HTML template from the embedded static files.
func ParseTemplate(name string) (*template.Template, error) {
	return template.ParseFS(StaticFilesFS(), name)
}

// StreamFile writes an embedded asset. Conditional and range requests are
// handled by http.ServeContent.
func StreamFile(w http.ResponseWriter, r *http.Request, fileName string) error {
	data, err := fs.ReadFile(StaticFilesFS(), fileName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	w.Header().Set("Content-Type", assetContentType(fileName, data))
	http.ServeContent(w, r, path.Base(fileName), time.Time{}, bytes.NewReader(data))
	return nil
}

func assetContentType(fileName string, data []byte) string {
	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(fileName)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	return ctype
}
