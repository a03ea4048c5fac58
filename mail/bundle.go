package mail

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/go-graph-mail/internal/utils"
)

// BundleFormat selects how several attachments are returned together.
type BundleFormat string

const (
	// FormatSummary is one text file with a truncated preview of each attachment.
	FormatSummary BundleFormat = "summary"
	// FormatZip is a zip archive holding every attachment.
	FormatZip BundleFormat = "zip"
)

// ParseBundleFormat maps a query value to a format. Empty selects the summary.
func ParseBundleFormat(value string) (BundleFormat, error) {
	switch BundleFormat(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatSummary:
		return FormatSummary, nil
	case FormatZip:
		return FormatZip, nil
	}
	return "", invalid("format", "must be summary or zip")
}

// linkNote stands in for the content of an attachment that only links to a file.
const linkNote = "link to a cloud file, content not included"

// Download is a file ready to stream back to the client. Note replaces the
// content preview in a summary.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
	Note        string
}

// Summarize concatenates a preview of each file into one plain text file.
// Text-like content is previewed as text, everything else as base64.
func Summarize(emailID string, files []Download, previewLength int) *Download {
	var b strings.Builder
	fmt.Fprintf(&b, "Attachments for message %s (%d files)\n\n", emailID, len(files))
	for i, f := range files {
		fmt.Fprintf(&b, "=== %d. %s ===\n", i+1, f.Name)
		fmt.Fprintf(&b, "Type: %s\n", f.ContentType)
		if f.Note != "" {
			fmt.Fprintf(&b, "Note: %s\n\n", f.Note)
			continue
		}
		fmt.Fprintf(&b, "Size: %d bytes\n", len(f.Data))
		b.WriteString("Content:\n")
		b.WriteString(utils.Truncate(textRepresentation(f), previewLength))
		b.WriteString("\n\n")
	}
	return &Download{
		Name:        "attachments-summary.txt",
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(b.String()),
	}
}

// Archive writes the files into a zip. Repeated names get a numeric suffix.
func Archive(files []Download, modified time.Time) (*Download, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := make(map[string]int, len(files))
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     uniqueName(f.Name, used),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return &Download{
		Name:        "attachments.zip",
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}

func uniqueName(name string, used map[string]int) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = "attachment"
	}
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + " (" + strconv.Itoa(n) + ")" + ext
}

func textRepresentation(f Download) string {
	if isTextual(f.ContentType) {
		return string(f.Data)
	}
	return base64.StdEncoding.EncodeToString(f.Data)
}

func isTextual(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") ||
		strings.HasPrefix(ct, "message/rfc822")
}
