// Package printer turns selected coloring pages into a standalone printable
// document and hands it to the host environment's print flow. The state
// machine never consumes a result from printing; failures surface only as a
// user notice.
package printer

import (
	"fmt"
	"html/template"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// documentTemplate lays out one image per page, scaled to fit, with no
// borders or shadows. The images are embedded-data locators, so the file is
// self-contained and works offline.
const documentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Coloring Pages</title>
<style>
  @page { margin: 0; }
  html, body { margin: 0; padding: 0; }
  .page {
    width: 100vw;
    height: 100vh;
    display: flex;
    align-items: center;
    justify-content: center;
    page-break-after: always;
  }
  .page img {
    max-width: 100%;
    max-height: 100%;
    border: none;
    box-shadow: none;
  }
</style>
</head>
<body onload="window.print()">
{{- range .}}
<div class="page"><img src="{{.}}" alt="coloring page"></div>
{{- end}}
</body>
</html>
`

var pageTemplate = template.Must(template.New("pages").Parse(documentTemplate))

// BuildDocument renders the printable document for the given page locators,
// one page per locator, in the order given.
func BuildDocument(locators []string) (string, error) {
	if len(locators) == 0 {
		return "", fmt.Errorf("no pages to print")
	}

	// Locators are data URIs produced by our own client; mark them trusted
	// so the template engine does not strip the data: scheme.
	urls := make([]template.URL, len(locators))
	for i, loc := range locators {
		urls[i] = template.URL(loc)
	}

	var sb strings.Builder
	if err := pageTemplate.Execute(&sb, urls); err != nil {
		return "", fmt.Errorf("failed to render print document: %w", err)
	}
	return sb.String(), nil
}

// Print writes the document to a temporary file and opens it with the host
// opener, which triggers the print dialog via the document's onload hook.
// An error means the print surface could not be opened; print completion or
// cancellation is entirely the host's business.
func Print(locators []string) error {
	doc, err := BuildDocument(locators)
	if err != nil {
		return err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("doodlepress-print-%d.html", time.Now().UnixNano()))
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write print document: %w", err)
	}

	if err := openDocument(path); err != nil {
		return fmt.Errorf("could not open the print view: %w", err)
	}
	return nil
}

// openDocument opens a file with the platform's default handler.
func openDocument(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
