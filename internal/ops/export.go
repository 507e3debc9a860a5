package ops

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/tabscribe/tabscribe/internal/card"
	"github.com/tabscribe/tabscribe/internal/config"
	"github.com/tabscribe/tabscribe/internal/errors"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/store"
)

// Export formats.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
	FormatText     = "text"
)

var formatExt = map[string]string{
	FormatMarkdown: ".md",
	FormatHTML:     ".html",
	FormatText:     ".txt",
}

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	ProjectID   string // optional, defaults to the current project
	AllProjects bool
	Format      string // md (default), html or text
	NoCitations bool   // md/html: drop the [n] markers and the Sources list
	ToFile      bool   // write to Path, or a default path under ~/.tabscribe/exports
	Path        string // optional; implies ToFile
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Format     string `json:"format"`
	Count      int    `json:"count"`
	Content    string `json:"content,omitempty"`
	Path       string `json:"path,omitempty"`
	ExportedAt int64  `json:"exported_at"`
}

// Export renders active cards, oldest first, as a document. When written to
// a file the content is not echoed back.
func Export(ctx context.Context, st *store.Store, set *settings.Settings, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" || format == "markdown" {
		format = FormatMarkdown
	}
	ext, ok := formatExt[format]
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown export format %q (use md, html or text)", input.Format))
	}

	var (
		cards []*card.Card
		name  = "all"
		err   error
	)
	if input.AllProjects {
		cards, err = st.GetAllCards(ctx)
		if err != nil {
			return nil, err
		}
		cards = slices.DeleteFunc(cards, func(c *card.Card) bool { return !c.Active() })
	} else {
		name, err = resolveProject(ctx, st, set, input.ProjectID)
		if err != nil {
			return nil, err
		}
		cards, err = st.GetCardsByProject(ctx, name, false)
		if err != nil {
			return nil, err
		}
	}
	slices.Reverse(cards)

	var content string
	switch format {
	case FormatMarkdown:
		content = RenderMarkdown(cards, !input.NoCitations)
	case FormatHTML:
		content, err = RenderHTML(cards, !input.NoCitations)
		if err != nil {
			return nil, err
		}
	case FormatText:
		content = RenderText(cards)
	}

	now := time.Now()
	out := &ExportOutput{Format: format, Count: len(cards), ExportedAt: now.Unix()}
	if !input.ToFile && input.Path == "" {
		out.Content = content
		return out, nil
	}

	path := input.Path
	if path == "" {
		path, err = defaultExportPath(name, ext, now)
		if err != nil {
			return nil, err
		}
	}
	if err := ValidatePath(path, ext, cfg); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return nil, err
	}
	out.Path = path
	return out, nil
}

// RenderMarkdown renders cards as a quoted Markdown document. With
// citations each quote is numbered and a Sources list closes the document.
func RenderMarkdown(cards []*card.Card, citations bool) string {
	var b strings.Builder
	b.WriteString("# TabScribe Export\n\n")
	for i, c := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		cite := ""
		if citations {
			cite = fmt.Sprintf("[%d]", i+1)
		}
		fmt.Fprintf(&b, "> %s\n\n— %s %s\n", c.Snippet, c.Title, cite)
	}
	if citations {
		b.WriteString("\n\n## Sources\n")
		for i, c := range cards {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "[%d] %s — %s", i+1, c.Title, c.URL)
		}
	}
	return b.String()
}

// RenderHTML renders the Markdown document to HTML.
func RenderHTML(cards []*card.Card, citations bool) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(RenderMarkdown(cards, citations)), &buf); err != nil {
		return "", errors.NewInternal(err)
	}
	return buf.String(), nil
}

// RenderText renders the plain clipboard form: each quote followed by its
// title and URL, separated by blank lines.
func RenderText(cards []*card.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = fmt.Sprintf("> %s\n— %s (%s)", c.Snippet, c.Title, c.URL)
	}
	return strings.Join(parts, "\n\n")
}

// defaultExportPath generates ~/.tabscribe/exports/<project>-<timestamp><ext>.
func defaultExportPath(project, ext string, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}
	filename := fmt.Sprintf("%s-%s%s", SanitizeForFilename(card.Normalize(project)), now.Format("2006-01-02T150405"), ext)
	return filepath.Join(dir, filename), nil
}

// writeFileAtomic writes to a temp file and renames it over path so an
// existing file survives a failed export.
func writeFileAtomic(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
