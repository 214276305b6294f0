package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/pkg/models"
)

// ErrUnknownFormat is returned when no sink is registered for a format.
var ErrUnknownFormat = errors.New("unknown export format")

const generatedAtLayout = "2006-01-02 15:04:05"

// Document is what a sink receives: a title and the full narrative text.
// Paragraphs are separated by blank lines. Headings lists paragraphs that
// should be rendered as chapter headings where the format supports it.
type Document struct {
	Title       string
	Content     string
	Headings    []string
	GeneratedAt time.Time
}

// DocumentFromBiography builds an export document from a generated biography.
func DocumentFromBiography(bio *models.Biography) Document {
	headings := make([]string, 0, len(bio.Chapters))
	for _, ch := range bio.Chapters {
		headings = append(headings, ch.Title)
	}
	return Document{
		Title:       bio.Title,
		Content:     bio.Content,
		Headings:    headings,
		GeneratedAt: bio.GeneratedAt.Local(),
	}
}

// ExportSink produces one artifact for a document. target is sink specific:
// an output directory for file sinks, a recipient address for e-mail. The
// returned string locates the artifact.
type ExportSink interface {
	Format() string
	Export(ctx context.Context, doc Document, target string) (string, error)
}

// Exporter dispatches documents to the sink registered for a format and
// records the outcome in the event log.
type Exporter struct {
	sinks  map[string]ExportSink
	logger core.EventLogger
}

// NewExporter creates an Exporter over sinks. A later sink replaces an
// earlier one with the same format. logger may be nil.
func NewExporter(logger core.EventLogger, sinks ...ExportSink) *Exporter {
	e := &Exporter{sinks: make(map[string]ExportSink, len(sinks)), logger: logger}
	for _, s := range sinks {
		e.sinks[s.Format()] = s
	}
	return e
}

// Formats returns the registered formats in sorted order.
func (e *Exporter) Formats() []string {
	formats := make([]string, 0, len(e.sinks))
	for f := range e.sinks {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Export renders doc in format and hands it to the matching sink.
func (e *Exporter) Export(ctx context.Context, format string, doc Document, target string) (string, error) {
	sink, ok := e.sinks[format]
	if !ok {
		err := fmt.Errorf("exporting as %q: %w", format, ErrUnknownFormat)
		e.log("export.failed", map[string]any{"format": format, "error": err.Error()})
		return "", err
	}

	location, err := sink.Export(ctx, doc, target)
	if err != nil {
		e.log("export.failed", map[string]any{"format": format, "error": err.Error()})
		return "", fmt.Errorf("exporting as %s: %w", format, err)
	}

	e.log("export.completed", map[string]any{"format": format, "location": location, "title": doc.Title})
	return location, nil
}

func (e *Exporter) log(eventType string, data map[string]any) {
	if e.logger == nil {
		return
	}
	_ = e.logger.LogEvent(eventType, data)
}

// fileSink writes a rendered document into a directory.
type fileSink struct {
	format string
	ext    string
	dir    string
	render func(Document) ([]byte, error)
}

// NewFileSinks returns the text, word, markdown and html sinks writing into
// dir by default.
func NewFileSinks(dir string) []ExportSink {
	return []ExportSink{
		&fileSink{format: "text", ext: ".txt", dir: dir, render: textBytes(renderText)},
		&fileSink{format: "word", ext: ".doc.txt", dir: dir, render: textBytes(renderWord)},
		&fileSink{format: "markdown", ext: ".md", dir: dir, render: textBytes(renderMarkdown)},
		&fileSink{format: "html", ext: ".html", dir: dir, render: renderHTML},
	}
}

func textBytes(render func(Document) string) func(Document) ([]byte, error) {
	return func(doc Document) ([]byte, error) { return []byte(render(doc)), nil }
}

func (s *fileSink) Format() string { return s.format }

// Export writes to a temporary file and renames it into place, so a failed
// export never leaves a partial artifact behind.
func (s *fileSink) Export(ctx context.Context, doc Document, target string) (string, error) {
	dir := target
	if dir == "" {
		dir = s.dir
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := s.render(doc)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", s.format, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("writing export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("closing export: %w", err)
	}

	path := filepath.Join(dir, exportFileName(doc)+s.ext)
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("moving export into place: %w", err)
	}
	return path, nil
}

// exportFileName derives a file name from the title and generation time.
func exportFileName(doc Document) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\t', '\n':
			return '_'
		}
		return r
	}, strings.TrimSpace(doc.Title))
	if name == "" {
		name = "biography"
	}
	if !doc.GeneratedAt.IsZero() {
		name += "-" + doc.GeneratedAt.Format("20060102-150405")
	}
	return name
}

// paragraphs splits content on blank lines and drops empty paragraphs.
func paragraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isHeading(p string, headings []string) bool {
	if slices.Contains(headings, p) {
		return true
	}
	return strings.HasPrefix(p, "第") && strings.Contains(p, "章") && utf8.RuneCountInString(p) <= 20
}

func generatedLine(doc Document) string {
	return "生成时间: " + doc.GeneratedAt.Format(generatedAtLayout)
}

func renderText(doc Document) string {
	var b strings.Builder
	b.WriteString(doc.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(doc.Title)))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(paragraphs(doc.Content), "\n\n"))
	b.WriteString("\n\n")
	b.WriteString(generatedLine(doc))
	b.WriteString("\n")
	return b.String()
}

func renderWord(doc Document) string {
	ps := paragraphs(doc.Content)
	for i, p := range ps {
		ps[i] = "    " + p
	}
	var b strings.Builder
	b.WriteString(doc.Title)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(ps, "\n\n"))
	b.WriteString("\n\n\n")
	b.WriteString(generatedLine(doc))
	b.WriteString("\n")
	return b.String()
}

func renderMarkdown(doc Document) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(doc.Title)
	b.WriteString("\n\n")
	for _, p := range paragraphs(doc.Content) {
		if isHeading(p, doc.Headings) {
			b.WriteString("## ")
		}
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	b.WriteString("---\n\n*")
	b.WriteString(generatedLine(doc))
	b.WriteString("*\n")
	return b.String()
}

type htmlBlock struct {
	Heading bool
	Text    string
}

type htmlPage struct {
	Title       string
	GeneratedAt string
	Blocks      []htmlBlock
}

var biographyPage = template.Must(template.New("biography").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
      * { margin: 0; padding: 0; box-sizing: border-box; }
      body { font-family: "Microsoft YaHei", "SimSun", serif; line-height: 1.8; color: #333; background-color: #f9f9f9; }
      .biography-container { max-width: 800px; margin: 0 auto; background: white; box-shadow: 0 0 20px rgba(0,0,0,0.1); min-height: 100vh; }
      .biography-header { text-align: center; padding: 40px 20px; border-bottom: 2px solid #eee; }
      .biography-title { font-size: 2.5rem; color: #1a1a1a; margin-bottom: 10px; font-weight: 700; }
      .generation-info { color: #666; font-size: 0.9rem; }
      .biography-content { padding: 40px; }
      .chapter-title { font-size: 1.5rem; color: #1677ff; margin: 30px 0 20px 0; padding-bottom: 10px; border-bottom: 1px solid #eee; }
      .paragraph { margin-bottom: 16px; text-indent: 2em; font-size: 1rem; }
      .biography-footer { text-align: center; padding: 20px; border-top: 1px solid #eee; color: #999; font-size: 0.8rem; }
      @media (max-width: 768px) {
        .biography-container { margin: 0; box-shadow: none; }
        .biography-header, .biography-content { padding: 20px; }
        .biography-title { font-size: 2rem; }
        .chapter-title { font-size: 1.3rem; }
      }
    </style>
</head>
<body>
    <div class="biography-container">
        <header class="biography-header">
            <h1 class="biography-title">{{.Title}}</h1>
            <p class="generation-info">{{.GeneratedAt}}</p>
        </header>
        <main class="biography-content">
{{- range .Blocks}}
            {{if .Heading}}<h2 class="chapter-title">{{.Text}}</h2>{{else}}<p class="paragraph">{{.Text}}</p>{{end}}
{{- end}}
        </main>
        <footer class="biography-footer">
            <p>由 忆述 传记生成器 创建</p>
        </footer>
    </div>
</body>
</html>
`))

func renderHTML(doc Document) ([]byte, error) {
	page := htmlPage{Title: doc.Title, GeneratedAt: generatedLine(doc)}
	for _, p := range paragraphs(doc.Content) {
		page.Blocks = append(page.Blocks, htmlBlock{Heading: isHeading(p, doc.Headings), Text: p})
	}
	var buf bytes.Buffer
	if err := biographyPage.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("executing html template: %w", err)
	}
	return buf.Bytes(), nil
}
