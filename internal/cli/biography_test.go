package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yishu-dev/yishu/internal/core"
	"github.com/yishu-dev/yishu/internal/integration"
	"github.com/yishu-dev/yishu/pkg/models"
)

func resetBiographyFlags(t *testing.T) {
	t.Helper()
	origStyle, origName, origJSON := biographyStyle, biographyName, biographyJSON
	origFormat, origOut, origTo, origExportStyle := exportFormat, exportOut, exportTo, exportStyle
	origFmtDefault := DefaultFormat
	t.Cleanup(func() {
		biographyStyle, biographyName, biographyJSON = origStyle, origName, origJSON
		exportFormat, exportOut, exportTo, exportStyle = origFormat, origOut, origTo, origExportStyle
		DefaultFormat = origFmtDefault
	})
	biographyStyle, biographyName, biographyJSON = "", "", false
	exportFormat, exportOut, exportTo, exportStyle = "", "", "", ""
	DefaultFormat = ""
}

func TestBiographyCmd_NoAnswers(t *testing.T) {
	im := withInterview(t)
	resetBiographyFlags(t)
	im.Start("tester")

	err := biographyCmd.RunE(biographyCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "no answers yet") {
		t.Fatalf("expected no answers error, got %v", err)
	}
}

func TestBiographyCmd_NilGenerator(t *testing.T) {
	orig := Biographer
	defer func() { Biographer = orig }()
	Biographer = nil

	err := biographyCmd.RunE(biographyCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestBiographyCmd_Output(t *testing.T) {
	im := withInterview(t)
	resetBiographyFlags(t)
	im.Start("tester")
	answerRequired(t, im)

	var err error
	out := captureStdout(t, func() {
		err = biographyCmd.RunE(biographyCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "张三的人生传记") {
		t.Errorf("expected title with configured subject name:\n%s", out)
	}
	if !strings.Contains(out, "1985年") {
		t.Errorf("expected answer content in the biography:\n%s", out)
	}
	if !strings.Contains(out, "style classic") {
		t.Errorf("expected stats line with the default style:\n%s", out)
	}
}

func TestBiographyCmd_NameAndJSON(t *testing.T) {
	im := withInterview(t)
	resetBiographyFlags(t)
	im.Start("tester")
	answerRequired(t, im)

	biographyName = "李四"
	biographyJSON = true
	out := captureStdout(t, func() {
		if err := biographyCmd.RunE(biographyCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	var bio models.Biography
	if err := json.Unmarshal([]byte(out), &bio); err != nil {
		t.Fatalf("output is not a JSON biography: %v\n%s", err, out)
	}
	if bio.Title != "李四的人生传记" {
		t.Errorf("Title = %q, want 李四的人生传记", bio.Title)
	}
	if len(bio.Chapters) != 1 {
		t.Errorf("expected one chapter for the answered stage, got %d", len(bio.Chapters))
	}
}

func TestBiographyCmd_UnknownStyle(t *testing.T) {
	im := withInterview(t)
	resetBiographyFlags(t)
	im.Start("tester")
	answerRequired(t, im)

	biographyStyle = "gothic"
	err := biographyCmd.RunE(biographyCmd, nil)
	if err == nil {
		t.Fatal("expected error for unknown style")
	}
	if !strings.Contains(err.Error(), "gothic") {
		t.Errorf("error should name the style: %v", err)
	}
}

func TestStylesCmd(t *testing.T) {
	withInterview(t)

	out := captureStdout(t, func() {
		if err := stylesCmd.RunE(stylesCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	for _, key := range []string{"classic", "family", "inspirational"} {
		if !strings.Contains(out, key) {
			t.Errorf("styles output missing %q:\n%s", key, out)
		}
	}
	if !strings.Contains(out, "* classic") {
		t.Errorf("expected default style marker:\n%s", out)
	}
}

func TestStylesCmd_NilGenerator(t *testing.T) {
	orig := Biographer
	defer func() { Biographer = orig }()
	Biographer = nil

	if err := stylesCmd.RunE(stylesCmd, nil); err == nil {
		t.Fatal("expected error when Biographer is nil")
	}
}

func withExporter(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig := Exporter
	t.Cleanup(func() { Exporter = orig })
	Exporter = integration.NewExporter(nil, integration.NewFileSinks(dir)...)
	return dir
}

func TestExportCmd_WritesText(t *testing.T) {
	im := withInterview(t)
	resetBiographyFlags(t)
	dir := withExporter(t)
	im.Start("tester")
	answerRequired(t, im)

	var err error
	out := captureStdout(t, func() {
		err = exportCmd.RunE(exportCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Biography written to") {
		t.Errorf("expected written message:\n%s", out)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.txt"))
	if len(matches) != 1 {
		t.Fatalf("expected one text export in %s, got %v", dir, matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "张三的人生传记") {
		t.Errorf("export missing title:\n%s", data)
	}
}

func TestExportCmd_OutAndFormat(t *testing.T) {
	im := withInterview(t)
	resetBiographyFlags(t)
	withExporter(t)
	im.Start("tester")
	answerRequired(t, im)

	out := t.TempDir()
	exportFormat = "markdown"
	exportOut = out
	captureStdout(t, func() {
		if err := exportCmd.RunE(exportCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	matches, _ := filepath.Glob(filepath.Join(out, "*.md"))
	if len(matches) != 1 {
		t.Errorf("expected one markdown export in --out dir, got %v", matches)
	}
}

func TestExportCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		to      string
		wantErr string
	}{
		{"email without recipient", "email", "", "--to is required"},
		{"unknown format", "pdf", "", "pdf"},
		{"email without ses sink", "email", "family@example.com", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := withInterview(t)
			resetBiographyFlags(t)
			withExporter(t)
			im.Start("tester")
			answerRequired(t, im)

			exportFormat = tt.format
			exportTo = tt.to
			err := exportCmd.RunE(exportCmd, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestExportCmd_NilExporter(t *testing.T) {
	orig := Exporter
	defer func() { Exporter = orig }()
	Exporter = nil

	err := exportCmd.RunE(exportCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "exporter not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestGenerateBiography_DefaultsFromConfig(t *testing.T) {
	im := withInterview(t)
	resetBiographyFlags(t)
	im.Start("tester")
	im.SaveAnswer("childhood_001", "我出生在杭州", core.AnswerOpts{})

	bio, err := generateBiography(exportCmd, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bio.Style != core.DefaultStyleKey {
		t.Errorf("Style = %q, want %q", bio.Style, core.DefaultStyleKey)
	}
}
