// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pptx

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/docmark/pkg/types"
)

const slideXMLHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">`

func slideXML(body string) string {
	return slideXMLHeader + `<p:cSld><p:spTree>` + body + `</p:spTree></p:cSld></p:sld>`
}

// writePptx builds a .pptx archive from member name to content.
func writePptx(t *testing.T, members map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvert_TextAndOrdering(t *testing.T) {
	path := writePptx(t, map[string]string{
		"ppt/slides/slide2.xml": slideXML(
			`<p:sp><p:txBody><a:p><a:r><a:t>Second</a:t></a:r><a:r><a:t>slide</a:t></a:r></a:p></p:txBody></p:sp>`),
		"ppt/slides/slide10.xml": slideXML(
			`<p:sp><p:txBody><a:p><a:r><a:t>Tenth slide</a:t></a:r></a:p></p:txBody></p:sp>`),
		"ppt/slides/slide1.xml": slideXML(
			`<p:sp><p:txBody><a:p><a:r><a:t>Title</a:t></a:r></a:p><a:p><a:r><a:t>Body text</a:t></a:r></a:p></p:txBody></p:sp>`),
	})

	got, err := New(nil).Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"<!-- Slide 1 -->",
		"Title",
		"Body text",
		"<!-- Slide 2 -->",
		"Second slide",
		"<!-- Slide 10 -->",
		"Tenth slide",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	// Slides must come out in numeric order, not lexicographic.
	if strings.Index(got, "<!-- Slide 2 -->") > strings.Index(got, "<!-- Slide 10 -->") {
		t.Errorf("slide 10 rendered before slide 2:\n%s", got)
	}
	if strings.Index(got, "Title") > strings.Index(got, "Second slide") {
		t.Errorf("slide text out of order:\n%s", got)
	}
}

func TestConvert_ImagesAndNotes(t *testing.T) {
	path := writePptx(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(
			`<p:sp><p:txBody><a:p><a:r><a:t>With picture</a:t></a:r></a:p></p:txBody></p:sp>` +
				`<p:pic><p:blipFill><a:blip r:embed="rId2"/></p:blipFill></p:pic>`),
		"ppt/slides/_rels/slide1.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/image1.png"/>` +
			`</Relationships>`,
		"ppt/media/image1.png": "\x89PNG fake bytes",
		"ppt/notesSlides/notesSlide1.xml": slideXML(
			`<p:sp><p:txBody><a:p><a:r><a:t>Remember the demo.</a:t></a:r></a:p></p:txBody></p:sp>`),
	})

	d := &stubDescriber{caption: "A photo of the launch event."}
	got, err := New(d).Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(got, "![A photo of the launch event.](image1.png)") {
		t.Errorf("output missing captioned image reference:\n%s", got)
	}
	if !strings.Contains(got, "### Notes") || !strings.Contains(got, "Remember the demo.") {
		t.Errorf("output missing speaker notes:\n%s", got)
	}
	if d.calls != 1 {
		t.Errorf("describer called %d times, want 1", d.calls)
	}
	if d.lastName != "image1.png" {
		t.Errorf("describer got image %q", d.lastName)
	}
}

func TestConvert_UnresolvableEmbedSkipped(t *testing.T) {
	path := writePptx(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML(
			`<p:sp><p:txBody><a:p><a:r><a:t>Text</a:t></a:r></a:p></p:txBody></p:sp>` +
				`<p:pic><p:blipFill><a:blip r:embed="rId9"/></p:blipFill></p:pic>`),
		"ppt/slides/_rels/slide1.xml.rels": `<?xml version="1.0"?>` +
			`<Relationships><Relationship Id="rId2" Target="../media/image1.png"/></Relationships>`,
	})

	got, err := New(nil).Convert(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "![") {
		t.Errorf("unresolvable embed should produce no image reference:\n%s", got)
	}
}

func TestConvert_NoSlides(t *testing.T) {
	path := writePptx(t, map[string]string{
		"docProps/core.xml": "<x/>",
	})
	if _, err := New(nil).Convert(context.Background(), path); err == nil {
		t.Fatal("expected error for archive without slides")
	}
}

func TestConvert_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pptx")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(nil).Convert(context.Background(), path); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

// stubDescriber records calls and returns one canned caption.
type stubDescriber struct {
	caption  string
	calls    int
	lastName string
}

func (s *stubDescriber) Describe(ctx context.Context, img types.Image) (string, error) {
	s.calls++
	s.lastName = img.Name
	return s.caption, nil
}
