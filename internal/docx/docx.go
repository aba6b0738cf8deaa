// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx converts Word documents to Markdown.
package docx

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	godocx "github.com/fumiama/go-docx"

	"github.com/pdiddy/docmark/internal/caption"
	"github.com/pdiddy/docmark/pkg/types"
)

// reMedia matches embedded raster images inside the OPC package.
var reMedia = regexp.MustCompile(`^word/media/[^/]+\.(?:png|gif|jpg|jpeg|bmp|tif|tiff)$`)

// Converter renders .docx body paragraphs and tables as Markdown text,
// followed by references for the document's embedded media images.
type Converter struct {
	describer caption.Describer
}

// New creates a docx converter. d may be nil to disable image captions.
func New(d caption.Describer) *Converter {
	return &Converter{describer: d}
}

// Convert parses the document at docPath and returns its Markdown rendition.
func (c *Converter) Convert(ctx context.Context, docPath string) (string, error) {
	f, err := os.Open(docPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", docPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", docPath, err)
	}

	doc, err := godocx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parsing docx %s: %w", docPath, err)
	}

	var b strings.Builder
	for _, it := range doc.Document.Body.Items {
		var content string
		switch t := it.(type) {
		case *godocx.Paragraph:
			content = t.String()
		case *godocx.Table:
			content = t.String()
		default:
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}

	images, err := readMedia(docPath)
	if err != nil {
		return "", err
	}
	if len(images) > 0 {
		refs, err := caption.RenderImages(ctx, c.describer, images)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(refs)
	}

	return b.String() + "\n", nil
}

// readMedia collects the document's embedded images from word/media/,
// sorted by member name. The go-docx item stream does not surface drawing
// payloads, so media is read straight from the archive.
func readMedia(docPath string) ([]types.Image, error) {
	r, err := zip.OpenReader(docPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s as archive: %w", docPath, err)
	}
	defer r.Close()

	var members []*zip.File
	for _, f := range r.File {
		if reMedia.MatchString(strings.ToLower(f.Name)) {
			members = append(members, f)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	images := make([]types.Image, 0, len(members))
	for _, m := range members {
		data, err := readZipMember(m)
		if err != nil {
			return nil, fmt.Errorf("reading %s from %s: %w", m.Name, docPath, err)
		}
		images = append(images, types.Image{
			Name: path.Base(m.Name),
			Data: data,
		})
	}
	return images, nil
}

func readZipMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
