// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pptx converts PowerPoint presentations to Markdown. A .pptx file
// is an OPC zip archive; slide text lives in ppt/slides/slideN.xml as a:t
// runs, images are referenced through per-slide relationship files, and
// speaker notes live in ppt/notesSlides/.
package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/pdiddy/docmark/internal/caption"
	"github.com/pdiddy/docmark/pkg/types"
)

var (
	reSlide     = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	reSlideRels = regexp.MustCompile(`^ppt/slides/_rels/slide(\d+)\.xml\.rels$`)
	reNotes     = regexp.MustCompile(`^ppt/notesSlides/notesSlide(\d+)\.xml$`)
	reMedia     = regexp.MustCompile(`^ppt/media/[^/]+\.(?:png|gif|jpg|jpeg|bmp|tif|tiff)$`)
)

// Converter renders slides in order: a slide marker comment, the slide's
// text runs as paragraphs, image references, and speaker notes.
type Converter struct {
	describer caption.Describer
}

// New creates a pptx converter. d may be nil to disable image captions.
func New(d caption.Describer) *Converter {
	return &Converter{describer: d}
}

// Convert extracts the presentation at docPath and returns its Markdown
// rendition.
func (c *Converter) Convert(ctx context.Context, docPath string) (string, error) {
	r, err := zip.OpenReader(docPath)
	if err != nil {
		return "", fmt.Errorf("opening pptx %s: %w", docPath, err)
	}
	defer r.Close()

	slides := make(map[int]*zip.File)
	rels := make(map[int]*zip.File)
	notes := make(map[int]*zip.File)
	media := make(map[string]*zip.File)

	for _, f := range r.File {
		switch {
		case reMedia.MatchString(strings.ToLower(f.Name)):
			media[path.Base(f.Name)] = f
		default:
			if n, ok := memberNumber(reSlide, f.Name); ok {
				slides[n] = f
			} else if n, ok := memberNumber(reSlideRels, f.Name); ok {
				rels[n] = f
			} else if n, ok := memberNumber(reNotes, f.Name); ok {
				notes[n] = f
			}
		}
	}

	if len(slides) == 0 {
		return "", fmt.Errorf("%s contains no slides", docPath)
	}

	numbers := make([]int, 0, len(slides))
	for n := range slides {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var b strings.Builder
	for _, n := range numbers {
		text, embeds, err := extractSlide(slides[n])
		if err != nil {
			return "", fmt.Errorf("slide %d of %s: %w", n, docPath, err)
		}

		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "<!-- Slide %d -->", n)

		for _, para := range text {
			b.WriteString("\n\n")
			b.WriteString(para)
		}

		images, err := slideImages(rels[n], media, embeds)
		if err != nil {
			return "", fmt.Errorf("slide %d of %s: %w", n, docPath, err)
		}
		if len(images) > 0 {
			refs, err := caption.RenderImages(ctx, c.describer, images)
			if err != nil {
				return "", err
			}
			b.WriteString("\n\n")
			b.WriteString(refs)
		}

		if nf, ok := notes[n]; ok {
			noteParas, _, err := extractSlide(nf)
			if err != nil {
				return "", fmt.Errorf("notes for slide %d of %s: %w", n, docPath, err)
			}
			if len(noteParas) > 0 {
				b.WriteString("\n\n### Notes")
				for _, para := range noteParas {
					b.WriteString("\n\n")
					b.WriteString(para)
				}
			}
		}
	}

	return b.String() + "\n", nil
}

// memberNumber extracts the numeric capture from an archive member name.
func memberNumber(re *regexp.Regexp, name string) (int, bool) {
	m := re.FindStringSubmatch(name)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractSlide streams one slide (or notes) XML member, returning its text
// paragraphs and the relationship IDs of embedded images in document order.
func extractSlide(f *zip.File) (paragraphs []string, embeds []string, err error) {
	data, err := readZipMember(f)
	if err != nil {
		return nil, nil, err
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	var para strings.Builder
	inText := false
	flush := func() {
		text := strings.Join(strings.Fields(para.String()), " ")
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
		para.Reset()
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("decoding %s: %w", f.Name, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "br":
				para.WriteByte(' ')
			case "blip":
				for _, attr := range el.Attr {
					if attr.Name.Local == "embed" && attr.Value != "" {
						embeds = append(embeds, attr.Value)
					}
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
				para.WriteByte(' ')
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(el)
			}
		}
	}
	flush()

	return paragraphs, embeds, nil
}

// relationships mirrors the OPC relationship file schema.
type relationships struct {
	Rels []relationship `xml:"Relationship"`
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

// slideImages resolves embed relationship IDs through the slide's rels
// member and reads the referenced media. Unresolvable IDs are skipped:
// slides may reference media formats the converter does not carry over.
func slideImages(relFile *zip.File, media map[string]*zip.File, embeds []string) ([]types.Image, error) {
	if relFile == nil || len(embeds) == 0 {
		return nil, nil
	}

	data, err := readZipMember(relFile)
	if err != nil {
		return nil, err
	}
	var rels relationships
	if err := xml.Unmarshal(data, &rels); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", relFile.Name, err)
	}

	targets := make(map[string]string, len(rels.Rels))
	for _, rel := range rels.Rels {
		targets[rel.ID] = path.Base(rel.Target)
	}

	var images []types.Image
	seen := make(map[string]bool)
	for _, id := range embeds {
		name := targets[id]
		if name == "" || seen[name] {
			continue
		}
		member, ok := media[name]
		if !ok {
			continue
		}
		data, err := readZipMember(member)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", member.Name, err)
		}
		seen[name] = true
		images = append(images, types.Image{Name: name, Data: data})
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
