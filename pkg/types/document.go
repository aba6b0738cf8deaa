// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared data model for the docmark CLI.
package types

import (
	"mime"
	"net/http"
	"path"
	"time"
)

// ConversionStatus indicates the state of document-to-Markdown conversion
// for one source file.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "skipped"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// Format identifies a supported source document format.
type Format string

const (
	FormatDocx Format = "docx"
	FormatPptx Format = "pptx"
)

// Document identifies one source file discovered by the scanner.
type Document struct {
	// ID is the filename without directory or extension.
	ID string `json:"id" yaml:"id"`

	// Path is the filesystem path to the source document.
	Path string `json:"path" yaml:"path"`

	// Format is the document format derived from the file extension.
	Format Format `json:"format" yaml:"format"`
}

// Image is an embedded media object read from a document archive.
type Image struct {
	// Name is the archive member basename (e.g. "image1.png").
	Name string

	// Data is the raw image bytes.
	Data []byte
}

// MIMEType returns the image's MIME type, derived from the filename
// extension and falling back to content sniffing.
func (i Image) MIMEType() string {
	if t := mime.TypeByExtension(path.Ext(i.Name)); t != "" {
		return t
	}
	return http.DetectContentType(i.Data)
}

// FileResult records the outcome of converting one document.
type FileResult struct {
	// Path is the source document path.
	Path string `json:"path" yaml:"path"`

	// Output is the Markdown path written (or that would have been written).
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Status is the conversion outcome.
	Status ConversionStatus `json:"status" yaml:"status"`

	// Error holds the failure message when Status is ConversionFailed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// DurationMS is the wall-clock conversion time in milliseconds.
	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`
}

// RunReport summarizes a whole conversion run, including per-file results.
type RunReport struct {
	Root       string       `json:"root" yaml:"root"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time    `json:"finished_at" yaml:"finished_at"`
	Converted  int          `json:"converted" yaml:"converted"`
	Skipped    int          `json:"skipped" yaml:"skipped"`
	Failed     int          `json:"failed" yaml:"failed"`
	Results    []FileResult `json:"results" yaml:"results"`
}
