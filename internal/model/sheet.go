package model

import "time"

// Sheet describes one generated photo sheet artifact.
// This is a pure domain model with no rendering or transport dependencies.
// The PDF bytes themselves travel separately; a Sheet only carries metadata
// so that preview responses and logs never hold the artifact.
type Sheet struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Pages       int       `json:"pages"`
	Images      int       `json:"images"`
	PageRows    []int     `json:"page_rows"`
	Size        int64     `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
}

// DefaultFilename is the download filename offered for every generated sheet.
const DefaultFilename = "landscape_photos.pdf"

// ContentTypePDF is the content type of the generated artifact.
const ContentTypePDF = "application/pdf"
