package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"photosheet/internal/imaging"
	"photosheet/internal/layout"
	"photosheet/internal/model"
	"photosheet/internal/pdf"
	"photosheet/internal/staging"
)

// ErrNoImages is returned when a request carries no images at all.
// The caller is informed and no document is produced.
var ErrNoImages = errors.New("no images supplied")

// ResourceError reports a single upload that could not be decoded or
// flattened. One bad image aborts the whole request.
type ResourceError struct {
	Filename string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("unreadable image %q: %v", e.Filename, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// RenderError reports a failure while assembling or serializing the PDF.
// It is fatal; no partial artifact is returned.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render sheet: %v", e.Err) }

func (e *RenderError) Unwrap() error { return e.Err }

// Upload is one image as received from the transport layer.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// SheetService defines the use cases for producing photo sheets.
type SheetService interface {
	// Generate runs the full pipeline: flatten every upload, stage it,
	// lay the images out two per page, and render the PDF. Returns the
	// sheet metadata together with the artifact bytes.
	Generate(ctx context.Context, uploads []Upload, label string) (*model.Sheet, []byte, error)

	// Preview validates the uploads and reports the sheet metadata the
	// same inputs would produce, without rendering a PDF.
	Preview(ctx context.Context, uploads []Upload, label string) (*model.Sheet, error)
}

// Metrics holds the service-level Prometheus collectors.
type Metrics struct {
	SheetsGenerated prometheus.Counter
	PagesRendered   prometheus.Counter
}

// NewMetrics registers the sheet metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SheetsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheets_generated_total",
			Help: "Total number of photo sheet PDFs generated.",
		}),
		PagesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sheet_pages_rendered_total",
			Help: "Total number of PDF pages rendered across all sheets.",
		}),
	}
	if err := reg.Register(m.SheetsGenerated); err != nil {
		return nil, err
	}
	if err := reg.Register(m.PagesRendered); err != nil {
		return nil, err
	}
	return m, nil
}

var tracer = otel.Tracer("photosheet/internal/service")

// sheetService is a concrete implementation of SheetService.
type sheetService struct {
	store   staging.Store
	fit     layout.FitMode
	metrics *Metrics
}

// NewSheetService constructs a new SheetService. metrics may be nil.
func NewSheetService(store staging.Store, fit layout.FitMode, metrics *Metrics) SheetService {
	return &sheetService{store: store, fit: fit, metrics: metrics}
}

func (s *sheetService) Generate(ctx context.Context, uploads []Upload, label string) (_ *model.Sheet, _ []byte, err error) {
	if len(uploads) == 0 {
		return nil, nil, ErrNoImages
	}

	ctx, span := tracer.Start(ctx, "sheet.generate")
	defer span.End()

	id := uuid.New().String()
	scope := staging.NewScope(s.store, "staging/"+id)
	defer func() {
		// Staged objects are released on every exit path. Cleanup uses a
		// detached context so a canceled request cannot strand objects.
		if cerr := scope.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = fmt.Errorf("release staging: %w", cerr)
		}
	}()

	sources, err := s.stage(ctx, scope, uploads)
	if err != nil {
		return nil, nil, err
	}

	doc := layout.BuildDocument(sources, label, s.fit)

	artifact, err := pdf.Render(ctx, doc, scope)
	if err != nil {
		return nil, nil, &RenderError{Err: err}
	}

	span.SetAttributes(
		attribute.Int("sheet.images", doc.Images()),
		attribute.Int("sheet.pages", len(doc.Pages)),
		attribute.Int("sheet.bytes", len(artifact)),
	)
	if s.metrics != nil {
		s.metrics.SheetsGenerated.Inc()
		s.metrics.PagesRendered.Add(float64(len(doc.Pages)))
	}

	return newSheet(id, label, doc, int64(len(artifact))), artifact, nil
}

func (s *sheetService) Preview(ctx context.Context, uploads []Upload, label string) (*model.Sheet, error) {
	if len(uploads) == 0 {
		return nil, ErrNoImages
	}

	_, span := tracer.Start(ctx, "sheet.preview")
	defer span.End()

	// Preview still decodes every upload so that unreadable images are
	// reported identically to Generate, but nothing is staged or rendered.
	sources := make([]layout.ImageSource, 0, len(uploads))
	for _, up := range uploads {
		flat, err := flattenUpload(up)
		if err != nil {
			return nil, err
		}
		sources = append(sources, layout.ImageSource{
			Name:   up.Filename,
			Width:  flat.Width,
			Height: flat.Height,
		})
	}

	doc := layout.BuildDocument(sources, label, s.fit)
	return newSheet(uuid.New().String(), label, doc, 0), nil
}

// stage flattens each upload and writes the opaque JPEG into the scope,
// returning the layout sources in input order.
func (s *sheetService) stage(ctx context.Context, scope *staging.Scope, uploads []Upload) ([]layout.ImageSource, error) {
	ctx, span := tracer.Start(ctx, "sheet.stage")
	defer span.End()

	sources := make([]layout.ImageSource, 0, len(uploads))
	for i, up := range uploads {
		flat, err := flattenUpload(up)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%03d.jpg", i)
		key, err := scope.Put(ctx, name, bytes.NewReader(flat.Data), staging.PutOptions{
			Size:        int64(len(flat.Data)),
			ContentType: "image/jpeg",
			Metadata:    map[string]string{"original-filename": up.Filename},
		})
		if err != nil {
			return nil, fmt.Errorf("stage image %q: %w", up.Filename, err)
		}

		sources = append(sources, layout.ImageSource{
			Key:    key,
			Name:   up.Filename,
			Width:  flat.Width,
			Height: flat.Height,
		})
	}
	return sources, nil
}

func flattenUpload(up Upload) (*imaging.Flattened, error) {
	if up.Reader == nil {
		return nil, &ResourceError{Filename: up.Filename, Err: errors.New("reader is nil")}
	}
	data, err := io.ReadAll(up.Reader)
	if err != nil {
		return nil, &ResourceError{Filename: up.Filename, Err: err}
	}
	flat, err := imaging.Flatten(data)
	if err != nil {
		return nil, &ResourceError{Filename: up.Filename, Err: err}
	}
	return flat, nil
}

func newSheet(id, label string, doc layout.Document, size int64) *model.Sheet {
	return &model.Sheet{
		ID:          id,
		Label:       label,
		Filename:    model.DefaultFilename,
		ContentType: model.ContentTypePDF,
		Pages:       len(doc.Pages),
		Images:      doc.Images(),
		PageRows:    doc.PageRows(),
		Size:        size,
		GeneratedAt: time.Now().UTC(),
	}
}
