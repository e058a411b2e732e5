// Package demo implements the "Try It Live" widget: pick a PDF, have it
// hosted, ask for a post, show the result.
package demo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"promoagent/internal/media/sniffer"
	"promoagent/internal/models"
)

type State int

const (
	StateIdle State = iota
	StateFileSelected
	StateUploading
	StateUploaded
	StateGenerating
	StateResultReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFileSelected:
		return "file_selected"
	case StateUploading:
		return "uploading"
	case StateUploaded:
		return "uploaded"
	case StateGenerating:
		return "generating"
	case StateResultReady:
		return "result_ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// AlertNotPDF is shown, blocking, when a non-PDF file is offered.
const AlertNotPDF = "Please upload a PDF file."

var (
	ErrNotPDF              = errors.New("selected file is not a pdf")
	ErrNoFile              = errors.New("no file selected")
	ErrNoReference         = errors.New("file has not been uploaded")
	ErrUploadInFlight      = errors.New("upload already in progress")
	ErrGenerateUnavailable = errors.New("generate is unavailable")
	ErrSuperseded          = errors.New("superseded by a newer file")
)

// Backend is everything the widget needs from the server.
type Backend interface {
	Upload(ctx context.Context, file models.UploadedFile) (string, error)
	Generate(ctx context.Context, req models.GenerationRequest) (models.GeneratedResult, error)
}

// Widget holds the demo's view state. Methods are safe for concurrent use;
// network calls run without the lock held.
type Widget struct {
	mu      sync.Mutex
	backend Backend
	log     zerolog.Logger

	state     State
	file      *models.UploadedFile
	fileSeq   uint64
	reference string
	query     string
	result    *models.GeneratedResult
	lastErr   error
}

func NewWidget(backend Backend, log zerolog.Logger) *Widget {
	return &Widget{
		backend: backend,
		log:     log,
		state:   StateIdle,
	}
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SelectFile is the file picker path.
func (w *Widget) SelectFile(file models.UploadedFile) error {
	if file.MediaType != sniffer.MIMEPDF {
		w.log.Warn().Str("file", file.Name).Str("media_type", file.MediaType).Msg(AlertNotPDF)
		return ErrNotPDF
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.file = &file
	w.fileSeq++
	w.reference = ""
	w.lastErr = nil
	w.state = StateFileSelected
	return nil
}

// Drop is the drag-and-drop path; only the first dropped file counts.
func (w *Widget) Drop(files []models.UploadedFile) error {
	if len(files) == 0 {
		return nil
	}
	return w.SelectFile(files[0])
}

// NeedsUpload reports whether a file is waiting for a hosted reference.
func (w *Widget) NeedsUpload() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.needsUploadLocked()
}

func (w *Widget) needsUploadLocked() bool {
	return w.file != nil && w.reference == "" && w.state != StateUploading
}

// Advance performs the transitions that happen without user input, which is
// only the upload that follows a file selection.
func (w *Widget) Advance(ctx context.Context) error {
	if !w.NeedsUpload() {
		return nil
	}
	return w.Upload(ctx)
}

func (w *Widget) Upload(ctx context.Context) error {
	w.mu.Lock()
	switch {
	case w.file == nil:
		w.mu.Unlock()
		return ErrNoFile
	case w.state == StateUploading:
		w.mu.Unlock()
		return ErrUploadInFlight
	case w.reference != "":
		w.mu.Unlock()
		return nil
	}
	file := *w.file
	seq := w.fileSeq
	w.state = StateUploading
	w.lastErr = nil
	w.mu.Unlock()

	url, err := w.backend.Upload(ctx, file)
	if err == nil && url == "" {
		err = errors.New("upload returned no url")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if seq != w.fileSeq {
		return ErrSuperseded
	}
	if err != nil {
		w.log.Error().Err(err).Str("file", file.Name).Msg("error uploading file")
		w.state = StateFileSelected
		w.lastErr = fmt.Errorf("upload failed: %w", err)
		return w.lastErr
	}

	w.log.Debug().Str("url", url).Msg("pdf hosted")
	w.reference = url
	w.state = StateUploaded
	return nil
}

func (w *Widget) Reference() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reference
}

// SetQuery is only possible once the query field is shown.
func (w *Widget) SetQuery(query string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.reference == "" {
		return ErrNoReference
	}
	w.query = query
	return nil
}

func (w *Widget) CanGenerate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canGenerateLocked()
}

func (w *Widget) canGenerateLocked() bool {
	return w.reference != "" && w.query != "" && w.state != StateGenerating
}

func (w *Widget) Generate(ctx context.Context) error {
	w.mu.Lock()
	if w.reference == "" {
		w.mu.Unlock()
		return ErrNoReference
	}
	if !w.canGenerateLocked() {
		w.mu.Unlock()
		return ErrGenerateUnavailable
	}
	req := models.GenerationRequest{PDFURL: w.reference, UserQuery: w.query}
	seq := w.fileSeq
	w.state = StateGenerating
	w.lastErr = nil
	w.mu.Unlock()

	w.log.Debug().Str("pdf_url", req.PDFURL).Str("user_query", req.UserQuery).Msg("generating post")
	result, err := w.backend.Generate(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()

	if seq != w.fileSeq {
		return ErrSuperseded
	}
	if err != nil {
		w.log.Error().Err(err).Msg("error generating post")
		w.state = StateUploaded
		w.lastErr = fmt.Errorf("generation failed: %w", err)
		return w.lastErr
	}

	w.result = &result
	w.state = StateResultReady
	return nil
}

func (w *Widget) Result() (models.GeneratedResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return models.GeneratedResult{}, false
	}
	return *w.result, true
}

func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return buildView(w)
}
