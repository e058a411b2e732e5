package demo

import (
	"fmt"

	"promoagent/internal/models"
)

const (
	PlaceholderImage = "/placeholder.svg"

	statusUploading = "Uploading..."
	statusUploaded  = "Uploaded"

	labelGenerate   = "Generate Post"
	labelGenerating = "Generating..."
)

// View is a render-ready snapshot of the widget.
type View struct {
	State State

	FileName string
	FileSize string
	Status   string

	QueryVisible    bool
	Query           string
	GenerateEnabled bool
	GenerateLabel   string

	Generating      bool
	Result          *models.GeneratedResult
	ImageURL        string
	DownloadEnabled bool

	Error string
}

func buildView(w *Widget) View {
	v := View{
		State:           w.state,
		QueryVisible:    w.reference != "",
		Query:           w.query,
		GenerateEnabled: w.canGenerateLocked(),
		GenerateLabel:   labelGenerate,
		Generating:      w.state == StateGenerating,
	}

	if w.file != nil {
		v.FileName = w.file.Name
		v.FileSize = FormatSize(w.file.Size())
		switch {
		case w.state == StateUploading:
			v.Status = statusUploading
		case w.reference != "":
			v.Status = statusUploaded
		}
	}

	if v.Generating {
		v.GenerateLabel = labelGenerating
	}

	if w.result != nil {
		result := *w.result
		v.Result = &result
		v.ImageURL = result.ImageURL
		if v.ImageURL == "" {
			v.ImageURL = PlaceholderImage
		}
		v.DownloadEnabled = true
	}

	if w.lastErr != nil {
		v.Error = w.lastErr.Error()
	}
	return v
}

// FormatSize renders bytes as megabytes with two decimals.
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}
