package models

// UploadedFile is a file held by the demo widget between selection and upload.
type UploadedFile struct {
	Name      string
	MediaType string
	Content   []byte
}

func (f UploadedFile) Size() int64 {
	return int64(len(f.Content))
}

// GenerationRequest pairs a hosted reference with the user's query.
type GenerationRequest struct {
	PDFURL    string
	UserQuery string
}

type GeneratedResult struct {
	Text     string `json:"response"`
	ImageURL string `json:"image_url"`
}
