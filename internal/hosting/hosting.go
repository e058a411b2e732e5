// Package hosting stores uploaded files with an external media host and
// returns the URL under which they are served.
package hosting

import "context"

type Request struct {
	// DataURL carries the full file content as data:<type>;base64,<payload>.
	DataURL   string
	MediaType string
	Filename  string
	PublicID  string
}

type Host interface {
	Upload(ctx context.Context, req Request) (string, error)
	Name() string
}
