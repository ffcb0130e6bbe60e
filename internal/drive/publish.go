package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const xlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Publisher uploads local run outputs into a Drive folder, replacing files
// that already carry the same name.
type Publisher struct {
	service  FileService
	folderID string
}

func NewPublisher(service FileService, folderID string) *Publisher {
	return &Publisher{service: service, folderID: folderID}
}

// Publish uploads every path and returns the resulting Drive files.
func (p *Publisher) Publish(ctx context.Context, paths ...string) ([]*File, error) {
	out := make([]*File, 0, len(paths))
	for _, path := range paths {
		f, err := p.upload(ctx, path)
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (p *Publisher) upload(ctx context.Context, path string) (*File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	name := filepath.Base(path)
	f, err := p.service.UploadFile(ctx, p.folderID, name, mimeTypeFor(name), r)
	if err != nil {
		return nil, err
	}

	log.Info().Str("name", name).Str("file_id", f.ID).Msg("published to drive")
	return f, nil
}

func mimeTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return xlsxMimeType
	case ".csv":
		return "text/csv"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
