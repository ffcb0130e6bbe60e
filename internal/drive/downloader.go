package drive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
	// Names restricts the download to files whose base name, without
	// extension, matches case-insensitively. Empty means every file.
	Names []string
}

// Downloader wraps a FileService to download files from a specific folder.
type Downloader struct {
	service FileService
}

// NewDownloader creates a new Downloader.
func NewDownloader(s FileService) *Downloader {
	return &Downloader{service: s}
}

// DownloadFolderCSV downloads all CSV and XLSX files from the given Drive folder
// into DownloadDir and returns local CSV paths keyed by lower-cased base name.
//
//   - CSV files are written as-is.
//   - XLSX files have their first sheet converted to CSV.
func (d *Downloader) DownloadFolderCSV(ctx context.Context, opts DownloadOptions) (map[string]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	wanted := make(map[string]struct{}, len(opts.Names))
	for _, n := range opts.Names {
		wanted[strings.ToLower(n)] = struct{}{}
	}

	files, err := d.service.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)))
		if len(wanted) > 0 {
			if _, ok := wanted[base]; !ok {
				continue
			}
		}

		var buf bytes.Buffer
		if err := d.service.DownloadFile(ctx, f.ID, &buf); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}

		localPath := filepath.Join(opts.DownloadDir, base+".csv")
		out, err := os.Create(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create local file %s: %w", localPath, err)
		}

		if ext == ".csv" {
			_, err = buf.WriteTo(out)
		} else {
			err = convertXLSXToCSV(&buf, "", out)
		}
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", f.Name, err)
		}

		log.Debug().Str("file", f.Name).Str("path", localPath).Msg("drive file downloaded")
		paths[base] = localPath
	}

	return paths, nil
}

// SyncReference downloads the reference folder and stores each recognised
// file at ReferencePath(referenceDir, kind). Unrecognised files are left in
// the incoming directory.
func (d *Downloader) SyncReference(ctx context.Context, folderID, referenceDir string) (map[ReferenceKind]string, error) {
	incoming := filepath.Join(referenceDir, "incoming")
	paths, err := d.DownloadFolderCSV(ctx, DownloadOptions{FolderID: folderID, DownloadDir: incoming})
	if err != nil {
		return nil, err
	}

	bases := make([]string, 0, len(paths))
	for base := range paths {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	out := make(map[ReferenceKind]string)
	for _, base := range bases {
		kind, ok := MatchReferenceKind(base)
		if !ok {
			log.Debug().Str("file", base).Msg("drive file is not a reference table")
			continue
		}
		if prev, dup := out[kind]; dup {
			log.Warn().Str("kind", string(kind)).Str("kept", prev).Str("ignored", base).Msg("several files match reference kind")
			continue
		}
		dest := ReferencePath(referenceDir, kind)
		if err := os.Rename(paths[base], dest); err != nil {
			return nil, fmt.Errorf("failed to store %s reference: %w", kind, err)
		}
		out[kind] = dest
	}

	log.Info().Int("tables", len(out)).Str("dir", referenceDir).Msg("reference tables synced")
	return out, nil
}
