package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Archiver copies run outputs to object storage under
// <prefix>/<YYYYMMDD>/<file> and restores them later.
type Archiver struct {
	client ObjectStorage
	prefix string
}

func NewArchiver(client ObjectStorage, prefix string) *Archiver {
	return &Archiver{client: client, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}
}

// Key returns the object key of a local file archived for date.
func (a *Archiver) Key(date time.Time, localPath string) string {
	return path.Join(a.prefix, date.Format("20060102"), filepath.Base(localPath))
}

// Archive uploads every file and returns the keys written.
func (a *Archiver) Archive(ctx context.Context, date time.Time, paths ...string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return keys, fmt.Errorf("read %s: %w", p, err)
		}
		key := a.Key(date, p)
		if err := a.client.UploadObject(ctx, key, data); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	log.Info().Int("files", len(keys)).Str("prefix", a.prefix).Msg("run outputs archived")
	return keys, nil
}

// Restore downloads objects into destDir. With override set only that object
// is fetched, otherwise every object under sub matching ext.
func (a *Archiver) Restore(ctx context.Context, sub, override, ext, destDir string) ([]string, error) {
	prefix := path.Join(a.prefix, sub)

	var keys []string
	if override != "" {
		keys = []string{resolveObjectKey(prefix, override)}
	} else {
		objects, err := a.client.ListObjects(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects for prefix %s: %w", prefix, err)
		}
		for _, obj := range objects {
			if ext == "" || strings.HasSuffix(strings.ToLower(obj.Key), strings.ToLower(ext)) {
				keys = append(keys, obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no objects found for prefix %s", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		localPath := filepath.Join(destDir, filepath.FromSlash(objectRelativePath(prefix, key)))
		if err := a.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

func resolveObjectKey(prefix, override string) string {
	if override == "" {
		return strings.TrimSpace(prefix)
	}
	if prefix == "" {
		return strings.TrimPrefix(override, "/")
	}

	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	overrideTrimmed := strings.TrimPrefix(strings.TrimSpace(override), "/")

	if strings.HasPrefix(overrideTrimmed, prefixTrimmed) {
		return overrideTrimmed
	}
	return fmt.Sprintf("%s/%s", prefixTrimmed, overrideTrimmed)
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" {
		return path.Base(key)
	}
	return rel
}
