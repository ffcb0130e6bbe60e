package drive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/rs/zerolog/log"
)

// ReferenceKind names one of the reference tables a run joins against.
type ReferenceKind string

const (
	ReferenceCatalog ReferenceKind = "catalog"
	ReferenceQuota   ReferenceKind = "quota"
	ReferencePrices  ReferenceKind = "prices"
	ReferenceShopify ReferenceKind = "shopify"
)

// ReferenceKinds lists every kind in load order.
var ReferenceKinds = []ReferenceKind{ReferenceCatalog, ReferenceQuota, ReferencePrices, ReferenceShopify}

// requiredColumns lists, per kind, groups of aliases; one alias of every
// group must be present.
var requiredColumns = map[ReferenceKind][][]string{
	ReferenceCatalog: {{"SKU_standard", "SKU"}, {"UPC", "UPCCODE"}, {"Collection"}},
	ReferenceQuota:   {{"SKU"}, {"Quota Amount", "amount"}},
	ReferencePrices:  {{"SKU"}, {"Cost", "price"}},
	ReferenceShopify: {{"SKU"}, {"UPCCODE", "UPC", "barcode"}},
}

// ParseReferenceKind validates a kind name.
func ParseReferenceKind(v string) (ReferenceKind, error) {
	kind := ReferenceKind(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := requiredColumns[kind]; !ok {
		return "", fmt.Errorf("unknown reference kind %q", v)
	}
	return kind, nil
}

// ReferencePath is where a reference table of the given kind is stored.
func ReferencePath(dir string, kind ReferenceKind) string {
	return filepath.Join(dir, string(kind)+".csv")
}

// IngestService copies reference tables from Drive into the local reference
// directory after checking their headers.
type IngestService struct {
	driveService FileService
	referenceDir string
}

func NewIngestService(driveService FileService, referenceDir string) *IngestService {
	return &IngestService{
		driveService: driveService,
		referenceDir: referenceDir,
	}
}

// IngestResult describes a stored reference table.
type IngestResult struct {
	Kind ReferenceKind `json:"kind"`
	Path string        `json:"path"`
	Rows int           `json:"rows"`
}

// IngestFile downloads fileID, converts it to CSV when it is a workbook,
// validates the header for kind and replaces the stored table.
func (s *IngestService) IngestFile(ctx context.Context, fileID string, kind ReferenceKind, xlsx bool) (*IngestResult, error) {
	cols, ok := requiredColumns[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}

	// 1. Download file from Drive
	var raw bytes.Buffer
	if err := s.driveService.DownloadFile(ctx, fileID, &raw); err != nil {
		return nil, err
	}

	// 2. Normalize to CSV
	data := raw.Bytes()
	if xlsx {
		var converted bytes.Buffer
		if err := convertXLSXToCSV(bytes.NewReader(data), "", &converted); err != nil {
			return nil, err
		}
		data = converted.Bytes()
	}

	// 3. Validate header
	table, err := dataset.DecodeCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", kind, err)
	}
	for _, group := range cols {
		if table.Column(group...) < 0 {
			return nil, fmt.Errorf("missing required column: %s", group[0])
		}
	}

	// 4. Store
	path := ReferencePath(s.referenceDir, kind)
	if err := dataset.WriteCSV(path, table); err != nil {
		return nil, err
	}

	log.Info().Str("kind", string(kind)).Str("file_id", fileID).Int("rows", table.Len()).Msg("reference table ingested")
	return &IngestResult{Kind: kind, Path: path, Rows: table.Len()}, nil
}

// referenceNameHints maps file-name fragments to the kind they hold, checked
// in order.
var referenceNameHints = []struct {
	fragment string
	kind     ReferenceKind
}{
	{"shopify", ReferenceShopify},
	{"quota", ReferenceQuota},
	{"price", ReferencePrices},
	{"cost", ReferencePrices},
	{"catalog", ReferenceCatalog},
	{"sku", ReferenceCatalog},
}

// MatchReferenceKind guesses the reference kind from a Drive file name.
func MatchReferenceKind(name string) (ReferenceKind, bool) {
	lower := strings.ToLower(name)
	for _, h := range referenceNameHints {
		if strings.Contains(lower, h.fragment) {
			return h.kind, true
		}
	}
	return "", false
}
