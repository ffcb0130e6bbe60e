package drive_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/inventory-ops/backend-go/internal/dataset"
	"github.com/andresuchdata/inventory-ops/backend-go/internal/drive"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeDrive struct {
	files    []*drive.File
	content  map[string][]byte
	uploaded map[string][]byte
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{content: map[string][]byte{}, uploaded: map[string][]byte{}}
}

func (f *fakeDrive) add(id, name string, data []byte) {
	f.files = append(f.files, &drive.File{ID: id, Name: name})
	f.content[id] = data
}

func (f *fakeDrive) ListFiles(ctx context.Context, folderID string) ([]*drive.File, error) {
	return f.files, nil
}

func (f *fakeDrive) DownloadFile(ctx context.Context, fileID string, w io.Writer) error {
	data, ok := f.content[fileID]
	if !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	_, err := w.Write(data)
	return err
}

func (f *fakeDrive) UploadFile(ctx context.Context, folderID, name, mimeType string, r io.Reader) (*drive.File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.uploaded[name] = data
	return &drive.File{ID: "up-" + name, Name: name, MimeType: mimeType}, nil
}

func (f *fakeDrive) FindFolderByPath(ctx context.Context, path string) (string, error) {
	if path == "missing" {
		return "", fmt.Errorf("folder not found: %s", path)
	}
	return "folder-1", nil
}

func workbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

// ============================================================================
// Downloader
// ============================================================================

func TestDownloader_ConvertsWorkbooksAndFiltersNames(t *testing.T) {
	fd := newFakeDrive()
	fd.add("1", "Catalog.xlsx", workbook(t, []interface{}{"SKU", "UPC"}, []interface{}{"A", "123456789012"}))
	fd.add("2", "quota.csv", []byte("SKU,Quota Amount\nA,3\n"))
	fd.add("3", "notes.txt", []byte("ignore"))
	fd.add("4", "other.csv", []byte("x\n1\n"))

	dir := t.TempDir()
	paths, err := drive.NewDownloader(fd).DownloadFolderCSV(context.Background(), drive.DownloadOptions{
		DownloadDir: dir,
		Names:       []string{"catalog", "quota"},
	})

	require.NoError(t, err)
	require.Len(t, paths, 2)

	catalog, err := dataset.ReadCSV(paths["catalog"])
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU", "UPC"}, catalog.Header)
	assert.Equal(t, [][]string{{"A", "123456789012"}}, catalog.Rows)

	assert.Equal(t, filepath.Join(dir, "quota.csv"), paths["quota"])
}

func TestDownloader_RequiresDir(t *testing.T) {
	_, err := drive.NewDownloader(newFakeDrive()).DownloadFolderCSV(context.Background(), drive.DownloadOptions{})
	assert.Error(t, err)
}

// ============================================================================
// Ingest
// ============================================================================

func TestIngestService_ValidatesHeader(t *testing.T) {
	fd := newFakeDrive()
	fd.add("good", "prices.csv", []byte("SKU,Cost\nA,1.50\n"))
	fd.add("bad", "prices.csv", []byte("SKU,Price Tier\nA,1\n"))

	dir := t.TempDir()
	svc := drive.NewIngestService(fd, dir)

	res, err := svc.IngestFile(context.Background(), "good", drive.ReferencePrices, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)
	assert.FileExists(t, drive.ReferencePath(dir, drive.ReferencePrices))

	_, err = svc.IngestFile(context.Background(), "bad", drive.ReferencePrices, false)
	assert.ErrorContains(t, err, "missing required column: Cost")
}

func TestIngestService_Workbook(t *testing.T) {
	fd := newFakeDrive()
	fd.add("wb", "shopify.xlsx", workbook(t, []interface{}{"SKU", "UPCCODE"}, []interface{}{"X123", "012345678905"}))

	res, err := drive.NewIngestService(fd, t.TempDir()).IngestFile(context.Background(), "wb", drive.ReferenceShopify, true)

	require.NoError(t, err)
	assert.Equal(t, drive.ReferenceShopify, res.Kind)
	assert.Equal(t, 1, res.Rows)
}

func TestParseReferenceKind(t *testing.T) {
	kind, err := drive.ParseReferenceKind(" Catalog ")
	require.NoError(t, err)
	assert.Equal(t, drive.ReferenceCatalog, kind)

	_, err = drive.ParseReferenceKind("orders")
	assert.Error(t, err)
}

// ============================================================================
// Publisher
// ============================================================================

func TestPublisher_UploadsByName(t *testing.T) {
	fd := newFakeDrive()
	path := filepath.Join(t.TempDir(), "01-11-2026.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	files, err := drive.NewPublisher(fd, "out").Publish(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", files[0].MimeType)
	assert.Equal(t, []byte("data"), fd.uploaded["01-11-2026.xlsx"])
}

// ============================================================================
// Handler
// ============================================================================

func newRouter(fd *fakeDrive, dir string) *mux.Router {
	router := mux.NewRouter()
	drive.NewHandler(fd, drive.NewIngestService(fd, dir)).RegisterRoutes(router)
	return router
}

func TestHandler_ListFiles(t *testing.T) {
	fd := newFakeDrive()
	fd.add("1", "catalog.csv", nil)
	router := newRouter(fd, t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files?path=inventory", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"catalog.csv"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files?path=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Ingest(t *testing.T) {
	fd := newFakeDrive()
	fd.add("q", "quota.csv", []byte("SKU,Quota,Quota Amount\nA,Wholesale,30\n"))
	router := newRouter(fd, t.TempDir())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drive/ingest/quota?fileId=q", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drive/ingest/orders?fileId=q", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drive/ingest/quota", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Reference sync
// ============================================================================

func TestMatchReferenceKind(t *testing.T) {
	tests := map[string]drive.ReferenceKind{
		"All SKU Shopify":    drive.ReferenceShopify,
		"Retail Quota 2026":  drive.ReferenceQuota,
		"retail_price":       drive.ReferencePrices,
		"SKU Master":         drive.ReferenceCatalog,
		"Product Catalog v2": drive.ReferenceCatalog,
	}
	for name, want := range tests {
		got, ok := drive.MatchReferenceKind(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := drive.MatchReferenceKind("meeting notes")
	assert.False(t, ok)
}

func TestDownloader_SyncReference(t *testing.T) {
	fd := newFakeDrive()
	fd.add("1", "SKU Master.csv", []byte("SKU_standard,UPC,Collection\nA,123456789012,Home\n"))
	fd.add("2", "retail quota.csv", []byte("SKU,Quota Amount\nA,3\n"))
	fd.add("3", "readme.csv", []byte("x\n1\n"))

	dir := t.TempDir()
	got, err := drive.NewDownloader(fd).SyncReference(context.Background(), "folder", dir)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, drive.ReferencePath(dir, drive.ReferenceCatalog), got[drive.ReferenceCatalog])

	quota, err := dataset.ReadCSV(drive.ReferencePath(dir, drive.ReferenceQuota))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "3"}}, quota.Rows)

	_, err = os.Stat(filepath.Join(dir, "incoming", "readme.csv"))
	assert.NoError(t, err)
}
