package cargo

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveArrangement_WritesFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "Item ID,Container ID\nI1,C1\n")
	})
	path := filepath.Join(t.TempDir(), "out", ExportFilename)

	n, err := SaveArrangement(testContext(t), c, path)
	if err != nil {
		t.Fatalf("SaveArrangement returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "Item ID,Container ID\nI1,C1\n" || n != int64(len(data)) {
		t.Fatalf("export = %d %q", n, data)
	}
}

func TestSaveArrangement_FailureLeavesNothing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"no arrangement"}`, http.StatusInternalServerError)
	})
	dir := t.TempDir()
	path := filepath.Join(dir, ExportFilename)

	_, err := SaveArrangement(testContext(t), c, path)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v, want RequestError 500", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("export dir not empty: %v", entries)
	}
}
