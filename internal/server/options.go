package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"example.com/cansubmit/internal/common"
	"example.com/cansubmit/internal/store"
)

// Options configures server creation.
type Options struct {
	// CatalogPath locates the YAML catalog data file. A missing or broken
	// catalog degrades the catalog endpoints instead of failing startup.
	CatalogPath string
	// StorageDir roots the submission log, the JSON exports, and the
	// receipt PDFs.
	StorageDir string
	// DisableReceipts turns off receipt PDF generation.
	DisableReceipts bool
}

// NewServer constructs a Server rooted at the storage directory.
func NewServer(opts Options) (*Server, error) {
	storageDir := strings.TrimSpace(opts.StorageDir)
	if storageDir == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, err
	}

	catalogPath := strings.TrimSpace(opts.CatalogPath)
	var cat *store.Catalog
	if catalogPath != "" {
		loaded, err := store.LoadCatalog(catalogPath)
		if err != nil {
			common.Logf("catalog %s unavailable: %v", catalogPath, err)
		} else {
			cat = loaded
		}
	}

	log, err := store.OpenSubmissionLog(
		filepath.Join(storageDir, "submissions.jsonl"),
		filepath.Join(storageDir, "exports"),
	)
	if err != nil {
		return nil, err
	}

	receiptDir := ""
	if !opts.DisableReceipts {
		receiptDir = filepath.Join(storageDir, "receipts")
		if err := os.MkdirAll(receiptDir, 0o755); err != nil {
			return nil, err
		}
	}

	return &Server{
		catalog:     cat,
		catalogPath: catalogPath,
		submissions: log,
		receiptDir:  receiptDir,
		metrics:     common.NewMetrics(),
	}, nil
}
