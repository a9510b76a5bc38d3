package gateway

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
)

// InvoiceDirectoryRepository enumerates invoice files below a directory.
type InvoiceDirectoryRepository struct {
	extensions map[string]bool
	exclude    []string
}

// NewInvoiceDirectoryRepository creates a new repository instance. Extensions
// are matched case-insensitively; a missing leading dot is added.
func NewInvoiceDirectoryRepository(cfg config.InvoiceConfig) *InvoiceDirectoryRepository {
	exts := make(map[string]bool, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &InvoiceDirectoryRepository{extensions: exts, exclude: cfg.ExcludeDirKeywords}
}

// ListInvoices walks dir in lexical order and returns one descriptor per file
// with a matching extension. Subdirectories whose path below dir contains an
// excluded keyword (construction work, payment assessment) are skipped.
func (r *InvoiceDirectoryRepository) ListInvoices(ctx context.Context, dir string) ([]domain.InvoiceDescriptor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.NewInputError(dir, domain.ErrInvoiceDirUnreadable, err.Error())
	}
	if !info.IsDir() {
		return nil, domain.NewInputError(dir, domain.ErrInvoiceDirUnreadable, "not a directory")
	}

	var descriptors []domain.InvoiceDescriptor
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && r.excluded(dir, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !r.extensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		descriptors = append(descriptors, domain.InvoiceDescriptor{Name: d.Name(), Path: path})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domain.NewInputError(dir, domain.ErrInvoiceDirUnreadable, err.Error())
	}
	return descriptors, nil
}

func (r *InvoiceDirectoryRepository) excluded(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, kw := range r.exclude {
		if kw != "" && strings.Contains(rel, kw) {
			return true
		}
	}
	return false
}
