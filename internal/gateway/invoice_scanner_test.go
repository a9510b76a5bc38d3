package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation/internal/config"
	"invoice-reconciliation/internal/domain"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		path := filepath.Join(root, r)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	}
}

func names(descriptors []domain.InvoiceDescriptor) []string {
	out := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Name)
	}
	return out
}

func TestInvoiceDirectoryRepository_ListInvoices(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"20251210_請求書_丸紅_480000.PDF",
		"20251205_請求書_新明電材_500000.pdf",
		"memo.txt",
		"sub/20251215_請求書_木谷電器_20000.pdf",
		"工事/20251201_請求書_北電工_1000.pdf",
		"sub/支払査定書/20251201_請求書_北電工_2000.pdf",
	)

	got, err := NewInvoiceDirectoryRepository(config.Default().Invoices).ListInvoices(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"20251205_請求書_新明電材_500000.pdf",
		"20251210_請求書_丸紅_480000.PDF",
		"20251215_請求書_木谷電器_20000.pdf",
	}, names(got))
	assert.Equal(t, filepath.Join(root, "sub", "20251215_請求書_木谷電器_20000.pdf"), got[2].Path)
}

func TestInvoiceDirectoryRepository_Config(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a_b_c_1.pdf", "a_b_c_2.xlsx", "工事/a_b_c_3.pdf")

	t.Run("extensions without dot", func(t *testing.T) {
		cfg := config.InvoiceConfig{Extensions: []string{"XLSX", " pdf "}}

		got, err := NewInvoiceDirectoryRepository(cfg).ListInvoices(context.Background(), root)
		require.NoError(t, err)
		assert.Equal(t, []string{"a_b_c_1.pdf", "a_b_c_2.xlsx", "a_b_c_3.pdf"}, names(got))
	})

	t.Run("root path containing a keyword is still walked", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "工事請求書")
		touch(t, dir, "a_b_c_1.pdf")

		got, err := NewInvoiceDirectoryRepository(config.Default().Invoices).ListInvoices(context.Background(), dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"a_b_c_1.pdf"}, names(got))
	})

	t.Run("empty directory", func(t *testing.T) {
		got, err := NewInvoiceDirectoryRepository(config.Default().Invoices).ListInvoices(context.Background(), t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestInvoiceDirectoryRepository_Errors(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "file.pdf")
	repo := NewInvoiceDirectoryRepository(config.Default().Invoices)

	t.Run("missing directory", func(t *testing.T) {
		_, err := repo.ListInvoices(context.Background(), filepath.Join(root, "nope"))
		assert.ErrorIs(t, err, domain.ErrInvoiceDirUnreadable)
	})

	t.Run("path is a file", func(t *testing.T) {
		_, err := repo.ListInvoices(context.Background(), filepath.Join(root, "file.pdf"))
		assert.ErrorIs(t, err, domain.ErrInvoiceDirUnreadable)
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := repo.ListInvoices(ctx, root)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
