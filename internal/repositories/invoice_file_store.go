package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"payfastBack/internal/models"
)

// DocumentURLPrefix is where the file backend serves documents from.
const DocumentURLPrefix = "/invoices/"

// FileInvoiceStore keeps <no>.pdf and <no>.json side by side in one directory.
type FileInvoiceStore struct {
	dir string
}

func NewFileInvoiceStore(dir string) (*FileInvoiceStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create invoice dir: %w", err)
	}
	return &FileInvoiceStore{dir: dir}, nil
}

func (s *FileInvoiceStore) Dir() string { return s.dir }

// Save writes the document first, then the record. Each file is replaced atomically.
func (s *FileInvoiceStore) Save(ctx context.Context, inv models.Invoice, document []byte) (models.InvoiceLocations, error) {
	if err := ValidateInvoiceNo(inv.InvoiceNo); err != nil {
		return models.InvoiceLocations{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.InvoiceLocations{}, err
	}
	record, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return models.InvoiceLocations{}, fmt.Errorf("marshal invoice: %w", err)
	}

	docPath := filepath.Join(s.dir, documentName(inv.InvoiceNo))
	recPath := filepath.Join(s.dir, recordName(inv.InvoiceNo))
	if err := writeFileAtomic(docPath, document); err != nil {
		return models.InvoiceLocations{}, err
	}
	if err := writeFileAtomic(recPath, record); err != nil {
		return models.InvoiceLocations{}, err
	}
	return models.InvoiceLocations{
		RecordPath:   recPath,
		DocumentPath: docPath,
		FileURL:      DocumentURLPrefix + documentName(inv.InvoiceNo),
	}, nil
}

func (s *FileInvoiceStore) Load(ctx context.Context, invoiceNo string) (models.Invoice, error) {
	data, err := s.read(ctx, recordName, invoiceNo)
	if err != nil {
		return models.Invoice{}, err
	}
	var inv models.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return models.Invoice{}, fmt.Errorf("decode invoice %s: %w", invoiceNo, err)
	}
	return inv, nil
}

func (s *FileInvoiceStore) LoadDocument(ctx context.Context, invoiceNo string) ([]byte, error) {
	return s.read(ctx, documentName, invoiceNo)
}

func (s *FileInvoiceStore) read(ctx context.Context, name func(string) string, invoiceNo string) ([]byte, error) {
	if err := ValidateInvoiceNo(invoiceNo); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name(invoiceNo)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read invoice %s: %w", invoiceNo, err)
	}
	return data, nil
}

// DocumentHandler serves stored PDFs read-only. Mount it with the
// DocumentURLPrefix stripped; anything but <no>.pdf is a 404.
func (s *FileInvoiceStore) DocumentHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(r.URL.Path, "/")
		no, ok := strings.CutSuffix(name, ".pdf")
		if !ok || ValidateInvoiceNo(no) != nil {
			http.NotFound(w, r)
			return
		}
		f, err := os.Open(filepath.Join(s.dir, name))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil || st.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		http.ServeContent(w, r, name, st.ModTime(), f)
	})
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
