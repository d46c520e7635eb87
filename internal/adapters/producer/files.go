package producer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// FileProducer emits every JSON document under a directory tree, in lexical
// path order. Hidden entries and repository artifacts are skipped.
// A document without id takes the file name stem.
type FileProducer struct {
	root string
}

// Ensure FileProducer implements DocumentProducer
var _ ports.DocumentProducer = (*FileProducer)(nil)

// NewFileProducer creates a producer reading from root. root may also be a single file.
func NewFileProducer(root string) *FileProducer {
	return &FileProducer{root: root}
}

// Name identifies the source in logs
func (p *FileProducer) Name() string {
	return "files:" + p.root
}

// Produce walks the tree and calls emit for each document file
func (p *FileProducer) Produce(ctx context.Context, emit func(domain.Incoming) error) error {
	info, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	if !info.IsDir() {
		return emit(readIncoming(p.root))
	}

	return filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			if path != p.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isDocumentFile(d.Name()) {
			return nil
		}
		return emit(readIncoming(path))
	})
}

// isDocumentFile reports whether name looks like a document rather than an artifact
func isDocumentFile(name string) bool {
	if _, ok := domain.DocumentIDFromFile(name); !ok {
		return false
	}
	return name != domain.IndexFileName && name != domain.CatalogFileName
}

// readIncoming reads and decodes one file. Failures are carried in Err.
func readIncoming(path string) domain.Incoming {
	in := domain.Incoming{Origin: path}

	data, err := os.ReadFile(path)
	if err != nil {
		in.Err = err
		return in
	}
	doc, err := domain.DecodeDocument(data)
	if err != nil {
		in.Err = fmt.Errorf("invalid JSON: %w", err)
		return in
	}
	if doc.ID == "" {
		doc.ID, _ = domain.DocumentIDFromFile(filepath.Base(path))
	}
	in.Document = doc
	return in
}
