package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// Repository implements ports.LeafStore on a directory tree
type Repository struct {
	root string
}

// Ensure Repository implements LeafStore
var _ ports.LeafStore = (*Repository)(nil)

// NewRepository creates a new filesystem repository
func NewRepository(root string) *Repository {
	// Expand ~ to home directory
	if strings.HasPrefix(root, "~") {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, root[1:])
	}
	return &Repository{root: root}
}

// Root returns the repository root directory
func (r *Repository) Root() string {
	return r.root
}

// AbsPath returns the filesystem path of a slash-separated relative path
func (r *Repository) AbsPath(relPath string) string {
	return filepath.Join(r.root, filepath.FromSlash(relPath))
}

// ScanFamily counts the documents of every leaf in key's family
func (r *Repository) ScanFamily(key domain.BucketKey) (*domain.LeafFamily, error) {
	family := domain.NewLeafFamily(key)
	primaryDir := r.AbsPath(key.RelDir())

	entries, err := os.ReadDir(primaryDir)
	if errors.Is(err, fs.ErrNotExist) {
		return family, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leaf: %w", err)
	}

	family.Ensure(0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			n, ok := domain.ParseBatchDir(name)
			if !ok {
				continue
			}
			family.Ensure(n)
			if err := r.scanBatch(family, filepath.Join(primaryDir, name), n); err != nil {
				return nil, err
			}
			continue
		}
		if id, ok := documentID(entry); ok {
			family.Add(0, id)
		}
	}
	return family, nil
}

func (r *Repository) scanBatch(family *domain.LeafFamily, dir string, batch int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read batch: %w", err)
	}
	for _, entry := range entries {
		if id, ok := documentID(entry); ok {
			family.Add(batch, id)
		}
	}
	return nil
}

// ListBuckets returns every date/category/subcategory directory, sorted
func (r *Repository) ListBuckets() ([]domain.BucketKey, error) {
	dateRanges, err := listDirs(r.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read repository: %w", err)
	}

	var keys []domain.BucketKey
	for _, dr := range dateRanges {
		categories, err := listDirs(filepath.Join(r.root, dr))
		if err != nil {
			return nil, fmt.Errorf("failed to read date range: %w", err)
		}
		for _, cat := range categories {
			subcategories, err := listDirs(filepath.Join(r.root, dr, cat))
			if err != nil {
				return nil, fmt.Errorf("failed to read category: %w", err)
			}
			for _, sub := range subcategories {
				keys = append(keys, domain.BucketKey{DateRange: dr, Category: cat, Subcategory: sub})
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].RelDir() < keys[j].RelDir()
	})
	return keys, nil
}

// CountPerDir returns the number of document files in every directory that
// holds at least one, keyed by slash-separated relative path
func (r *Repository) CountPerDir() (map[string]int, error) {
	counts := make(map[string]int)
	if _, err := os.Stat(r.root); errors.Is(err, fs.ErrNotExist) {
		return counts, nil
	}
	err := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != r.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		dir := filepath.Dir(p)
		if dir == r.root && isArtifact(d.Name()) {
			return nil
		}
		if _, ok := documentID(d); !ok {
			return nil
		}
		rel, err := filepath.Rel(r.root, dir)
		if err != nil {
			return err
		}
		counts[filepath.ToSlash(rel)]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk repository: %w", err)
	}
	return counts, nil
}

// WriteDocument writes data as leaf/{id}.json. The file appears atomically
// and an existing file is never replaced: that case returns fs.ErrExist.
func (r *Repository) WriteDocument(leaf domain.Leaf, id string, data []byte) (string, error) {
	rel := leaf.DocumentPath(id)
	target := r.AbsPath(rel)
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create leaf: %w", err)
	}
	if _, err := os.Lstat(target); err == nil {
		return "", fmt.Errorf("%s: %w", rel, fs.ErrExist)
	}

	tmp, err := writeTemp(dir, id, data)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	// A hard link fails if the target exists, unlike rename
	if err := os.Link(tmp, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s: %w", rel, fs.ErrExist)
		}
		if err := os.Rename(tmp, target); err != nil {
			return "", fmt.Errorf("failed to write document: %w", err)
		}
	}
	return rel, nil
}

// ReadDocument reads a full document
func (r *Repository) ReadDocument(relPath string) (*domain.Document, error) {
	data, err := os.ReadFile(r.AbsPath(relPath))
	if err != nil {
		return nil, err
	}
	doc, err := domain.DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", relPath, err)
	}
	return doc, nil
}

// catalogRecord decodes only the indexable fields of a document
type catalogRecord struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Jurisdiction string      `json:"jurisdiction"`
	LegalDomain  string      `json:"legal_domain"`
	DocumentType string      `json:"document_type"`
	Source       string      `json:"source"`
	CreatedAt    string      `json:"created_at"`
	Content      runeCounter `json:"content"`
}

// runeCounter measures a JSON string without keeping it
type runeCounter int

func (c *runeCounter) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = 0
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = runeCounter(utf8.RuneCountInString(s))
	return nil
}

// ReadCatalogEntry reads the catalog fields of a document
func (r *Repository) ReadCatalogEntry(relPath string) (domain.CatalogEntry, error) {
	f, err := os.Open(r.AbsPath(relPath))
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	defer f.Close()

	var rec catalogRecord
	if err := json.NewDecoder(f).Decode(&rec); err != nil {
		return domain.CatalogEntry{}, fmt.Errorf("invalid json: %w", err)
	}
	return domain.CatalogEntry{
		ID:            rec.ID,
		Title:         rec.Title,
		Jurisdiction:  rec.Jurisdiction,
		LegalDomain:   rec.LegalDomain,
		DocumentType:  rec.DocumentType,
		Source:        rec.Source,
		FilePath:      relPath,
		ContentLength: int(rec.Content),
		CreatedAt:     rec.CreatedAt,
	}, nil
}

// WriteArtifact atomically replaces a file at the repository root
func (r *Repository) WriteArtifact(name string, data []byte) error {
	if err := os.MkdirAll(r.root, 0755); err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	tmp, err := writeTemp(r.root, name, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, filepath.Join(r.root, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// ReadArtifact reads a file at the repository root
func (r *Repository) ReadArtifact(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(r.root, name))
}

// BuildTree builds the top level of the repository tree
func (r *Repository) BuildTree() (*domain.TreeNode, error) {
	root := &domain.TreeNode{
		Kind:       domain.NodeRoot,
		Name:       filepath.Base(r.root),
		IsExpanded: true,
	}
	if err := r.LoadChildren(root); err != nil {
		return nil, err
	}
	return root, nil
}

// LoadChildren loads children for a node
func (r *Repository) LoadChildren(node *domain.TreeNode) error {
	if node.Loaded {
		return nil
	}

	dir := r.AbsPath(node.RelPath)
	switch node.Kind {
	case domain.NodeRoot, domain.NodeDateRange, domain.NodeCategory:
		names, err := listDirs(dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", node.RelPath, err)
		}
		childKind := node.Kind + 1
		for _, name := range names {
			child := &domain.TreeNode{Kind: childKind, Name: name, RelPath: path.Join(node.RelPath, name)}
			if childKind == domain.NodeSubcategory {
				child.Count = r.countDocuments(r.AbsPath(child.RelPath))
			}
			node.AddChild(child)
		}

	case domain.NodeSubcategory, domain.NodeBatch:
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", node.RelPath, err)
		}
		for _, entry := range entries {
			rel := path.Join(node.RelPath, entry.Name())
			if entry.IsDir() {
				if node.Kind == domain.NodeSubcategory && domain.IsBatchDir(entry.Name()) {
					node.AddChild(&domain.TreeNode{
						Kind:    domain.NodeBatch,
						Name:    entry.Name(),
						RelPath: rel,
						Count:   r.countDocuments(r.AbsPath(rel)),
					})
				}
				continue
			}
			if _, ok := documentID(entry); ok {
				node.AddChild(&domain.TreeNode{Kind: domain.NodeDocument, Name: entry.Name(), RelPath: rel})
			}
		}
		node.SortChildren()
	}

	node.Loaded = true
	return nil
}

func (r *Repository) countDocuments(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if _, ok := documentID(entry); ok {
			n++
		}
	}
	return n
}

// listDirs returns the visible, non-batch subdirectories of dir, sorted
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || domain.IsBatchDir(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func documentID(entry fs.DirEntry) (string, bool) {
	if !entry.Type().IsRegular() {
		return "", false
	}
	return domain.DocumentIDFromFile(entry.Name())
}

func isArtifact(name string) bool {
	return name == domain.IndexFileName || name == domain.CatalogFileName
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmp, nil
}
