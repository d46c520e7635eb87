package ports

import "lexshelf/internal/domain"

// LeafStore defines the interface for the on-disk leaf tree
type LeafStore interface {
	Root() string

	// Scan operations
	ScanFamily(key domain.BucketKey) (*domain.LeafFamily, error)
	ListBuckets() ([]domain.BucketKey, error)
	CountPerDir() (map[string]int, error)

	// Document operations
	WriteDocument(leaf domain.Leaf, id string, data []byte) (string, error)
	ReadDocument(relPath string) (*domain.Document, error)
	ReadCatalogEntry(relPath string) (domain.CatalogEntry, error)

	// Derived artifacts at the repository root
	WriteArtifact(name string, data []byte) error
	ReadArtifact(name string) ([]byte, error)

	// Tree operations
	BuildTree() (*domain.TreeNode, error)
	LoadChildren(node *domain.TreeNode) error

	// Path resolution
	AbsPath(relPath string) string
}
