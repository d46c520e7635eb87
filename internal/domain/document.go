package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Document is one legal record to be archived.
// Fields outside the known schema are kept in Extra and written back unchanged.
type Document struct {
	ID           string
	Title        string
	Content      string
	Jurisdiction string
	LegalDomain  string
	DocumentType string
	Court        string
	Source       string
	DateFiled    string
	CreatedAt    string
	Metadata     map[string]any
	Extra        map[string]json.RawMessage
}

// JSON field names of the known schema
const (
	fieldID           = "id"
	fieldTitle        = "title"
	fieldContent      = "content"
	fieldJurisdiction = "jurisdiction"
	fieldLegalDomain  = "legal_domain"
	fieldDocumentType = "document_type"
	fieldCourt        = "court"
	fieldSource       = "source"
	fieldDateFiled    = "date_filed"
	fieldCreatedAt    = "created_at"
	fieldMetadata     = "metadata"
)

func (d *Document) stringFields() map[string]*string {
	return map[string]*string{
		fieldID:           &d.ID,
		fieldTitle:        &d.Title,
		fieldContent:      &d.Content,
		fieldJurisdiction: &d.Jurisdiction,
		fieldLegalDomain:  &d.LegalDomain,
		fieldDocumentType: &d.DocumentType,
		fieldCourt:        &d.Court,
		fieldSource:       &d.Source,
		fieldDateFiled:    &d.DateFiled,
		fieldCreatedAt:    &d.CreatedAt,
	}
}

// UnmarshalJSON decodes a document, tolerating null for any known string field
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Document{}
	for name, dst := range d.stringFields() {
		value, ok := raw[name]
		if !ok {
			continue
		}
		delete(raw, name)
		if isNull(value) {
			continue
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}

	if value, ok := raw[fieldMetadata]; ok {
		delete(raw, fieldMetadata)
		if !isNull(value) {
			if err := json.Unmarshal(value, &d.Metadata); err != nil {
				return fmt.Errorf("field %s: %w", fieldMetadata, err)
			}
		}
	}

	if len(raw) > 0 {
		d.Extra = raw
	}
	return nil
}

// MarshalJSON encodes the document. Keys come out sorted, which keeps files diffable.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+11)
	for k, v := range d.Extra {
		out[k] = v
	}
	for name, src := range d.stringFields() {
		switch name {
		case fieldID, fieldTitle, fieldContent:
			out[name] = *src
		default:
			if *src != "" {
				out[name] = *src
			}
		}
	}
	if d.Metadata != nil {
		out[fieldMetadata] = d.Metadata
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Encode renders the document as indented UTF-8 JSON without HTML escaping
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeDocument parses a single JSON document
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ContentHash returns the SHA-256 hex digest of the document content,
// or "" when there is no content to compare
func (d *Document) ContentHash() string {
	if d.Content == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(d.Content))
	return hex.EncodeToString(sum[:])
}

// ContentLength returns the content length in characters
func (d *Document) ContentLength() int {
	return utf8.RuneCountInString(d.Content)
}

// Clone returns a copy whose maps can be modified independently
func (d *Document) Clone() *Document {
	c := *d
	if d.Metadata != nil {
		c.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	if d.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(d.Extra))
		for k, v := range d.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// Incoming is a document handed over by a producer, with the name of where it came from.
// Err is set when the producer found a record it could not decode.
type Incoming struct {
	Document *Document
	Origin   string
	Err      error
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
