// Package diagram defines the JSON wire format for box-in-box documents.
//
// A document is a flat node list plus the settings the geometry was derived
// under. Nodes appear in snapshot order, which the packing algorithms use as
// the sibling order, so a round trip through the format reproduces the exact
// same layout.
package diagram

import (
	"encoding/json"
	"io"
	"os"

	"github.com/ThomasRohde/domain-designer-sub000/pkg/errors"
	"github.com/ThomasRohde/domain-designer-sub000/pkg/model"
)

// CurrentVersion is the wire format version this package writes.
const CurrentVersion = 1

// Document is the serialized form of a diagram.
type Document struct {
	// Version is the wire format version. Zero is read as version 1.
	Version int `json:"version"`

	// Algorithm names the packing algorithm the geometry was derived under.
	// Informational on read: the engine's active config wins.
	Algorithm string `json:"algorithm,omitempty"`

	// Nodes is the flat node list in sibling (packing) order.
	Nodes []model.Node `json:"nodes"`
}

// FromSnapshot converts a snapshot into its wire form.
func FromSnapshot(s *model.Snapshot, algorithm string) Document {
	nodes := s.Nodes()
	out := Document{
		Version:   CurrentVersion,
		Algorithm: algorithm,
		Nodes:     make([]model.Node, len(nodes)),
	}
	for i, n := range nodes {
		out.Nodes[i] = *n
	}
	return out
}

// ToSnapshot materializes a document into a validated snapshot.
// Node order is preserved. Structural problems (duplicate ids, dangling
// parents, cycles, non-positive sizes) come back as INVALID_FORMAT.
func ToSnapshot(d Document) (*model.Snapshot, error) {
	if d.Version > CurrentVersion {
		return nil, errors.New(errors.ErrCodeUnsupported, "document version %d is newer than supported version %d", d.Version, CurrentVersion)
	}
	s := model.New()
	for _, n := range d.Nodes {
		if err := s.Add(n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %s", n.ID)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid hierarchy")
	}
	s.RefreshVariants()
	return s, nil
}

// Write encodes a document as indented JSON.
func Write(d Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode diagram")
	}
	return nil
}

// Read decodes a document from r. Read does not close r.
func Read(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode diagram")
	}
	return d, nil
}

// Export writes a document to a JSON file at path.
func Export(d Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return Write(d, f)
}

// Import reads the JSON file at path and materializes the snapshot.
func Import(path string) (*model.Snapshot, Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, Document{}, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, Document{}, errors.Wrap(errors.GetCode(err), err, "import %s", path)
	}
	s, err := ToSnapshot(d)
	if err != nil {
		return nil, Document{}, err
	}
	return s, d, nil
}
