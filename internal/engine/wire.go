package engine

import (
	"bytes"
	"encoding/json"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ErrMalformedInput marks an atom collection that does not match the expected
// shape. The whole call fails; no partial results are produced.
var ErrMalformedInput = errors.New("malformed input")

// wireAtom is the host record shape. Required fields are pointers so absence
// can be told apart from zero values.
type wireAtom struct {
	ID              *string
	Type            *string
	UpdatedAt       *float64
	CreatedAt       *float64
	Status          *string
	Links           []*string
	DueDate         *float64
	PinnedTier      *string
	PinnedStaleness *bool
	Importance      *float64
	Energy          *string
	Content         *string
}

// decode fills w from a record's members. Keys match exactly; encoding/json's
// case-insensitive field matching would accept "ID" or "Updated_At".
func (w *wireAtom) decode(raw json.RawMessage) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return errors.Wrapf(ErrMalformedInput, "%v", err)
	}

	fields := []struct {
		key string
		dst any
	}{
		{"id", &w.ID},
		{"type", &w.Type},
		{"updated_at", &w.UpdatedAt},
		{"created_at", &w.CreatedAt},
		{"status", &w.Status},
		{"links", &w.Links},
		{"due_date", &w.DueDate},
		{"pinned_tier", &w.PinnedTier},
		{"pinned_staleness", &w.PinnedStaleness},
		{"importance", &w.Importance},
		{"energy", &w.Energy},
		{"content", &w.Content},
	}
	for _, f := range fields {
		v, ok := members[f.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return errors.Wrapf(ErrMalformedInput, "field %q: %v", f.key, err)
		}
	}

	for i, l := range w.Links {
		if l == nil {
			return errors.Wrapf(ErrMalformedInput, "field %q: element %d is null", "links", i)
		}
	}
	return nil
}

// DecodeAtoms reads a JSON array of atom records. Anything after the array
// is malformed input.
func DecodeAtoms(r io.Reader) ([]Atom, error) {
	dec := json.NewDecoder(r)
	var raws []json.RawMessage
	if err := dec.Decode(&raws); err != nil {
		return nil, errors.Wrapf(ErrMalformedInput, "decode atoms: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(ErrMalformedInput, "decode atoms: trailing data after array")
	}
	return ParseAtoms(raws)
}

// DecodeAtomsYAML reads a YAML sequence of atom records with the same field
// names as the JSON form.
func DecodeAtomsYAML(r io.Reader) ([]Atom, error) {
	data, err := YAMLToJSON(r)
	if err != nil {
		return nil, err
	}
	return DecodeAtoms(bytes.NewReader(data))
}

// YAMLToJSON converts a YAML sequence of atom records into the JSON array
// form accepted by DecodeAtoms and the HTTP API.
func YAMLToJSON(r io.Reader) ([]byte, error) {
	var docs []map[string]any
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		return nil, errors.Wrapf(ErrMalformedInput, "decode yaml atoms: %v", err)
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedInput, "convert yaml atoms: %v", err)
	}
	return data, nil
}

// ParseAtoms validates and converts raw records. A JSON null array yields an
// empty collection.
func ParseAtoms(raws []json.RawMessage) ([]Atom, error) {
	atoms := make([]Atom, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for i, raw := range raws {
		var w wireAtom
		if err := w.decode(raw); err != nil {
			return nil, errors.Wrapf(err, "atom %d", i)
		}
		a, err := w.toAtom()
		if err != nil {
			return nil, errors.Wrapf(err, "atom %d", i)
		}
		if seen[a.ID] {
			return nil, errors.Wrapf(ErrMalformedInput, "atom %d: duplicate id %q", i, a.ID)
		}
		seen[a.ID] = true
		atoms = append(atoms, a)
	}
	return atoms, nil
}

func (w *wireAtom) toAtom() (Atom, error) {
	switch {
	case w.ID == nil:
		return Atom{}, missing("id")
	case w.Type == nil:
		return Atom{}, missing("type")
	case w.UpdatedAt == nil:
		return Atom{}, missing("updated_at")
	case w.CreatedAt == nil:
		return Atom{}, missing("created_at")
	case w.Status == nil:
		return Atom{}, missing("status")
	}

	for _, f := range []struct {
		name string
		ts   *float64
	}{
		{"updated_at", w.UpdatedAt},
		{"created_at", w.CreatedAt},
		{"due_date", w.DueDate},
	} {
		if f.ts != nil && !validTimestamp(*f.ts) {
			return Atom{}, errors.Wrapf(ErrMalformedInput, "field %q: invalid timestamp %v", f.name, *f.ts)
		}
	}
	if w.Importance != nil && math.IsNaN(*w.Importance) {
		return Atom{}, errors.Wrapf(ErrMalformedInput, "field %q: not a number", "importance")
	}

	a := Atom{
		ID:         *w.ID,
		Kind:       *w.Type,
		UpdatedAt:  *w.UpdatedAt,
		CreatedAt:  *w.CreatedAt,
		Status:     *w.Status,
		Links:      derefLinks(w.Links),
		DueDate:    w.DueDate,
		PinnedTier: w.PinnedTier,
		Importance: w.Importance,
		Energy:     w.Energy,
	}
	if w.PinnedStaleness != nil {
		a.PinnedStaleness = *w.PinnedStaleness
	}
	if w.Content != nil {
		a.Content = *w.Content
	}
	return a, nil
}

func derefLinks(ls []*string) []string {
	if ls == nil {
		return nil
	}
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = *l
	}
	return out
}

func missing(field string) error {
	return errors.Wrapf(ErrMalformedInput, "missing required field %q", field)
}

func validTimestamp(ms float64) bool {
	return ms >= 0 && !math.IsInf(ms, 0) && !math.IsNaN(ms)
}
