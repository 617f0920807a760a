package export

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/pricelens/backend/internal/domain"
)

// JSONFileSource reads listings from a JSON file holding either an array of
// listings or an object with a "listings" array.
type JSONFileSource struct {
	Path string
}

// Load implements domain.ListingSource.
func (s JSONFileSource) Load(ctx context.Context) ([]domain.RawListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: read %s", s.Path)
	}

	listings, err := DecodeListings(data)
	if err != nil {
		return nil, eris.Wrapf(err, "export: decode %s", s.Path)
	}
	return listings, nil
}

// DecodeListings parses a JSON array of listings or a {"listings": [...]} envelope.
func DecodeListings(data []byte) ([]domain.RawListing, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, eris.Wrap(domain.ErrInvalidRequest, "empty listing document")
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Listings []domain.RawListing `json:"listings"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, eris.Wrapf(domain.ErrInvalidRequest, "listing envelope: %v", err)
		}
		if envelope.Listings == nil {
			return []domain.RawListing{}, nil
		}
		return envelope.Listings, nil
	}

	var listings []domain.RawListing
	if err := json.Unmarshal(trimmed, &listings); err != nil {
		return nil, eris.Wrapf(domain.ErrInvalidRequest, "listing array: %v", err)
	}
	if listings == nil {
		listings = []domain.RawListing{}
	}
	return listings, nil
}

// WriteJSON writes the report record as indented JSON.
func WriteJSON(w io.Writer, record *domain.ReportRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(record), "export: encode report")
}
