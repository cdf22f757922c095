package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hammamikhairi/vibetimer/internal/domain"
)

// ExportFileName is the suggested name for an export written at t.
func ExportFileName(t time.Time) string {
	return "vibe-profiles-" + t.Format("2006-01-02") + ".json"
}

// ExportProfiles writes profiles as an indented JSON array.
func ExportProfiles(w io.Writer, profiles []*domain.Profile) error {
	recs := make([]profileRecord, len(profiles))
	for i, p := range profiles {
		recs[i] = toRecord(p)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}
	return nil
}

// ImportProfiles parses an export. Anything that isn't a JSON array of
// profiles is ErrInvalidImport.
func ImportProfiles(r io.Reader) ([]*domain.Profile, error) {
	var recs []profileRecord
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImport, err)
	}
	out := make([]*domain.Profile, len(recs))
	for i, rec := range recs {
		out[i] = fromRecord(rec)
	}
	return out, nil
}
