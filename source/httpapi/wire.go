package httpapi

import (
	"time"

	"github.com/mwantia/snaptree/data"
)

// Wire representation of the children endpoint payload. Kinds and
// change classifications travel as their string names.

type childrenResponse struct {
	RequestID string      `json:"requestId,omitempty"`
	Parent    string      `json:"parent"`
	Entries   []wireEntry `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type wireEntry struct {
	ID              int64      `json:"id"`
	Path            string     `json:"path"`
	Name            string     `json:"name"`
	Kind            string     `json:"kind"`
	IsDeleted       bool       `json:"isDeleted,omitempty"`
	Size            *int64     `json:"size,omitempty"`
	ModifiedAt      *time.Time `json:"modifiedAt,omitempty"`
	Change          string     `json:"change"`
	ChildCount      int64      `json:"childCount,omitempty"`
	DescendantTotal int64      `json:"descendantTotal,omitempty"`
}

func toWire(entry data.Entry) wireEntry {
	return wireEntry{
		ID:              entry.ID,
		Path:            entry.Path,
		Name:            entry.Name,
		Kind:            entry.Kind.String(),
		IsDeleted:       entry.IsDeleted,
		Size:            entry.Size,
		ModifiedAt:      entry.ModifiedAt,
		Change:          entry.Change.String(),
		ChildCount:      entry.ChildCount,
		DescendantTotal: entry.DescendantTotal,
	}
}

func fromWire(wire wireEntry) data.Entry {
	return data.Entry{
		ID:              wire.ID,
		Path:            wire.Path,
		Name:            wire.Name,
		Kind:            data.ParseEntryKind(wire.Kind),
		IsDeleted:       wire.IsDeleted,
		Size:            wire.Size,
		ModifiedAt:      wire.ModifiedAt,
		Change:          data.ParseChangeClassification(wire.Change),
		ChildCount:      wire.ChildCount,
		DescendantTotal: wire.DescendantTotal,
	}
}
