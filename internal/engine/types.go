package engine

import (
	"context"
	"strconv"
)

// Address is a single resolution request
type Address struct {
	Text string `json:"address"`
	City string `json:"city"`
}

// Ward is the canonical ward row owned by the reference store
type Ward struct {
	ID     int64  `json:"id"`
	Number int    `json:"ward_number"`
	Name   string `json:"ward_name"`
	City   string `json:"city,omitempty"`
}

// WardCandidate is one row of a phonetic ward-name search
type WardCandidate struct {
	Number int     `json:"ward_number"`
	Name   string  `json:"ward_name"`
	Score  float64 `json:"score"`
}

// MohallaCandidate is one row of a fuzzy mohalla search
type MohallaCandidate struct {
	Name   string  `json:"mohalla_name"`
	WardID int64   `json:"ward_id"`
	Score  float64 `json:"score"`
}

// ReferenceStore is the searchable ward/mohalla catalogue. Implementations
// must be safe for concurrent use.
type ReferenceStore interface {
	SearchWardsPhonetic(ctx context.Context, query, city string) ([]WardCandidate, error)
	SearchMohallasFuzzy(ctx context.Context, query, city string) ([]MohallaCandidate, error)
	// GetWardByID reports found=false when no ward row has the id.
	GetWardByID(ctx context.Context, id int64) (ward Ward, found bool, err error)
}

// Basis names the reference collection that produced a resolution
type Basis string

const (
	BasisNone     Basis = ""
	BasisMohalla  Basis = "mohalla"
	BasisWardName Basis = "ward_name"
)

// ReasonInsufficientConfidence is reported when no candidate clears its threshold
const ReasonInsufficientConfidence = "Insufficient confidence"

// ResolvedWard carries the ward fields of a successful resolution
type ResolvedWard struct {
	Number int    `json:"ward_number"`
	Name   string `json:"ward_name"`
	// Mohalla is empty when the basis is ward_name.
	Mohalla    string  `json:"matched_mohalla,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of one resolution. Ward is non-nil exactly when the
// address resolved; Reason is set exactly when it did not.
type Result struct {
	Basis  Basis         `json:"basis,omitempty"`
	Ward   *ResolvedWard `json:"ward,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

// Resolved reports whether a ward was found
func (r Result) Resolved() bool {
	return r.Ward != nil
}

func unresolved(reason string) Result {
	return Result{Reason: reason}
}

func resolvedByMohalla(ward Ward, m *MohallaCandidate) Result {
	return Result{
		Basis: BasisMohalla,
		Ward: &ResolvedWard{
			Number:     ward.Number,
			Name:       ward.Name,
			Mohalla:    m.Name,
			Confidence: round2(m.Score),
		},
	}
}

func resolvedByWardName(w *WardCandidate) Result {
	return Result{
		Basis: BasisWardName,
		Ward: &ResolvedWard{
			Number:     w.Number,
			Name:       w.Name,
			Confidence: round2(w.Score),
		},
	}
}

func round2(score float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(score, 'f', 2, 64), 64)
	return v
}
