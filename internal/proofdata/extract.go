package proofdata

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/postproof/internal/logging"
)

// PostData is the flattened record rendered after a successful verification.
// It is recomputed on demand from the current proof sequence and never
// mutated in place.
type PostData struct {
	Username  string `json:"username,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Image     string `json:"image,omitempty"`
	Video     string `json:"video,omitempty"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
	MediaCode string `json:"media_code,omitempty"`
}

// Extractor flattens proof sequences into PostData records. Per-field decode
// failures are logged and replaced with zero values; they never fail the
// overall extraction.
type Extractor struct {
	log logging.Logger
}

func NewExtractor(log logging.Logger) *Extractor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Extractor{log: log}
}

// PostData merges proofs left to right with first-non-empty-wins semantics
// per field. Returns nil only for an empty input.
func (e *Extractor) PostData(ctx context.Context, proofs []Proof) *PostData {
	if len(proofs) == 0 {
		return nil
	}

	out := &PostData{}
	for i := range proofs {
		p := &proofs[i]

		mergeString(&out.Caption, p.PublicData["caption"])
		mergeString(&out.Image, p.PublicData["image"])
		mergeString(&out.Video, p.PublicData["video"])

		params, err := p.ExtractedParameters()
		if err != nil {
			// Treated as absent: the remaining proofs may still fill the gaps.
			e.log.Debug(ctx, "skipping unparseable claim context", "proof", i, "error", err)
			continue
		}

		mergeString(&out.Username, params["username"])
		mergeString(&out.MediaCode, params["media_code"])
		mergeString(&out.Caption, params["caption"])
		mergeString(&out.Image, params["image"])
		mergeString(&out.Video, params["video"])

		if out.Likes == 0 {
			out.Likes = e.nestedCount(ctx, i, "like_count", params["like_count"])
		}
		if out.Comments == 0 {
			out.Comments = e.nestedCount(ctx, i, "comment_count", params["comment_count"])
		}
	}
	return out
}

// nestedCountEnvelope matches the doubly-nested encoding the provider uses
// for numeric counters: {"value":{"results":[{"total_value":N}]}}.
type nestedCountEnvelope struct {
	Value struct {
		Results []struct {
			TotalValue json.Number `json:"total_value"`
		} `json:"results"`
	} `json:"value"`
}

// nestedCount decodes one counter field. Any decode or shape failure yields 0
// for that field only.
func (e *Extractor) nestedCount(ctx context.Context, proofIdx int, field, raw string) int {
	if raw == "" {
		return 0
	}
	var env nestedCountEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		e.log.Debug(ctx, "defaulting malformed counter to zero", "proof", proofIdx, "field", field, "error", err)
		return 0
	}
	if len(env.Value.Results) == 0 {
		e.log.Debug(ctx, "defaulting counter with empty results to zero", "proof", proofIdx, "field", field)
		return 0
	}
	n, err := env.Value.Results[0].TotalValue.Int64()
	if err != nil || n < 0 {
		e.log.Debug(ctx, "defaulting non-integer counter to zero", "proof", proofIdx, "field", field)
		return 0
	}
	return int(n)
}

func mergeString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
