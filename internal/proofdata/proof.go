// Package proofdata models the opaque attestation proofs returned by the
// verification service and flattens them into a single displayable post
// record. Proofs are consumed as structured data only; their cryptographic
// content is owned by the external service.
package proofdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptyPayload is returned when the success callback delivered no data.
	ErrEmptyPayload = errors.New("empty proof payload")
	// ErrBareString is returned when the payload is a bare JSON string
	// instead of a proof object or an array of proof objects.
	ErrBareString = errors.New("proof payload is a bare string")
)

// Proof is one attestation record. Everything except the fields read by the
// aggregator is carried verbatim and treated as opaque.
type Proof struct {
	Identifier string            `json:"identifier,omitempty"`
	ClaimData  ClaimData         `json:"claimData"`
	Signatures []string          `json:"signatures,omitempty"`
	Witnesses  []Witness         `json:"witnesses,omitempty"`
	PublicData map[string]string `json:"publicData,omitempty"`
}

// ClaimData carries the attested claim. Context is a JSON-encoded string
// whose extractedParameters mapping holds the provider-extracted fields.
type ClaimData struct {
	Provider   string `json:"provider,omitempty"`
	Parameters string `json:"parameters,omitempty"`
	Owner      string `json:"owner,omitempty"`
	Timestamp  int64  `json:"timestampS,omitempty"`
	Context    string `json:"context,omitempty"`
}

type Witness struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url,omitempty"`
}

// claimContext is the decoded shape of ClaimData.Context.
type claimContext struct {
	ExtractedParameters map[string]string `json:"extractedParameters"`
	ProviderHash        string            `json:"providerHash"`
}

// ExtractedParameters decodes the claim context and returns the parameter
// mapping extracted by the provider. A missing context yields an empty map;
// a malformed one yields an error the caller may treat as "absent".
func (p *Proof) ExtractedParameters() (map[string]string, error) {
	if p.ClaimData.Context == "" {
		return map[string]string{}, nil
	}
	var cc claimContext
	if err := json.Unmarshal([]byte(p.ClaimData.Context), &cc); err != nil {
		return nil, fmt.Errorf("decode claim context: %w", err)
	}
	if cc.ExtractedParameters == nil {
		return map[string]string{}, nil
	}
	return cc.ExtractedParameters, nil
}

// DecodeProofs normalizes a raw success payload into a proof sequence.
// A single proof object becomes a one-element slice; an array is decoded
// as-is. Bare JSON strings and empty payloads are rejected so that a
// service that echoes an error message through the success path cannot be
// mistaken for a valid result.
func DecodeProofs(raw json.RawMessage) ([]Proof, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyPayload
	}

	switch trimmed[0] {
	case '"':
		return nil, ErrBareString
	case '[':
		var proofs []Proof
		if err := json.Unmarshal(trimmed, &proofs); err != nil {
			return nil, fmt.Errorf("decode proof array: %w", err)
		}
		if len(proofs) == 0 {
			return nil, ErrEmptyPayload
		}
		return proofs, nil
	case '{':
		var p Proof
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("decode proof object: %w", err)
		}
		return []Proof{p}, nil
	default:
		return nil, fmt.Errorf("unexpected proof payload of type %q", string(trimmed[0]))
	}
}
