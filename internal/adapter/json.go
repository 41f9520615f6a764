package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// JSON defines an interface for JSON operations to enable mocking
//
//go:generate mockgen -source=json.go -destination=../mocks/json.go -package=mocks -mock_names=JSON=MockJSON
type JSON interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	// MarshalCanonical marshals v into RFC 8785 canonical form, suitable for signing
	MarshalCanonical(v interface{}) ([]byte, error)
}

// RealJSON implements JSON using encoding/json and gowebpki/jcs
type RealJSON struct{}

// NewJSON creates a new real JSON implementation
func NewJSON() JSON {
	return &RealJSON{}
}

func (j *RealJSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (j *RealJSON) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (j *RealJSON) MarshalCanonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize json: %w", err)
	}
	return canonical, nil
}
