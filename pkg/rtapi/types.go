package rtapi

import (
	"encoding/json"
	"fmt"
	"time"
)

// Resource represents the base structure for all API resources.
type Resource struct {
	ID        string    `json:"id"         yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Pagination represents pagination information.
type Pagination struct {
	TotalResults int `json:"total_results" yaml:"total_results"`
	TotalPages   int `json:"total_pages"   yaml:"total_pages"`
	Page         int `json:"page"          yaml:"page"`
	PerPage      int `json:"per_page"      yaml:"per_page"`
}

// HasNext reports whether pages remain after the current one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

// ListResponse represents a paginated list response.
type ListResponse[T any] struct {
	Pagination Pagination `json:"pagination" yaml:"pagination"`
	Resources  []T        `json:"resources"  yaml:"resources"`
}

// DecodeResponse unmarshals a response body into the given type. It is
// the bridge between the raw envelope returned by the pipeline and the
// typed resources consumers work with.
func DecodeResponse[T any](resp *Response) (*T, error) {
	var out T

	err := json.Unmarshal(resp.Body, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &out, nil
}
