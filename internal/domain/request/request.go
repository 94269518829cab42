// Package request defines the inbound user request.
package request

import (
	"fmt"
	"maps"
	"time"

	"github.com/Strob0t/Principal/internal/domain"
)

// Type selects which specialists handle a request.
type Type string

const (
	TypeUtility   Type = "utility_management"
	TypeFinancial Type = "financial_health"
	TypeVehicle   Type = "vehicle_management"
	TypeGeneral   Type = "general"
)

// ValidTypes lists every accepted request type.
var ValidTypes = map[Type]bool{
	TypeUtility:   true,
	TypeFinancial: true,
	TypeVehicle:   true,
	TypeGeneral:   true,
}

// Priority is the caller-declared urgency of a request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities; unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Request is a user request. It is not modified after acceptance.
type Request struct {
	ID          string         `json:"request_id"`
	UserID      string         `json:"user_id"`
	Type        Type           `json:"request_type"`
	Description string         `json:"description"`
	Priority    Priority       `json:"priority"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	AcceptedAt  time.Time      `json:"accepted_at"`
}

// Normalize fills defaults. It is called once, before Validate.
func (r *Request) Normalize() {
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
}

// Validate checks required fields and enum values.
func (r *Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: request_id is required", domain.ErrValidation)
	}
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	if r.Description == "" {
		return fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if !ValidTypes[r.Type] {
		return fmt.Errorf("%w: invalid request_type %q", domain.ErrValidation, r.Type)
	}
	if r.Priority.Rank() == 0 {
		return fmt.Errorf("%w: invalid priority %q: must be low, medium, or high", domain.ErrValidation, r.Priority)
	}
	return nil
}

// Accept returns a normalized, validated copy stamped with now. The copy owns
// its metadata map, so later changes by the caller are not observed.
func (r Request) Accept(now time.Time) (*Request, error) {
	r.Normalize()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.Metadata = maps.Clone(r.Metadata)
	r.AcceptedAt = now
	return &r, nil
}
