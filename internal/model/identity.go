// ABOUTME: Identity domain type - the single account/profile per deployment
// ABOUTME: Carries premium status, statistics counters and preferences

package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidData is returned when a domain value violates its constraints.
var ErrInvalidData = errors.New("invalid data")

// Identity is the account entity. A deployment holds a single identity;
// counters never go negative.
type Identity struct {
	ID               string
	Name             string
	Bio              *string
	Email            *string
	AvatarFilename   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	IsPremium        bool
	PremiumExpiresAt *time.Time
	TotalPosts       int
	CurrentStreak    int
	LongestStreak    int
	Preferences      Preferences
}

// Validate checks the identity's domain constraints.
func (i Identity) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: identity id required", ErrInvalidData)
	}
	if i.Name == "" {
		return fmt.Errorf("%w: identity name required", ErrInvalidData)
	}
	if i.TotalPosts < 0 || i.CurrentStreak < 0 || i.LongestStreak < 0 {
		return fmt.Errorf("%w: identity counters must not be negative", ErrInvalidData)
	}
	return nil
}

// HasActivePremium reports whether premium is active at the given time:
// the premium flag is set and there is either no expiry or the expiry is
// in the future.
func (i Identity) HasActivePremium(now time.Time) bool {
	if !i.IsPremium {
		return false
	}
	return i.PremiumExpiresAt == nil || i.PremiumExpiresAt.After(now)
}

// PersonaLimit returns the persona tier limit for this identity.
func (i Identity) PersonaLimit(now time.Time) int {
	if i.HasActivePremium(now) {
		return PremiumPersonaLimit
	}
	return FreePersonaLimit
}
