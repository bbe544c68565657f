// ABOUTME: Persona domain type - a named authoring context under an identity
// ABOUTME: Defines color/icon enums and the free/premium tier limits

package model

import (
	"fmt"
	"time"
)

// Persona tier limits: how many personas an identity may hold.
const (
	FreePersonaLimit    = 3
	PremiumPersonaLimit = 10
)

// PersonaColor is the accent color assigned to a persona.
type PersonaColor string

const (
	ColorCoral    PersonaColor = "coral"
	ColorOcean    PersonaColor = "ocean"
	ColorSage     PersonaColor = "sage"
	ColorLavender PersonaColor = "lavender"
	ColorAmber    PersonaColor = "amber"
	ColorRose     PersonaColor = "rose"
	ColorSlate    PersonaColor = "slate"
	ColorPlum     PersonaColor = "plum"
)

// Valid reports whether the color is a known enum value.
func (c PersonaColor) Valid() bool {
	switch c {
	case ColorCoral, ColorOcean, ColorSage, ColorLavender,
		ColorAmber, ColorRose, ColorSlate, ColorPlum:
		return true
	}
	return false
}

// PersonaIcon is the glyph assigned to a persona.
type PersonaIcon string

const (
	IconSun       PersonaIcon = "sun"
	IconMoon      PersonaIcon = "moon"
	IconBook      PersonaIcon = "book"
	IconBriefcase PersonaIcon = "briefcase"
	IconHeart     PersonaIcon = "heart"
	IconLeaf      PersonaIcon = "leaf"
	IconMountain  PersonaIcon = "mountain"
	IconSpark     PersonaIcon = "spark"
)

// Valid reports whether the icon is a known enum value.
func (i PersonaIcon) Valid() bool {
	switch i {
	case IconSun, IconMoon, IconBook, IconBriefcase,
		IconHeart, IconLeaf, IconMountain, IconSpark:
		return true
	}
	return false
}

// Persona is a named context under which posts are authored. At most one
// persona per identity is the default, and names are unique within an
// identity case-insensitively.
type Persona struct {
	ID          string
	Name        string
	Color       PersonaColor
	Icon        PersonaIcon
	Description *string
	CreatedAt   time.Time
	IsDefault   bool
	IdentityID  string
}

// Validate checks the persona's domain constraints.
func (p Persona) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: persona id required", ErrInvalidData)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: persona name required", ErrInvalidData)
	}
	if !p.Color.Valid() {
		return fmt.Errorf("%w: unknown persona color %q", ErrInvalidData, p.Color)
	}
	if !p.Icon.Valid() {
		return fmt.Errorf("%w: unknown persona icon %q", ErrInvalidData, p.Icon)
	}
	return nil
}
