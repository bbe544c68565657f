// ABOUTME: Post and MediaAttachment domain types
// ABOUTME: A journal entry with mood, rating, tags, flags and owned media

package model

import (
	"fmt"
	"time"
)

// Mood bounds for a post.
const (
	MoodMin = 1
	MoodMax = 10
)

// Post is a single journal entry. ActivityTags and PeopleTags are
// ordered sets: order is preserved, duplicates are not.
type Post struct {
	ID               string
	Caption          string
	Mood             int
	ExperienceRating int
	CreatedAt        time.Time
	Location         *string
	PersonaID        string
	ActivityTags     []string
	PeopleTags       []string
	IsGratitude      bool
	IsRant           bool
	IsDream          bool
	IsFutureYou      bool
	Media            []MediaAttachment
}

// Validate checks the post's domain constraints.
func (p Post) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: post id required", ErrInvalidData)
	}
	if p.PersonaID == "" {
		return fmt.Errorf("%w: post persona id required", ErrInvalidData)
	}
	if p.Mood < MoodMin || p.Mood > MoodMax {
		return fmt.Errorf("%w: mood %d outside [%d,%d]", ErrInvalidData, p.Mood, MoodMin, MoodMax)
	}
	for _, m := range p.Media {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// HasFlag reports whether any of the four special flags is set.
func (p Post) HasFlag() bool {
	return p.IsGratitude || p.IsRant || p.IsDream || p.IsFutureYou
}

// AllTags returns the union of activity and people tags as one
// unordered set.
func (p Post) AllTags() map[string]bool {
	set := make(map[string]bool, len(p.ActivityTags)+len(p.PeopleTags))
	for _, t := range p.ActivityTags {
		set[t] = true
	}
	for _, t := range p.PeopleTags {
		set[t] = true
	}
	return set
}

// DedupeTags preserves first-occurrence order and drops duplicates.
func DedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MediaType distinguishes photo and video attachments.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// Valid reports whether the media type is a known enum value.
func (t MediaType) Valid() bool {
	return t == MediaPhoto || t == MediaVideo
}

// MediaAttachment belongs to exactly one post. It has no independent
// lifecycle: created with its post, removed only by cascade.
type MediaAttachment struct {
	ID                string
	Type              MediaType
	Filename          string
	ThumbnailFilename *string
	CreatedAt         time.Time
	FileSize          int64
	PostID            string
	Width             int
	Height            int
}

// Validate checks the attachment's domain constraints.
func (m MediaAttachment) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: media id required", ErrInvalidData)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidData, m.Type)
	}
	if m.Filename == "" {
		return fmt.Errorf("%w: media filename required", ErrInvalidData)
	}
	return nil
}
