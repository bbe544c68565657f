// ABOUTME: Record types and error kinds for inkwell persistence
// ABOUTME: Defines the Record interface and the four persisted record shapes

package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrStoreNotFound is returned by Reset when the backend has no
// configured storage location to remove and recreate.
var ErrStoreNotFound = errors.New("no store location configured")

// Operation names used in OpError.
const (
	OpFetch  = "fetch"
	OpCount  = "count"
	OpSave   = "save"
	OpDelete = "delete"
	OpReset  = "reset"
)

// OpError wraps a backend failure with the engine operation that caused it.
// The underlying cause is preserved for errors.Is/As.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// RecordType identifies which entity table a record belongs to.
type RecordType string

const (
	TypeIdentity RecordType = "identity"
	TypePersona  RecordType = "persona"
	TypePost     RecordType = "post"
	TypeMedia    RecordType = "media"
)

// Record is the unit of persistence. Field exposes persisted column
// values by name so both backends evaluate queries identically.
type Record interface {
	Type() RecordType
	PrimaryKey() string
	Field(name string) (any, bool)
	Clone() Record
}

// IdentityRecord is the persisted shape of an account identity.
// Preferences is an opaque blob owned by the mapper.
type IdentityRecord struct {
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
	Preferences      []byte
}

func (r *IdentityRecord) Type() RecordType   { return TypeIdentity }
func (r *IdentityRecord) PrimaryKey() string { return r.ID }

func (r *IdentityRecord) Field(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "name":
		return r.Name, true
	case "bio":
		return r.Bio, true
	case "email":
		return r.Email, true
	case "avatar_filename":
		return r.AvatarFilename, true
	case "created_at":
		return r.CreatedAt, true
	case "updated_at":
		return r.UpdatedAt, true
	case "is_premium":
		return r.IsPremium, true
	case "premium_expires_at":
		return r.PremiumExpiresAt, true
	case "total_posts":
		return r.TotalPosts, true
	case "current_streak":
		return r.CurrentStreak, true
	case "longest_streak":
		return r.LongestStreak, true
	}
	return nil, false
}

func (r *IdentityRecord) Clone() Record {
	c := *r
	c.Bio = cloneStr(r.Bio)
	c.Email = cloneStr(r.Email)
	c.AvatarFilename = cloneStr(r.AvatarFilename)
	c.PremiumExpiresAt = cloneTime(r.PremiumExpiresAt)
	if r.Preferences != nil {
		c.Preferences = append([]byte(nil), r.Preferences...)
	}
	return &c
}

// PersonaRecord is the persisted shape of a persona. IdentityID is the
// back-reference to the owning identity; empty means unlinked.
type PersonaRecord struct {
	ID          string
	Name        string
	Color       string
	Icon        string
	Description *string
	CreatedAt   time.Time
	IsDefault   bool
	IdentityID  string
}

func (r *PersonaRecord) Type() RecordType   { return TypePersona }
func (r *PersonaRecord) PrimaryKey() string { return r.ID }

func (r *PersonaRecord) Field(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "name":
		return r.Name, true
	case "color":
		return r.Color, true
	case "icon":
		return r.Icon, true
	case "description":
		return r.Description, true
	case "created_at":
		return r.CreatedAt, true
	case "is_default":
		return r.IsDefault, true
	case "identity_id":
		return r.IdentityID, true
	}
	return nil, false
}

func (r *PersonaRecord) Clone() Record {
	c := *r
	c.Description = cloneStr(r.Description)
	return &c
}

// PostRecord is the persisted shape of a journal post. Activity and
// people tags are stored JSON-encoded; the mapper owns the encoding.
type PostRecord struct {
	ID               string
	Caption          string
	Mood             int
	ExperienceRating int
	CreatedAt        time.Time
	Location         *string
	PersonaID        string
	ActivityTags     string
	PeopleTags       string
	IsGratitude      bool
	IsRant           bool
	IsDream          bool
	IsFutureYou      bool
}

func (r *PostRecord) Type() RecordType   { return TypePost }
func (r *PostRecord) PrimaryKey() string { return r.ID }

func (r *PostRecord) Field(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "caption":
		return r.Caption, true
	case "mood":
		return r.Mood, true
	case "experience_rating":
		return r.ExperienceRating, true
	case "created_at":
		return r.CreatedAt, true
	case "location":
		return r.Location, true
	case "persona_id":
		return r.PersonaID, true
	case "activity_tags":
		return r.ActivityTags, true
	case "people_tags":
		return r.PeopleTags, true
	case "is_gratitude":
		return r.IsGratitude, true
	case "is_rant":
		return r.IsRant, true
	case "is_dream":
		return r.IsDream, true
	case "is_future_you":
		return r.IsFutureYou, true
	}
	return nil, false
}

func (r *PostRecord) Clone() Record {
	c := *r
	c.Location = cloneStr(r.Location)
	return &c
}

// MediaRecord is the persisted shape of a media attachment. PostID is
// fixed at creation and never changes.
type MediaRecord struct {
	ID                string
	MediaType         string
	Filename          string
	ThumbnailFilename *string
	CreatedAt         time.Time
	FileSize          int64
	PostID            string
	Width             int
	Height            int
}

func (r *MediaRecord) Type() RecordType   { return TypeMedia }
func (r *MediaRecord) PrimaryKey() string { return r.ID }

func (r *MediaRecord) Field(name string) (any, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "media_type":
		return r.MediaType, true
	case "filename":
		return r.Filename, true
	case "thumbnail_filename":
		return r.ThumbnailFilename, true
	case "created_at":
		return r.CreatedAt, true
	case "file_size":
		return r.FileSize, true
	case "post_id":
		return r.PostID, true
	case "width":
		return r.Width, true
	case "height":
		return r.Height, true
	}
	return nil, false
}

func (r *MediaRecord) Clone() Record {
	c := *r
	c.ThumbnailFilename = cloneStr(r.ThumbnailFilename)
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
