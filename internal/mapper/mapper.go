// ABOUTME: Lossless conversion between domain values and persisted records
// ABOUTME: Pure functions; tags and preferences encode to stable JSON

package mapper

import (
	"encoding/json"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

// IdentityRecord converts an identity domain value to its persisted
// record. For every valid v, Identity(IdentityRecord(v)) == v
// field-for-field.
func IdentityRecord(v model.Identity) *store.IdentityRecord {
	return &store.IdentityRecord{
		ID:               v.ID,
		Name:             v.Name,
		Bio:              v.Bio,
		Email:            v.Email,
		AvatarFilename:   v.AvatarFilename,
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
		IsPremium:        v.IsPremium,
		PremiumExpiresAt: v.PremiumExpiresAt,
		TotalPosts:       v.TotalPosts,
		CurrentStreak:    v.CurrentStreak,
		LongestStreak:    v.LongestStreak,
		Preferences:      EncodePreferences(v.Preferences),
	}
}

// Identity converts a persisted record back to the domain value.
func Identity(r *store.IdentityRecord) model.Identity {
	return model.Identity{
		ID:               r.ID,
		Name:             r.Name,
		Bio:              r.Bio,
		Email:            r.Email,
		AvatarFilename:   r.AvatarFilename,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		IsPremium:        r.IsPremium,
		PremiumExpiresAt: r.PremiumExpiresAt,
		TotalPosts:       r.TotalPosts,
		CurrentStreak:    r.CurrentStreak,
		LongestStreak:    r.LongestStreak,
		Preferences:      DecodePreferences(r.Preferences),
	}
}

// PersonaRecord converts a persona domain value to its persisted record.
func PersonaRecord(v model.Persona) *store.PersonaRecord {
	return &store.PersonaRecord{
		ID:          v.ID,
		Name:        v.Name,
		Color:       string(v.Color),
		Icon:        string(v.Icon),
		Description: v.Description,
		CreatedAt:   v.CreatedAt,
		IsDefault:   v.IsDefault,
		IdentityID:  v.IdentityID,
	}
}

// Persona converts a persisted record back to the domain value.
func Persona(r *store.PersonaRecord) model.Persona {
	return model.Persona{
		ID:          r.ID,
		Name:        r.Name,
		Color:       model.PersonaColor(r.Color),
		Icon:        model.PersonaIcon(r.Icon),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		IsDefault:   r.IsDefault,
		IdentityID:  r.IdentityID,
	}
}

// PostRecord converts a post domain value to its persisted record.
// Media attachments are mapped separately, one MediaRecord per
// attachment.
func PostRecord(v model.Post) *store.PostRecord {
	return &store.PostRecord{
		ID:               v.ID,
		Caption:          v.Caption,
		Mood:             v.Mood,
		ExperienceRating: v.ExperienceRating,
		CreatedAt:        v.CreatedAt,
		Location:         v.Location,
		PersonaID:        v.PersonaID,
		ActivityTags:     encodeTags(v.ActivityTags),
		PeopleTags:       encodeTags(v.PeopleTags),
		IsGratitude:      v.IsGratitude,
		IsRant:           v.IsRant,
		IsDream:          v.IsDream,
		IsFutureYou:      v.IsFutureYou,
	}
}

// Post converts a persisted record back to the domain value. Media is
// left empty; the repository attaches it from the media table.
func Post(r *store.PostRecord) model.Post {
	return model.Post{
		ID:               r.ID,
		Caption:          r.Caption,
		Mood:             r.Mood,
		ExperienceRating: r.ExperienceRating,
		CreatedAt:        r.CreatedAt,
		Location:         r.Location,
		PersonaID:        r.PersonaID,
		ActivityTags:     decodeTags(r.ActivityTags),
		PeopleTags:       decodeTags(r.PeopleTags),
		IsGratitude:      r.IsGratitude,
		IsRant:           r.IsRant,
		IsDream:          r.IsDream,
		IsFutureYou:      r.IsFutureYou,
	}
}

// MediaRecord converts an attachment to its persisted record, stamped
// with the owning post's id.
func MediaRecord(v model.MediaAttachment, postID string) *store.MediaRecord {
	return &store.MediaRecord{
		ID:                v.ID,
		MediaType:         string(v.Type),
		Filename:          v.Filename,
		ThumbnailFilename: v.ThumbnailFilename,
		CreatedAt:         v.CreatedAt,
		FileSize:          v.FileSize,
		PostID:            postID,
		Width:             v.Width,
		Height:            v.Height,
	}
}

// Media converts a persisted record back to the domain value.
func Media(r *store.MediaRecord) model.MediaAttachment {
	return model.MediaAttachment{
		ID:                r.ID,
		Type:              model.MediaType(r.MediaType),
		Filename:          r.Filename,
		ThumbnailFilename: r.ThumbnailFilename,
		CreatedAt:         r.CreatedAt,
		FileSize:          r.FileSize,
		PostID:            r.PostID,
		Width:             r.Width,
		Height:            r.Height,
	}
}

// encodeTags serializes an ordered tag set as a JSON array. nil and
// empty both encode to "[]" so records have a stable shape.
func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	b, err := json.Marshal(model.DedupeTags(tags))
	if err != nil {
		return "[]"
	}
	return string(b)
}

// decodeTags parses a stored tag array. Corrupt data yields no tags
// rather than an error.
func decodeTags(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

// EncodePreferences serializes preferences to the opaque blob stored on
// the identity record.
func EncodePreferences(p model.Preferences) []byte {
	b, err := json.Marshal(p)
	if err != nil {
		// Preferences is a plain struct; marshal cannot fail in practice.
		return nil
	}
	return b
}

// DecodePreferences parses a stored preferences blob. An absent or
// corrupt blob yields the defaults, never an error.
func DecodePreferences(b []byte) model.Preferences {
	if len(b) == 0 {
		return model.DefaultPreferences()
	}
	var p model.Preferences
	if err := json.Unmarshal(b, &p); err != nil {
		return model.DefaultPreferences()
	}
	return p
}
