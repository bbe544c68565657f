// ABOUTME: Identity repository - account CRUD, preferences, premium, statistics
// ABOUTME: Owns the cascade that removes an identity's personas, posts and media

package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/mapper"
	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

// IdentityRepository persists the account identity. A deployment is
// expected to hold a single identity; FetchCurrent returns the earliest
// created one.
type IdentityRepository struct {
	engine *store.Engine
	logger *slog.Logger
}

// NewIdentityRepository builds a repository on the given engine.
func NewIdentityRepository(engine *store.Engine) *IdentityRepository {
	return &IdentityRepository{
		engine: engine,
		logger: slog.Default().With("component", "identity-repo"),
	}
}

// Create persists a new identity.
func (r *IdentityRepository) Create(ctx context.Context, v model.Identity) error {
	if err := v.Validate(); err != nil {
		return err
	}
	return r.engine.Write(ctx, func(w *store.Writer) error {
		w.Insert(mapper.IdentityRecord(v))
		return nil
	})
}

// CreateInitial creates the account identity with a generated id and
// timestamps, carrying default preferences.
func (r *IdentityRepository) CreateInitial(ctx context.Context, name string, bio, email *string) (model.Identity, error) {
	now := time.Now().UTC()
	v := model.Identity{
		ID:          uuid.New().String(),
		Name:        name,
		Bio:         bio,
		Email:       email,
		CreatedAt:   now,
		UpdatedAt:   now,
		Preferences: model.DefaultPreferences(),
	}
	if err := r.Create(ctx, v); err != nil {
		return model.Identity{}, err
	}
	r.logger.Info("created initial identity", "id", v.ID)
	return v, nil
}

// Fetch returns the identity with the given id, or ErrNotFound.
func (r *IdentityRepository) Fetch(ctx context.Context, id string) (*model.Identity, error) {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	v := mapper.Identity(rec)
	return &v, nil
}

func (r *IdentityRepository) fetchRecord(ctx context.Context, id string) (*store.IdentityRecord, error) {
	rec, err := r.engine.FetchByID(ctx, store.TypeIdentity, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, store.ErrNotFound
	}
	return rec.(*store.IdentityRecord), nil
}

// FetchCurrent returns the earliest-created identity, or nil when none
// exists.
func (r *IdentityRepository) FetchCurrent(ctx context.Context) (*model.Identity, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:  store.TypeIdentity,
		Sorts: []store.Sort{store.Asc("created_at")},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	v := mapper.Identity(recs[0].(*store.IdentityRecord))
	return &v, nil
}

// HasIdentity reports whether at least one identity exists.
func (r *IdentityRepository) HasIdentity(ctx context.Context) (bool, error) {
	n, err := r.engine.Count(ctx, store.TypeIdentity)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update replaces the stored identity. Fails with ErrNotFound if the id
// does not exist.
func (r *IdentityRepository) Update(ctx context.Context, v model.Identity) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, err := r.fetchRecord(ctx, v.ID); err != nil {
		return err
	}
	return r.engine.Write(ctx, func(w *store.Writer) error {
		w.Update(mapper.IdentityRecord(v))
		return nil
	})
}

// Delete removes the identity record only. Use DeleteIdentityData for
// the full cascade.
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return err
	}
	return r.engine.Delete(ctx, rec)
}

// FetchPreferences reads the identity's preferences. An identity that
// never stored any yields the defaults.
func (r *IdentityRepository) FetchPreferences(ctx context.Context, id string) (model.Preferences, error) {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return model.Preferences{}, err
	}
	return mapper.DecodePreferences(rec.Preferences), nil
}

// UpdatePreferences writes the identity's preferences blob.
func (r *IdentityRepository) UpdatePreferences(ctx context.Context, id string, p model.Preferences) error {
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		rec.Preferences = mapper.EncodePreferences(p)
	})
}

// UpdatePremiumStatus sets the premium flag and optional expiry.
func (r *IdentityRepository) UpdatePremiumStatus(ctx context.Context, id string, isPremium bool, expiresAt *time.Time) error {
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		rec.IsPremium = isPremium
		rec.PremiumExpiresAt = expiresAt
	})
}

// HasActivePremium reports whether premium is active now: the flag is
// set and there is no expiry or the expiry is in the future.
func (r *IdentityRepository) HasActivePremium(ctx context.Context, id string) (bool, error) {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return false, err
	}
	return mapper.Identity(rec).HasActivePremium(time.Now()), nil
}

// UpdateStatistics sets all three counters at once.
func (r *IdentityRepository) UpdateStatistics(ctx context.Context, id string, totalPosts, currentStreak, longestStreak int) error {
	if totalPosts < 0 || currentStreak < 0 || longestStreak < 0 {
		return model.ErrInvalidData
	}
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		rec.TotalPosts = totalPosts
		rec.CurrentStreak = currentStreak
		rec.LongestStreak = longestStreak
	})
}

// IncrementPostCount adds one to the identity's post counter.
func (r *IdentityRepository) IncrementPostCount(ctx context.Context, id string) error {
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		rec.TotalPosts++
	})
}

// DecrementPostCount subtracts one from the post counter, clamping at
// zero. The counter never goes negative.
func (r *IdentityRepository) DecrementPostCount(ctx context.Context, id string) error {
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		if rec.TotalPosts > 0 {
			rec.TotalPosts--
		}
	})
}

// UpdateStreaks sets the current and longest streak counters.
func (r *IdentityRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	if current < 0 || longest < 0 {
		return model.ErrInvalidData
	}
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		rec.CurrentStreak = current
		rec.LongestStreak = longest
	})
}

// UpdateProfile sets name and bio, stamping UpdatedAt.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, id, name string, bio *string) error {
	if name == "" {
		return model.ErrInvalidData
	}
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		rec.Name = name
		rec.Bio = bio
		rec.UpdatedAt = time.Now().UTC()
	})
}

// UpdateProfilePhoto sets (or clears) the avatar filename, stamping
// UpdatedAt.
func (r *IdentityRepository) UpdateProfilePhoto(ctx context.Context, id string, filename *string) error {
	return r.mutate(ctx, id, func(rec *store.IdentityRecord) {
		rec.AvatarFilename = filename
		rec.UpdatedAt = time.Now().UTC()
	})
}

// AddPersona links a persona to this identity by setting its
// back-reference.
func (r *IdentityRepository) AddPersona(ctx context.Context, identityID, personaID string) error {
	if _, err := r.fetchRecord(ctx, identityID); err != nil {
		return err
	}
	return r.setPersonaLink(ctx, personaID, identityID)
}

// RemovePersona clears a persona's back-reference to this identity.
func (r *IdentityRepository) RemovePersona(ctx context.Context, personaID string) error {
	return r.setPersonaLink(ctx, personaID, "")
}

func (r *IdentityRepository) setPersonaLink(ctx context.Context, personaID, identityID string) error {
	rec, err := r.engine.FetchByID(ctx, store.TypePersona, personaID)
	if err != nil {
		return err
	}
	if rec == nil {
		return store.ErrNotFound
	}
	persona := rec.(*store.PersonaRecord)
	persona.IdentityID = identityID
	return r.engine.Write(ctx, func(w *store.Writer) error {
		w.Update(persona)
		return nil
	})
}

// FetchPersonaIDs returns the ids of all personas linked to the
// identity, creation order.
func (r *IdentityRepository) FetchPersonaIDs(ctx context.Context, identityID string) ([]string, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", identityID)},
		Sorts:   []store.Sort{store.Asc("created_at")},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.PrimaryKey()
	}
	return ids, nil
}

// DeleteIdentityData removes the identity and cascades through all of
// its personas, their posts and those posts' media.
func (r *IdentityRepository) DeleteIdentityData(ctx context.Context, id string) error {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return err
	}

	personas, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", id)},
	})
	if err != nil {
		return err
	}
	for _, p := range personas {
		if _, err := deletePostsForPersona(ctx, r.engine, p.PrimaryKey()); err != nil {
			return err
		}
	}
	if _, err := r.engine.DeleteWhere(ctx, store.TypePersona, store.Eq("identity_id", id)); err != nil {
		return err
	}
	if err := r.engine.Delete(ctx, rec); err != nil {
		return err
	}
	r.logger.Info("deleted identity data", "id", id, "personas", len(personas))
	return nil
}

// ExportIdentityData returns the full identity value for export.
func (r *IdentityRepository) ExportIdentityData(ctx context.Context, id string) (*model.Identity, error) {
	return r.Fetch(ctx, id)
}

// mutate applies fn to the stored record and writes it back. Fails with
// ErrNotFound if the id does not exist.
func (r *IdentityRepository) mutate(ctx context.Context, id string, fn func(*store.IdentityRecord)) error {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return err
	}
	fn(rec)
	return r.engine.Write(ctx, func(w *store.Writer) error {
		w.Update(rec)
		return nil
	})
}
