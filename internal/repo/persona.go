// ABOUTME: Persona repository - CRUD, default-persona invariant, tier limits
// ABOUTME: Default reassignment commits as one atomic batch, never in steps

package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-app/inkwell/internal/mapper"
	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

// PersonaRepository persists personas and enforces their invariants:
// at most one default per identity, case-insensitive name uniqueness,
// and tier limits on persona count.
type PersonaRepository struct {
	engine *store.Engine
	logger *slog.Logger
}

// NewPersonaRepository builds a repository on the given engine.
func NewPersonaRepository(engine *store.Engine) *PersonaRepository {
	return &PersonaRepository{
		engine: engine,
		logger: slog.Default().With("component", "persona-repo"),
	}
}

// Create persists a new persona. The name must be unique within its
// identity, case-insensitively. Creating the persona as default demotes
// the identity's existing default in the same atomic save.
func (r *PersonaRepository) Create(ctx context.Context, v model.Persona) error {
	if err := v.Validate(); err != nil {
		return err
	}
	unique, err := r.IsNameUnique(ctx, v.Name, v.IdentityID, "")
	if err != nil {
		return err
	}
	if !unique {
		return fmt.Errorf("%w: persona name %q already in use", model.ErrInvalidData, v.Name)
	}
	demote, err := r.defaultsToDemote(ctx, v)
	if err != nil {
		return err
	}
	return r.engine.Write(ctx, func(w *store.Writer) error {
		for _, p := range demote {
			p.IsDefault = false
			w.Update(p)
		}
		w.Insert(mapper.PersonaRecord(v))
		return nil
	})
}

// defaultsToDemote returns the identity's current default personas other
// than v itself, when v claims the default slot. Committing their
// demotion alongside v keeps at most one default per identity.
func (r *PersonaRepository) defaultsToDemote(ctx context.Context, v model.Persona) ([]*store.PersonaRecord, error) {
	if !v.IsDefault {
		return nil, nil
	}
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type: store.TypePersona,
		Filters: []store.Filter{
			store.Eq("identity_id", v.IdentityID),
			store.Eq("is_default", true),
		},
	})
	if err != nil {
		return nil, err
	}
	var out []*store.PersonaRecord
	for _, rec := range recs {
		p := rec.(*store.PersonaRecord)
		if p.ID == v.ID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// CreateFromPreset instantiates a named template for the identity.
func (r *PersonaRepository) CreateFromPreset(ctx context.Context, preset model.PersonaPreset, identityID string, isDefault bool) (model.Persona, error) {
	desc := preset.Description
	v := model.Persona{
		ID:          uuid.New().String(),
		Name:        preset.Name,
		Color:       preset.Color,
		Icon:        preset.Icon,
		Description: &desc,
		CreatedAt:   time.Now().UTC(),
		IsDefault:   isDefault,
		IdentityID:  identityID,
	}
	if err := r.Create(ctx, v); err != nil {
		return model.Persona{}, err
	}
	r.logger.Info("created persona from preset", "preset", preset.Name, "id", v.ID)
	return v, nil
}

// Fetch returns the persona with the given id, or ErrNotFound.
func (r *PersonaRepository) Fetch(ctx context.Context, id string) (*model.Persona, error) {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	v := mapper.Persona(rec)
	return &v, nil
}

func (r *PersonaRepository) fetchRecord(ctx context.Context, id string) (*store.PersonaRecord, error) {
	rec, err := r.engine.FetchByID(ctx, store.TypePersona, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, store.ErrNotFound
	}
	return rec.(*store.PersonaRecord), nil
}

// FetchAll returns every persona, creation order.
func (r *PersonaRepository) FetchAll(ctx context.Context) ([]model.Persona, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:  store.TypePersona,
		Sorts: []store.Sort{store.Asc("created_at")},
	})
	if err != nil {
		return nil, err
	}
	return mapPersonas(recs), nil
}

// FetchForIdentity returns the identity's personas sorted default
// first, then by creation time ascending.
func (r *PersonaRepository) FetchForIdentity(ctx context.Context, identityID string) ([]model.Persona, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", identityID)},
		Sorts:   []store.Sort{store.Desc("is_default"), store.Asc("created_at")},
	})
	if err != nil {
		return nil, err
	}
	return mapPersonas(recs), nil
}

// FetchByColor returns the identity's personas with the given color,
// creation order.
func (r *PersonaRepository) FetchByColor(ctx context.Context, color model.PersonaColor, identityID string) ([]model.Persona, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type: store.TypePersona,
		Filters: []store.Filter{
			store.Eq("identity_id", identityID),
			store.Eq("color", string(color)),
		},
		Sorts: []store.Sort{store.Asc("created_at")},
	})
	if err != nil {
		return nil, err
	}
	return mapPersonas(recs), nil
}

// FetchDefault returns the identity's default persona, or nil when none
// is marked default.
func (r *PersonaRepository) FetchDefault(ctx context.Context, identityID string) (*model.Persona, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type: store.TypePersona,
		Filters: []store.Filter{
			store.Eq("identity_id", identityID),
			store.Eq("is_default", true),
		},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	v := mapper.Persona(recs[0].(*store.PersonaRecord))
	return &v, nil
}

// FetchCount returns the number of personas owned by the identity.
func (r *PersonaRepository) FetchCount(ctx context.Context, identityID string) (int, error) {
	return r.engine.Count(ctx, store.TypePersona, store.Eq("identity_id", identityID))
}

// Update replaces the stored persona. Fails with ErrNotFound if absent;
// renames must keep the name unique within the identity. Promoting the
// persona to default demotes the previous default in the same atomic
// save.
func (r *PersonaRepository) Update(ctx context.Context, v model.Persona) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, err := r.fetchRecord(ctx, v.ID); err != nil {
		return err
	}
	unique, err := r.IsNameUnique(ctx, v.Name, v.IdentityID, v.ID)
	if err != nil {
		return err
	}
	if !unique {
		return fmt.Errorf("%w: persona name %q already in use", model.ErrInvalidData, v.Name)
	}
	demote, err := r.defaultsToDemote(ctx, v)
	if err != nil {
		return err
	}
	return r.engine.Write(ctx, func(w *store.Writer) error {
		for _, p := range demote {
			p.IsDefault = false
			w.Update(p)
		}
		w.Update(mapper.PersonaRecord(v))
		return nil
	})
}

// Delete removes the persona and cascades its posts and their media.
// Fails with ErrNotFound if the id does not exist. Deleting the default
// persona does not elect a new one.
func (r *PersonaRepository) Delete(ctx context.Context, id string) error {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return err
	}
	removed, err := deletePostsForPersona(ctx, r.engine, id)
	if err != nil {
		return err
	}
	if err := r.engine.Delete(ctx, rec); err != nil {
		return err
	}
	r.logger.Info("deleted persona", "id", id, "cascaded_posts", removed)
	return nil
}

// DeleteAllForIdentity bulk-deletes the identity's personas via
// predicate, cascading each persona's posts first.
func (r *PersonaRepository) DeleteAllForIdentity(ctx context.Context, identityID string) error {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", identityID)},
	})
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := deletePostsForPersona(ctx, r.engine, rec.PrimaryKey()); err != nil {
			return err
		}
	}
	_, err = r.engine.DeleteWhere(ctx, store.TypePersona, store.Eq("identity_id", identityID))
	return err
}

// SetDefault makes the target persona the identity's default. The clear
// of every other default and the set of the target commit in one atomic
// save; no intermediate state with zero or multiple defaults is ever
// persisted. Fails with ErrNotFound if the target does not exist or
// belongs to another identity.
func (r *PersonaRepository) SetDefault(ctx context.Context, personaID, identityID string) error {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", identityID)},
	})
	if err != nil {
		return err
	}

	found := false
	for _, rec := range recs {
		if rec.PrimaryKey() == personaID {
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}

	return r.engine.Write(ctx, func(w *store.Writer) error {
		for _, rec := range recs {
			p := rec.(*store.PersonaRecord)
			want := p.ID == personaID
			if p.IsDefault != want {
				p.IsDefault = want
				w.Update(p)
			}
		}
		return nil
	})
}

// ClearDefault clears the default flag on all of the identity's
// personas.
func (r *PersonaRepository) ClearDefault(ctx context.Context, identityID string) error {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type: store.TypePersona,
		Filters: []store.Filter{
			store.Eq("identity_id", identityID),
			store.Eq("is_default", true),
		},
	})
	if err != nil {
		return err
	}
	return r.engine.Write(ctx, func(w *store.Writer) error {
		for _, rec := range recs {
			p := rec.(*store.PersonaRecord)
			p.IsDefault = false
			w.Update(p)
		}
		return nil
	})
}

// IsNameUnique reports whether the name is unused among the identity's
// personas, comparing case-insensitively. excludingID is skipped so a
// persona's own current name validates during rename.
func (r *PersonaRepository) IsNameUnique(ctx context.Context, name, identityID, excludingID string) (bool, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", identityID)},
	})
	if err != nil {
		return false, err
	}
	for _, rec := range recs {
		p := rec.(*store.PersonaRecord)
		if p.ID == excludingID {
			continue
		}
		if strings.EqualFold(p.Name, name) {
			return false, nil
		}
	}
	return true, nil
}

// CanCreate reports whether the identity may add another persona under
// its tier limit: free accounts up to FreePersonaLimit, premium up to
// PremiumPersonaLimit.
func (r *PersonaRepository) CanCreate(ctx context.Context, identityID string, isPremium bool) (bool, error) {
	n, err := r.FetchCount(ctx, identityID)
	if err != nil {
		return false, err
	}
	limit := model.FreePersonaLimit
	if isPremium {
		limit = model.PremiumPersonaLimit
	}
	return n < limit, nil
}

// FetchMostUsed returns the identity's persona with the most posts and
// that count, or nil when the identity has no personas. Ties break to
// the earliest-created persona: the tally walks personas in creation
// order and a later persona only takes the lead on a strictly greater
// count.
func (r *PersonaRepository) FetchMostUsed(ctx context.Context, identityID string) (*model.Persona, int, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", identityID)},
		Sorts:   []store.Sort{store.Asc("created_at")},
	})
	if err != nil {
		return nil, 0, err
	}
	if len(recs) == 0 {
		return nil, 0, nil
	}

	var best *store.PersonaRecord
	bestCount := -1
	for _, rec := range recs {
		p := rec.(*store.PersonaRecord)
		n, err := r.engine.Count(ctx, store.TypePost, store.Eq("persona_id", p.ID))
		if err != nil {
			return nil, 0, err
		}
		if n > bestCount {
			best = p
			bestCount = n
		}
	}
	v := mapper.Persona(best)
	return &v, bestCount, nil
}

// FetchPostCounts returns a post count per persona id for the identity.
// One count query per persona; persona counts are small and bounded by
// the tier limit.
func (r *PersonaRepository) FetchPostCounts(ctx context.Context, identityID string) (map[string]int, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePersona,
		Filters: []store.Filter{store.Eq("identity_id", identityID)},
	})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(recs))
	for _, rec := range recs {
		n, err := r.engine.Count(ctx, store.TypePost, store.Eq("persona_id", rec.PrimaryKey()))
		if err != nil {
			return nil, err
		}
		counts[rec.PrimaryKey()] = n
	}
	return counts, nil
}

func mapPersonas(recs []store.Record) []model.Persona {
	out := make([]model.Persona, len(recs))
	for i, rec := range recs {
		out[i] = mapper.Persona(rec.(*store.PersonaRecord))
	}
	return out
}
