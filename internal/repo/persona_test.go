// ABOUTME: Tests for the persona repository
// ABOUTME: Default-persona invariant, name uniqueness, tier limits and cascades

package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

func TestPersonaCreateAndFetch(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	v := seedPersona(t, r, "id-1", "Work", day(2025, 1, 1))
	got, err := r.personas.Fetch(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, model.ColorCoral, got.Color)

	_, err = r.personas.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPersonaCreate_RejectsInvalid(t *testing.T) {
	r := newRepos(t)
	err := r.personas.Create(context.Background(), model.Persona{
		ID:    uuid.New().String(),
		Name:  "Bad Color",
		Color: "neon",
		Icon:  model.IconSun,
	})
	assert.ErrorIs(t, err, model.ErrInvalidData)
}

func TestPersonaCreate_DuplicateNameRejected(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	seedPersona(t, r, "id-1", "Work", day(2025, 1, 1))

	dup := model.Persona{
		ID:         uuid.New().String(),
		Name:       "WORK", // uniqueness is case-insensitive
		Color:      model.ColorOcean,
		Icon:       model.IconMoon,
		CreatedAt:  day(2025, 1, 2),
		IdentityID: "id-1",
	}
	assert.ErrorIs(t, r.personas.Create(ctx, dup), model.ErrInvalidData)

	// Same name under another identity is fine
	dup.IdentityID = "id-2"
	assert.NoError(t, r.personas.Create(ctx, dup))
}

func TestPersonaIsNameUnique_ExcludesSelf(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	v := seedPersona(t, r, "id-1", "Work", day(2025, 1, 1))

	// A persona keeping its own name during rename still validates
	unique, err := r.personas.IsNameUnique(ctx, "work", "id-1", v.ID)
	require.NoError(t, err)
	assert.True(t, unique)

	unique, err = r.personas.IsNameUnique(ctx, "work", "id-1", "")
	require.NoError(t, err)
	assert.False(t, unique)
}

func TestPersonaSetDefault_AtMostOne(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	seedPersona(t, r, "id-1", "First", day(2025, 1, 1))
	p2 := seedPersona(t, r, "id-1", "Second", day(2025, 1, 2))
	p3 := seedPersona(t, r, "id-1", "Third", day(2025, 1, 3))

	require.NoError(t, r.personas.SetDefault(ctx, p2.ID, "id-1"))

	def, err := r.personas.FetchDefault(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, p2.ID, def.ID)

	// Switching moves the flag, never duplicates it
	require.NoError(t, r.personas.SetDefault(ctx, p3.ID, "id-1"))

	n, err := r.engine.Count(ctx, store.TypePersona,
		store.Eq("identity_id", "id-1"), store.Eq("is_default", true))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "exactly one default after switching")

	def, err = r.personas.FetchDefault(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, p3.ID, def.ID)
}

func TestPersonaCreate_DefaultDemotesExisting(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	first := model.Persona{
		ID:         uuid.New().String(),
		Name:       "First",
		Color:      model.ColorCoral,
		Icon:       model.IconSun,
		CreatedAt:  day(2025, 1, 1),
		IsDefault:  true,
		IdentityID: "id-1",
	}
	require.NoError(t, r.personas.Create(ctx, first))

	second := first
	second.ID = uuid.New().String()
	second.Name = "Second"
	second.CreatedAt = day(2025, 1, 2)
	require.NoError(t, r.personas.Create(ctx, second))

	n, err := r.engine.Count(ctx, store.TypePersona,
		store.Eq("identity_id", "id-1"), store.Eq("is_default", true))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "exactly one default after creating a second default")

	def, err := r.personas.FetchDefault(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)
}

func TestPersonaUpdate_PromoteDemotesExisting(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p1 := seedPersona(t, r, "id-1", "First", day(2025, 1, 1))
	p2 := seedPersona(t, r, "id-1", "Second", day(2025, 1, 2))
	require.NoError(t, r.personas.SetDefault(ctx, p1.ID, "id-1"))

	p2.IsDefault = true
	require.NoError(t, r.personas.Update(ctx, p2))

	n, err := r.engine.Count(ctx, store.TypePersona,
		store.Eq("identity_id", "id-1"), store.Eq("is_default", true))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "exactly one default after promoting via Update")

	def, err := r.personas.FetchDefault(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, p2.ID, def.ID)
}

func TestPersonaSetDefault_UnknownOrForeignTarget(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	seedPersona(t, r, "id-1", "Mine", day(2025, 1, 1))
	other := seedPersona(t, r, "id-2", "Theirs", day(2025, 1, 2))

	assert.ErrorIs(t, r.personas.SetDefault(ctx, "missing", "id-1"), store.ErrNotFound)
	assert.ErrorIs(t, r.personas.SetDefault(ctx, other.ID, "id-1"), store.ErrNotFound)
}

func TestPersonaClearDefault(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p := seedPersona(t, r, "id-1", "Only", day(2025, 1, 1))
	require.NoError(t, r.personas.SetDefault(ctx, p.ID, "id-1"))
	require.NoError(t, r.personas.ClearDefault(ctx, "id-1"))

	def, err := r.personas.FetchDefault(ctx, "id-1")
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestPersonaDeleteDefault_NoNewElection(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p1 := seedPersona(t, r, "id-1", "First", day(2025, 1, 1))
	seedPersona(t, r, "id-1", "Second", day(2025, 1, 2))
	require.NoError(t, r.personas.SetDefault(ctx, p1.ID, "id-1"))

	require.NoError(t, r.personas.Delete(ctx, p1.ID))

	def, err := r.personas.FetchDefault(ctx, "id-1")
	require.NoError(t, err)
	assert.Nil(t, def, "deleting the default leaves no default")
}

func TestPersonaFetchForIdentity_DefaultFirst(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p1 := seedPersona(t, r, "id-1", "Older", day(2025, 1, 1))
	p2 := seedPersona(t, r, "id-1", "Newer", day(2025, 1, 2))
	require.NoError(t, r.personas.SetDefault(ctx, p2.ID, "id-1"))

	got, err := r.personas.FetchForIdentity(ctx, "id-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, p2.ID, got[0].ID, "default sorts first")
	assert.Equal(t, p1.ID, got[1].ID)
}

func TestPersonaFetchByColor(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	coral := seedPersona(t, r, "id-1", "Coral One", day(2025, 1, 1))
	ocean := model.Persona{
		ID:         uuid.New().String(),
		Name:       "Ocean One",
		Color:      model.ColorOcean,
		Icon:       model.IconMoon,
		CreatedAt:  day(2025, 1, 2),
		IdentityID: "id-1",
	}
	require.NoError(t, r.personas.Create(ctx, ocean))

	got, err := r.personas.FetchByColor(ctx, model.ColorCoral, "id-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, coral.ID, got[0].ID)
}

func TestPersonaCanCreate_TierLimits(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	for i := 0; i < model.FreePersonaLimit; i++ {
		seedPersona(t, r, "id-1", "Persona "+string(rune('A'+i)), day(2025, 1, 1+i))
	}

	ok, err := r.personas.CanCreate(ctx, "id-1", false)
	require.NoError(t, err)
	assert.False(t, ok, "free tier full at %d personas", model.FreePersonaLimit)

	ok, err = r.personas.CanCreate(ctx, "id-1", true)
	require.NoError(t, err)
	assert.True(t, ok, "premium tier still has room")

	for i := model.FreePersonaLimit; i < model.PremiumPersonaLimit; i++ {
		seedPersona(t, r, "id-1", "Persona "+string(rune('A'+i)), day(2025, 1, 1+i))
	}
	ok, err = r.personas.CanCreate(ctx, "id-1", true)
	require.NoError(t, err)
	assert.False(t, ok, "premium tier full at %d personas", model.PremiumPersonaLimit)
}

func TestPersonaUpdate(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	v := seedPersona(t, r, "id-1", "Before", day(2025, 1, 1))
	v.Name = "After"
	v.Color = model.ColorSage
	require.NoError(t, r.personas.Update(ctx, v))

	got, err := r.personas.Fetch(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, model.ColorSage, got.Color)

	missing := v
	missing.ID = "missing"
	assert.ErrorIs(t, r.personas.Update(ctx, missing), store.ErrNotFound)
}

func TestPersonaUpdate_RenameCollision(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	seedPersona(t, r, "id-1", "Taken", day(2025, 1, 1))
	v := seedPersona(t, r, "id-1", "Free", day(2025, 1, 2))

	v.Name = "taken"
	assert.ErrorIs(t, r.personas.Update(ctx, v), model.ErrInvalidData)
}

func TestPersonaDelete_CascadesPostsAndMedia(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	victim := seedPersona(t, r, "id-1", "Victim", day(2025, 1, 1))
	keeper := seedPersona(t, r, "id-1", "Keeper", day(2025, 1, 2))

	seedPost(t, r, victim.ID, 5, day(2025, 2, 1))
	post := model.Post{
		ID:        "victim-post",
		Caption:   "with photo",
		Mood:      6,
		CreatedAt: day(2025, 2, 2),
		PersonaID: victim.ID,
		Media: []model.MediaAttachment{
			{ID: "victim-media", Type: model.MediaPhoto, Filename: "x.jpg"},
		},
	}
	require.NoError(t, r.posts.Create(ctx, post))
	kept := seedPost(t, r, keeper.ID, 7, day(2025, 2, 3))

	require.NoError(t, r.personas.Delete(ctx, victim.ID))

	_, err := r.personas.Fetch(ctx, victim.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	posts, err := r.posts.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1, "only the other persona's post survives")
	assert.Equal(t, kept.ID, posts[0].ID)

	n, err := r.engine.Count(ctx, store.TypeMedia)
	require.NoError(t, err)
	assert.Zero(t, n, "cascade removes orphaned media")
}

func TestPersonaDelete_NotFound(t *testing.T) {
	r := newRepos(t)
	assert.ErrorIs(t, r.personas.Delete(context.Background(), "missing"), store.ErrNotFound)
}

func TestPersonaFetchMostUsed(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	got, n, err := r.personas.FetchMostUsed(ctx, "id-1")
	require.NoError(t, err)
	assert.Nil(t, got, "no personas yet")
	assert.Zero(t, n)

	p1 := seedPersona(t, r, "id-1", "Light", day(2025, 1, 1))
	p2 := seedPersona(t, r, "id-1", "Heavy", day(2025, 1, 2))

	seedPost(t, r, p1.ID, 5, day(2025, 2, 1))
	seedPost(t, r, p2.ID, 5, day(2025, 2, 2))
	seedPost(t, r, p2.ID, 5, day(2025, 2, 3))

	got, n, err = r.personas.FetchMostUsed(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p2.ID, got.ID)
	assert.Equal(t, 2, n)
}

func TestPersonaFetchMostUsed_TieGoesToEarliestCreated(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	first := seedPersona(t, r, "id-1", "First", day(2025, 1, 1))
	second := seedPersona(t, r, "id-1", "Second", day(2025, 1, 2))

	seedPost(t, r, first.ID, 5, day(2025, 2, 1))
	seedPost(t, r, second.ID, 5, day(2025, 2, 2))

	got, n, err := r.personas.FetchMostUsed(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 1, n)
}

func TestPersonaFetchPostCounts(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p1 := seedPersona(t, r, "id-1", "Busy", day(2025, 1, 1))
	p2 := seedPersona(t, r, "id-1", "Quiet", day(2025, 1, 2))
	seedPost(t, r, p1.ID, 5, day(2025, 2, 1))
	seedPost(t, r, p1.ID, 5, day(2025, 2, 2))

	counts, err := r.personas.FetchPostCounts(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{p1.ID: 2, p2.ID: 0}, counts)
}

func TestPersonaCreateFromPreset(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	existing := seedPersona(t, r, "id-1", "Existing", day(2025, 1, 1))
	require.NoError(t, r.personas.SetDefault(ctx, existing.ID, "id-1"))

	preset, ok := model.PresetByName("Creative")
	require.True(t, ok)

	v, err := r.personas.CreateFromPreset(ctx, preset, "id-1", true)
	require.NoError(t, err)
	assert.Equal(t, preset.Name, v.Name)
	assert.Equal(t, preset.Color, v.Color)
	assert.True(t, v.IsDefault)

	def, err := r.personas.FetchDefault(ctx, "id-1")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, v.ID, def.ID)

	n, err := r.engine.Count(ctx, store.TypePersona,
		store.Eq("identity_id", "id-1"), store.Eq("is_default", true))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "preset default takes over the slot")
}

func TestPersonaDeleteAllForIdentity(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	p := seedPersona(t, r, "id-1", "Doomed", day(2025, 1, 1))
	seedPost(t, r, p.ID, 5, day(2025, 2, 1))
	other := seedPersona(t, r, "id-2", "Spared", day(2025, 1, 2))

	require.NoError(t, r.personas.DeleteAllForIdentity(ctx, "id-1"))

	all, err := r.personas.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other.ID, all[0].ID)

	n, err := r.posts.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
