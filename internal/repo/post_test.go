// ABOUTME: Tests for the post repository
// ABOUTME: Atomic media creation, referential integrity, pagination and bulk deletes

package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

func TestPostCreateAndFetch(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := model.Post{
		ID:           "post-1",
		Caption:      "morning pages",
		Mood:         7,
		CreatedAt:    day(2025, 3, 1),
		PersonaID:    persona.ID,
		ActivityTags: []string{"writing", "coffee"},
	}
	require.NoError(t, r.posts.Create(ctx, v))

	got, err := r.posts.Fetch(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, "morning pages", got.Caption)
	assert.Equal(t, []string{"writing", "coffee"}, got.ActivityTags)

	_, err = r.posts.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostCreate_MoodOutOfRangeRejected(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := model.Post{
		ID:        "post-bad",
		Caption:   "too happy",
		Mood:      11,
		CreatedAt: day(2025, 3, 1),
		PersonaID: persona.ID,
	}
	err := r.posts.Create(ctx, v)
	assert.ErrorIs(t, err, model.ErrInvalidData)

	n, err := r.posts.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing persisted on validation failure")
}

func TestPostCreate_UnknownPersonaRejected(t *testing.T) {
	r := newRepos(t)
	v := model.Post{
		ID:        "post-orphan",
		Caption:   "floating",
		Mood:      5,
		CreatedAt: day(2025, 3, 1),
		PersonaID: "no-such-persona",
	}
	err := r.posts.Create(context.Background(), v)
	assert.ErrorIs(t, err, ErrPersonaNotFound)
}

func TestPostCreate_MediaCommitsWithPost(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := model.Post{
		ID:        "post-media",
		Caption:   "two shots",
		Mood:      8,
		CreatedAt: day(2025, 3, 1),
		PersonaID: persona.ID,
		Media: []model.MediaAttachment{
			{ID: "med-1", Type: model.MediaPhoto, Filename: "a.jpg", CreatedAt: day(2025, 3, 1)},
			{ID: "med-2", Type: model.MediaVideo, Filename: "b.mp4", CreatedAt: day(2025, 3, 2)},
		},
	}
	require.NoError(t, r.posts.Create(ctx, v))

	got, err := r.posts.Fetch(ctx, "post-media")
	require.NoError(t, err)
	require.Len(t, got.Media, 2)
	assert.Equal(t, "med-1", got.Media[0].ID, "attachments in creation order")
	assert.Equal(t, "post-media", got.Media[0].PostID)
}

func TestPostCreate_InvalidMediaAbortsWholeSave(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := model.Post{
		ID:        "post-bad-media",
		Caption:   "broken attachment",
		Mood:      5,
		CreatedAt: day(2025, 3, 1),
		PersonaID: persona.ID,
		Media: []model.MediaAttachment{
			{ID: "med-ok", Type: model.MediaPhoto, Filename: "a.jpg"},
			{ID: "med-bad", Type: "gif", Filename: "b.gif"},
		},
	}
	assert.ErrorIs(t, r.posts.Create(ctx, v), model.ErrInvalidData)

	n, err := r.engine.Count(ctx, store.TypeMedia)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostFetchAll_NewestFirst(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	old := seedPost(t, r, persona.ID, 5, day(2025, 1, 10))
	mid := seedPost(t, r, persona.ID, 5, day(2025, 1, 20))
	new_ := seedPost(t, r, persona.ID, 5, day(2025, 1, 30))

	got, err := r.posts.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{new_.ID, mid.ID, old.ID}, postIDs(got))
}

func TestPostFetchForPersona_Pagination(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	other := seedPersona(t, r, "id-1", "Other", day(2025, 1, 2))
	var ids []string
	for i := 0; i < 5; i++ {
		p := seedPost(t, r, persona.ID, 5, day(2025, 2, 1+i))
		ids = append(ids, p.ID)
	}
	seedPost(t, r, other.ID, 5, day(2025, 2, 10))

	got, err := r.posts.FetchForPersona(ctx, persona.ID, 2, 1)
	require.NoError(t, err)
	// Newest first: page after skipping the newest one
	assert.Equal(t, []string{ids[3], ids[2]}, postIDs(got))

	all, err := r.posts.FetchForPersona(ctx, persona.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5, "zero limit means no limit")
}

func TestPostFetchByDateRange_InclusiveBounds(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	seedPost(t, r, persona.ID, 5, day(2025, 3, 1))
	from := seedPost(t, r, persona.ID, 5, day(2025, 3, 10))
	inside := seedPost(t, r, persona.ID, 5, day(2025, 3, 15))
	to := seedPost(t, r, persona.ID, 5, day(2025, 3, 20))
	seedPost(t, r, persona.ID, 5, day(2025, 3, 25))

	got, err := r.posts.FetchByDateRange(ctx, from.CreatedAt, to.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, []string{to.ID, inside.ID, from.ID}, postIDs(got))
}

func TestPostFetchByMood(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	seedPost(t, r, persona.ID, 3, day(2025, 3, 1))
	happy := seedPost(t, r, persona.ID, 9, day(2025, 3, 2))
	seedPost(t, r, persona.ID, 6, day(2025, 3, 3))

	got, err := r.posts.FetchByMood(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{happy.ID}, postIDs(got))

	ranged, err := r.posts.FetchByMoodRange(ctx, 5, 10)
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestPostUpdate(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := seedPost(t, r, persona.ID, 5, day(2025, 3, 1))

	v.Caption = "edited later"
	v.Mood = 8
	require.NoError(t, r.posts.Update(ctx, v))

	got, err := r.posts.Fetch(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited later", got.Caption)
	assert.Equal(t, 8, got.Mood)

	missing := v
	missing.ID = "missing"
	assert.ErrorIs(t, r.posts.Update(ctx, missing), store.ErrNotFound)
}

func TestPostUpdate_ReassignToUnknownPersona(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := seedPost(t, r, persona.ID, 5, day(2025, 3, 1))

	v.PersonaID = "no-such-persona"
	assert.ErrorIs(t, r.posts.Update(ctx, v), ErrPersonaNotFound)

	// Moving to an existing persona works
	target := seedPersona(t, r, "id-1", "Target", day(2025, 1, 2))
	v.PersonaID = target.ID
	require.NoError(t, r.posts.Update(ctx, v))
}

func TestPostUpdate_DoesNotTouchMedia(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := model.Post{
		ID:        "post-1",
		Caption:   "original",
		Mood:      5,
		CreatedAt: day(2025, 3, 1),
		PersonaID: persona.ID,
		Media: []model.MediaAttachment{
			{ID: "med-1", Type: model.MediaPhoto, Filename: "a.jpg"},
		},
	}
	require.NoError(t, r.posts.Create(ctx, v))

	update := v
	update.Caption = "edited"
	update.Media = nil
	require.NoError(t, r.posts.Update(ctx, update))

	got, err := r.posts.Fetch(ctx, "post-1")
	require.NoError(t, err)
	assert.Len(t, got.Media, 1, "attachments survive updates")
}

func TestPostDelete_CascadesMedia(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := model.Post{
		ID:        "post-1",
		Caption:   "doomed",
		Mood:      5,
		CreatedAt: day(2025, 3, 1),
		PersonaID: persona.ID,
		Media: []model.MediaAttachment{
			{ID: "med-1", Type: model.MediaPhoto, Filename: "a.jpg"},
		},
	}
	require.NoError(t, r.posts.Create(ctx, v))

	require.NoError(t, r.posts.Delete(ctx, "post-1"))

	_, err := r.posts.Fetch(ctx, "post-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := r.engine.Count(ctx, store.TypeMedia)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, r.posts.Delete(ctx, "post-1"), store.ErrNotFound)
}

func TestPostDeleteByIDs_SkipsMissing(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	p1 := seedPost(t, r, persona.ID, 5, day(2025, 3, 1))
	p2 := seedPost(t, r, persona.ID, 5, day(2025, 3, 2))
	p3 := seedPost(t, r, persona.ID, 5, day(2025, 3, 3))

	require.NoError(t, r.posts.DeleteByIDs(ctx, []string{p1.ID, "never-existed", p3.ID}))

	got, err := r.posts.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID}, postIDs(got))

	require.NoError(t, r.posts.DeleteByIDs(ctx, nil), "empty id list is a no-op")
}

func TestPostDeleteOlderThan(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	seedPost(t, r, persona.ID, 5, day(2023, 6, 1))
	old := model.Post{
		ID:        "old-with-media",
		Caption:   "ancient",
		Mood:      5,
		CreatedAt: day(2023, 7, 1),
		PersonaID: persona.ID,
		Media: []model.MediaAttachment{
			{ID: "old-media", Type: model.MediaPhoto, Filename: "old.jpg"},
		},
	}
	require.NoError(t, r.posts.Create(ctx, old))
	recent := seedPost(t, r, persona.ID, 5, day(2025, 6, 1))

	n, err := r.posts.DeleteOlderThan(ctx, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := r.posts.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{recent.ID}, postIDs(got))

	media, err := r.engine.Count(ctx, store.TypeMedia)
	require.NoError(t, err)
	assert.Zero(t, media)

	n, err = r.posts.DeleteOlderThan(ctx, day(2020, 1, 1))
	require.NoError(t, err)
	assert.Zero(t, n, "nothing older than cutoff")
}

func TestPostDeleteForPersona(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	other := seedPersona(t, r, "id-1", "Other", day(2025, 1, 2))
	seedPost(t, r, persona.ID, 5, day(2025, 3, 1))
	seedPost(t, r, persona.ID, 5, day(2025, 3, 2))
	kept := seedPost(t, r, other.ID, 5, day(2025, 3, 3))

	n, err := r.posts.DeleteForPersona(ctx, persona.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := r.posts.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, postIDs(got))
}

func TestPostTagsDedupedOnCreate(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	persona := seedPersona(t, r, "id-1", "Daily", day(2025, 1, 1))
	v := model.Post{
		ID:           "post-tags",
		Caption:      "busy day",
		Mood:         6,
		CreatedAt:    day(2025, 3, 1),
		PersonaID:    persona.ID,
		ActivityTags: []string{"run", "swim", "run", ""},
		PeopleTags:   []string{"ana", "ana"},
	}
	require.NoError(t, r.posts.Create(ctx, v))

	got, err := r.posts.Fetch(ctx, "post-tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "swim"}, got.ActivityTags)
	assert.Equal(t, []string{"ana"}, got.PeopleTags)
}
