// ABOUTME: Post repository - CRUD, persona referential integrity, bulk deletes
// ABOUTME: Post and media creation commit together in one atomic save

package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkwell-app/inkwell/internal/mapper"
	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

// PostRepository persists journal posts and their media attachments.
// Media has no independent lifecycle: it is created with its post and
// removed only by cascade.
type PostRepository struct {
	engine *store.Engine
	logger *slog.Logger
}

// NewPostRepository builds a repository on the given engine.
func NewPostRepository(engine *store.Engine) *PostRepository {
	return &PostRepository{
		engine: engine,
		logger: slog.Default().With("component", "post-repo"),
	}
}

// Create persists a post together with its media attachments in one
// atomic save. Fails with ErrPersonaNotFound if the referenced persona
// does not exist, ErrInvalidData if the post violates its constraints.
func (r *PostRepository) Create(ctx context.Context, v model.Post) error {
	v.ActivityTags = model.DedupeTags(v.ActivityTags)
	v.PeopleTags = model.DedupeTags(v.PeopleTags)
	if err := v.Validate(); err != nil {
		return err
	}
	persona, err := r.engine.FetchByID(ctx, store.TypePersona, v.PersonaID)
	if err != nil {
		return err
	}
	if persona == nil {
		return ErrPersonaNotFound
	}
	return r.engine.Write(ctx, func(w *store.Writer) error {
		w.Insert(mapper.PostRecord(v))
		for _, m := range v.Media {
			w.Insert(mapper.MediaRecord(m, v.ID))
		}
		return nil
	})
}

// Fetch returns the post with the given id, media attached, or
// ErrNotFound.
func (r *PostRepository) Fetch(ctx context.Context, id string) (*model.Post, error) {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	v := mapper.Post(rec)
	media, err := r.mediaForPosts(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	v.Media = media[id]
	return &v, nil
}

func (r *PostRepository) fetchRecord(ctx context.Context, id string) (*store.PostRecord, error) {
	rec, err := r.engine.FetchByID(ctx, store.TypePost, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, store.ErrNotFound
	}
	return rec.(*store.PostRecord), nil
}

// FetchAll returns every post, newest first.
func (r *PostRepository) FetchAll(ctx context.Context) ([]model.Post, error) {
	return r.fetchPosts(ctx, store.Query{
		Type:  store.TypePost,
		Sorts: []store.Sort{store.Desc("created_at")},
	})
}

// FetchForPersona returns the persona's posts newest first, paginated.
// Zero limit means no limit.
func (r *PostRepository) FetchForPersona(ctx context.Context, personaID string, limit, offset int) ([]model.Post, error) {
	return r.fetchPosts(ctx, store.Query{
		Type:    store.TypePost,
		Filters: []store.Filter{store.Eq("persona_id", personaID)},
		Sorts:   []store.Sort{store.Desc("created_at")},
		Limit:   limit,
		Offset:  offset,
	})
}

// FetchByDateRange returns posts created in [from, to], newest first.
func (r *PostRepository) FetchByDateRange(ctx context.Context, from, to time.Time) ([]model.Post, error) {
	return r.fetchPosts(ctx, store.Query{
		Type: store.TypePost,
		Filters: []store.Filter{
			store.Ge("created_at", from),
			store.Le("created_at", to),
		},
		Sorts: []store.Sort{store.Desc("created_at")},
	})
}

// FetchByMood returns posts with exactly the given mood, newest first.
func (r *PostRepository) FetchByMood(ctx context.Context, mood int) ([]model.Post, error) {
	return r.fetchPosts(ctx, store.Query{
		Type:    store.TypePost,
		Filters: []store.Filter{store.Eq("mood", mood)},
		Sorts:   []store.Sort{store.Desc("created_at")},
	})
}

// FetchByMoodRange returns posts with mood in [min, max], newest first.
func (r *PostRepository) FetchByMoodRange(ctx context.Context, min, max int) ([]model.Post, error) {
	return r.fetchPosts(ctx, store.Query{
		Type: store.TypePost,
		Filters: []store.Filter{
			store.Ge("mood", min),
			store.Le("mood", max),
		},
		Sorts: []store.Sort{store.Desc("created_at")},
	})
}

// Update replaces the stored post. The persona link is re-resolved when
// PersonaID changed, failing with ErrPersonaNotFound if the new persona
// does not exist. Media is not touched: attachments only exist through
// Create and cascade.
func (r *PostRepository) Update(ctx context.Context, v model.Post) error {
	v.ActivityTags = model.DedupeTags(v.ActivityTags)
	v.PeopleTags = model.DedupeTags(v.PeopleTags)
	if err := v.Validate(); err != nil {
		return err
	}
	existing, err := r.fetchRecord(ctx, v.ID)
	if err != nil {
		return err
	}
	if v.PersonaID != existing.PersonaID {
		persona, err := r.engine.FetchByID(ctx, store.TypePersona, v.PersonaID)
		if err != nil {
			return err
		}
		if persona == nil {
			return ErrPersonaNotFound
		}
	}
	return r.engine.Write(ctx, func(w *store.Writer) error {
		w.Update(mapper.PostRecord(v))
		return nil
	})
}

// Delete removes the post and cascades its media. Fails with
// ErrNotFound if the id does not exist.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	rec, err := r.fetchRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := deleteMediaForPosts(ctx, r.engine, []string{id}); err != nil {
		return err
	}
	return r.engine.Delete(ctx, rec)
}

// DeleteByIDs removes the listed posts and their media, silently
// skipping ids that do not exist.
func (r *PostRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := deleteMediaForPosts(ctx, r.engine, ids); err != nil {
		return err
	}
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	_, err := r.engine.DeleteWhere(ctx, store.TypePost, store.In("id", vals...))
	return err
}

// DeleteForPersona removes every post belonging to the persona,
// cascading media. Returns the number of posts removed.
func (r *PostRepository) DeleteForPersona(ctx context.Context, personaID string) (int, error) {
	return deletePostsForPersona(ctx, r.engine, personaID)
}

// DeleteOlderThan removes every post created before the cutoff,
// cascading media, and returns the count actually removed.
func (r *PostRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypePost,
		Filters: []store.Filter{store.Lt("created_at", cutoff)},
	})
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.PrimaryKey()
	}
	if err := deleteMediaForPosts(ctx, r.engine, ids); err != nil {
		return 0, err
	}
	n, err := r.engine.DeleteWhere(ctx, store.TypePost, store.Lt("created_at", cutoff))
	if err != nil {
		return 0, err
	}
	r.logger.Info("deleted old posts", "cutoff", cutoff, "removed", n)
	return n, nil
}

// fetchPosts runs a store query and assembles domain posts with their
// media attached.
func (r *PostRepository) fetchPosts(ctx context.Context, q store.Query) ([]model.Post, error) {
	recs, err := r.engine.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.assemble(ctx, recs)
}

func (r *PostRepository) assemble(ctx context.Context, recs []store.Record) ([]model.Post, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.PrimaryKey()
	}
	media, err := r.mediaForPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	posts := make([]model.Post, len(recs))
	for i, rec := range recs {
		p := mapper.Post(rec.(*store.PostRecord))
		p.Media = media[p.ID]
		posts[i] = p
	}
	return posts, nil
}

// mediaForPosts loads attachments for the given post ids in one query,
// grouped by post, creation order within each post.
func (r *PostRepository) mediaForPosts(ctx context.Context, postIDs []string) (map[string][]model.MediaAttachment, error) {
	vals := make([]any, len(postIDs))
	for i, id := range postIDs {
		vals[i] = id
	}
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:    store.TypeMedia,
		Filters: []store.Filter{store.In("post_id", vals...)},
		Sorts:   []store.Sort{store.Asc("created_at")},
	})
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]model.MediaAttachment)
	for _, rec := range recs {
		m := mapper.Media(rec.(*store.MediaRecord))
		grouped[m.PostID] = append(grouped[m.PostID], m)
	}
	return grouped, nil
}
