// ABOUTME: Shared repository plumbing: error kinds and cascade helpers
// ABOUTME: Cascade deletes are issued explicitly, never left to schema rules

package repo

import (
	"context"
	"errors"

	"github.com/inkwell-app/inkwell/internal/store"
)

// ErrPersonaNotFound is returned when a post references a persona that
// does not exist.
var ErrPersonaNotFound = errors.New("persona not found")

// deletePostsForPersona removes every post belonging to the persona and
// all media attached to those posts. Returns the number of posts removed.
func deletePostsForPersona(ctx context.Context, e *store.Engine, personaID string) (int, error) {
	posts, err := e.Fetch(ctx, store.Query{
		Type:    store.TypePost,
		Filters: []store.Filter{store.Eq("persona_id", personaID)},
	})
	if err != nil {
		return 0, err
	}
	if len(posts) == 0 {
		return 0, nil
	}

	postIDs := make([]any, len(posts))
	for i, p := range posts {
		postIDs[i] = p.PrimaryKey()
	}
	if _, err := e.DeleteWhere(ctx, store.TypeMedia, store.In("post_id", postIDs...)); err != nil {
		return 0, err
	}
	return e.DeleteWhere(ctx, store.TypePost, store.Eq("persona_id", personaID))
}

// deleteMediaForPosts removes all media attached to the given post ids.
func deleteMediaForPosts(ctx context.Context, e *store.Engine, postIDs []string) error {
	if len(postIDs) == 0 {
		return nil
	}
	ids := make([]any, len(postIDs))
	for i, id := range postIDs {
		ids[i] = id
	}
	_, err := e.DeleteWhere(ctx, store.TypeMedia, store.In("post_id", ids...))
	return err
}
