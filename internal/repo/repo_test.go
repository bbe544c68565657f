// ABOUTME: Shared fixtures for repository tests
// ABOUTME: Builds memory-backed engines and seeds identities, personas and posts

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

// repos bundles the three repositories over one shared engine.
type repos struct {
	engine   *store.Engine
	identity *IdentityRepository
	personas *PersonaRepository
	posts    *PostRepository
}

func newRepos(t *testing.T) *repos {
	t.Helper()
	engine := store.NewEngine(store.NewMemoryBackend())
	t.Cleanup(func() { engine.Close() })
	return &repos{
		engine:   engine,
		identity: NewIdentityRepository(engine),
		personas: NewPersonaRepository(engine),
		posts:    NewPostRepository(engine),
	}
}

func seedIdentity(t *testing.T, r *repos) model.Identity {
	t.Helper()
	v, err := r.identity.CreateInitial(context.Background(), "Test Writer", nil, nil)
	require.NoError(t, err)
	return v
}

// seedPersona creates a persona for the identity with a unique creation
// time so ordering assertions are stable.
func seedPersona(t *testing.T, r *repos, identityID, name string, createdAt time.Time) model.Persona {
	t.Helper()
	v := model.Persona{
		ID:         uuid.New().String(),
		Name:       name,
		Color:      model.ColorCoral,
		Icon:       model.IconSun,
		CreatedAt:  createdAt,
		IdentityID: identityID,
	}
	require.NoError(t, r.personas.Create(context.Background(), v))
	return v
}

func seedPost(t *testing.T, r *repos, personaID string, mood int, createdAt time.Time) model.Post {
	t.Helper()
	v := model.Post{
		ID:        uuid.New().String(),
		Caption:   "seeded entry",
		Mood:      mood,
		CreatedAt: createdAt,
		PersonaID: personaID,
	}
	require.NoError(t, r.posts.Create(context.Background(), v))
	return v
}

func postIDs(posts []model.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
