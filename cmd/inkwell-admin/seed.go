// ABOUTME: Sample-data seeding from a YAML fixture file
// ABOUTME: Best effort - logs the first failure and stops, never panics past here

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/repo"
	"github.com/inkwell-app/inkwell/internal/store"
)

type seedFile struct {
	Identity seedIdentity  `yaml:"identity"`
	Personas []seedPersona `yaml:"personas"`
	Posts    []seedPost    `yaml:"posts"`
}

type seedIdentity struct {
	Name  string `yaml:"name"`
	Bio   string `yaml:"bio"`
	Email string `yaml:"email"`
}

type seedPersona struct {
	Name        string `yaml:"name"`
	Color       string `yaml:"color"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
	Default     bool   `yaml:"default"`
}

type seedPost struct {
	Persona      string   `yaml:"persona"`
	Caption      string   `yaml:"caption"`
	Mood         int      `yaml:"mood"`
	Rating       int      `yaml:"rating"`
	DaysAgo      int      `yaml:"days_ago"`
	Location     string   `yaml:"location"`
	ActivityTags []string `yaml:"activity_tags"`
	PeopleTags   []string `yaml:"people_tags"`
	Gratitude    bool     `yaml:"gratitude"`
	Rant         bool     `yaml:"rant"`
	Dream        bool     `yaml:"dream"`
}

// cmdSeed populates sample data. Seeding is best effort: the first
// failure is logged and seeding stops with a clean error.
func cmdSeed(ctx context.Context, engine *store.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: inkwell-admin seed <fixtures.yaml>")
	}
	logger := slog.Default().With("component", "seed")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading fixtures: %w", err)
	}
	var fixtures seedFile
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("parsing fixtures: %w", err)
	}
	if fixtures.Identity.Name == "" {
		return fmt.Errorf("fixtures must name an identity")
	}

	identities := repo.NewIdentityRepository(engine)
	personas := repo.NewPersonaRepository(engine)
	posts := repo.NewPostRepository(engine)

	identity, err := identities.FetchCurrent(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		created, err := identities.CreateInitial(ctx,
			fixtures.Identity.Name,
			optional(fixtures.Identity.Bio),
			optional(fixtures.Identity.Email))
		if err != nil {
			logger.Error("seeding identity failed", "error", err)
			return fmt.Errorf("seeding stopped: %w", err)
		}
		identity = &created
	}

	personaIDs := make(map[string]string)
	for _, sp := range fixtures.Personas {
		v := model.Persona{
			ID:          uuid.New().String(),
			Name:        sp.Name,
			Color:       model.PersonaColor(sp.Color),
			Icon:        model.PersonaIcon(sp.Icon),
			Description: optional(sp.Description),
			CreatedAt:   time.Now().UTC(),
			IdentityID:  identity.ID,
		}
		if err := personas.Create(ctx, v); err != nil {
			logger.Error("seeding persona failed", "persona", sp.Name, "error", err)
			return fmt.Errorf("seeding stopped: %w", err)
		}
		personaIDs[sp.Name] = v.ID
		if sp.Default {
			if err := personas.SetDefault(ctx, v.ID, identity.ID); err != nil {
				logger.Error("setting default persona failed", "persona", sp.Name, "error", err)
				return fmt.Errorf("seeding stopped: %w", err)
			}
		}
	}

	seeded := 0
	for _, sp := range fixtures.Posts {
		personaID, ok := personaIDs[sp.Persona]
		if !ok {
			logger.Error("post references unknown persona", "persona", sp.Persona)
			return fmt.Errorf("seeding stopped: unknown persona %q", sp.Persona)
		}
		v := model.Post{
			ID:               uuid.New().String(),
			Caption:          sp.Caption,
			Mood:             sp.Mood,
			ExperienceRating: sp.Rating,
			CreatedAt:        time.Now().UTC().AddDate(0, 0, -sp.DaysAgo),
			Location:         optional(sp.Location),
			PersonaID:        personaID,
			ActivityTags:     sp.ActivityTags,
			PeopleTags:       sp.PeopleTags,
			IsGratitude:      sp.Gratitude,
			IsRant:           sp.Rant,
			IsDream:          sp.Dream,
		}
		if err := posts.Create(ctx, v); err != nil {
			logger.Error("seeding post failed", "caption", sp.Caption, "error", err)
			return fmt.Errorf("seeding stopped: %w", err)
		}
		if err := identities.IncrementPostCount(ctx, identity.ID); err != nil {
			logger.Error("updating post count failed", "error", err)
			return fmt.Errorf("seeding stopped: %w", err)
		}
		seeded++
	}

	logger.Info("seed complete", "personas", len(fixtures.Personas), "posts", seeded)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
