// ABOUTME: Post search - diacritic-insensitive caption search and composite filters
// ABOUTME: Composite search is a full-scan intersection pipeline, not narrowed store queries

package repo

import (
	"context"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/inkwell-app/inkwell/internal/model"
)

// SearchFilters is the composite search request. Zero-valued dimensions
// are not applied. MoodMin/MoodMax and From/To are each optional halves
// of their ranges.
type SearchFilters struct {
	Query          string
	PersonaIDs     []string
	MoodMin        int
	MoodMax        int
	From           *time.Time
	To             *time.Time
	Tags           []string
	RequireAllTags bool
	HasMedia       *bool
}

// Search returns posts whose caption contains the query as a substring,
// ignoring case and diacritics, newest first. An empty query matches
// everything.
func (r *PostRepository) Search(ctx context.Context, query string) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		return captionMatches(p.Caption, query)
	}), nil
}

// SearchComposite applies each supplied filter as a sequential
// intersection over the full post set, newest first. This is a
// deliberate full-scan pipeline: personal-scale data volumes trade
// throughput for mechanically verifiable intersection semantics, and
// the repository interface hides the strategy so indexed queries could
// replace it without changing callers.
func (r *PostRepository) SearchComposite(ctx context.Context, f SearchFilters) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if f.Query != "" {
		posts = filterPosts(posts, func(p model.Post) bool {
			return captionMatches(p.Caption, f.Query)
		})
	}
	if len(f.PersonaIDs) > 0 {
		allowed := make(map[string]bool, len(f.PersonaIDs))
		for _, id := range f.PersonaIDs {
			allowed[id] = true
		}
		posts = filterPosts(posts, func(p model.Post) bool {
			return allowed[p.PersonaID]
		})
	}
	if f.MoodMin > 0 {
		posts = filterPosts(posts, func(p model.Post) bool {
			return p.Mood >= f.MoodMin
		})
	}
	if f.MoodMax > 0 {
		posts = filterPosts(posts, func(p model.Post) bool {
			return p.Mood <= f.MoodMax
		})
	}
	if f.From != nil {
		posts = filterPosts(posts, func(p model.Post) bool {
			return !p.CreatedAt.Before(*f.From)
		})
	}
	if f.To != nil {
		posts = filterPosts(posts, func(p model.Post) bool {
			return !p.CreatedAt.After(*f.To)
		})
	}
	if len(f.Tags) > 0 {
		if f.RequireAllTags {
			posts = filterPosts(posts, func(p model.Post) bool {
				return hasAllTags(p, f.Tags)
			})
		} else {
			posts = filterPosts(posts, func(p model.Post) bool {
				return hasAnyTag(p, f.Tags)
			})
		}
	}
	if f.HasMedia != nil {
		want := *f.HasMedia
		posts = filterPosts(posts, func(p model.Post) bool {
			return (len(p.Media) > 0) == want
		})
	}
	return posts, nil
}

// FetchContainingTags returns posts whose tag set (activity and people
// tags as one set) intersects the requested tags, newest first.
func (r *PostRepository) FetchContainingTags(ctx context.Context, tags []string) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		return hasAnyTag(p, tags)
	}), nil
}

// FetchContainingAllTags returns posts whose tag set contains every
// requested tag, newest first.
func (r *PostRepository) FetchContainingAllTags(ctx context.Context, tags []string) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		return hasAllTags(p, tags)
	}), nil
}

// FetchMentioning returns posts whose people tags intersect the given
// names, newest first. Activity tags are not consulted.
func (r *PostRepository) FetchMentioning(ctx context.Context, people []string) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		for _, name := range people {
			for _, t := range p.PeopleTags {
				if t == name {
					return true
				}
			}
		}
		return false
	}), nil
}

// FetchWithMedia returns posts that have at least one attachment,
// newest first.
func (r *PostRepository) FetchWithMedia(ctx context.Context) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		return len(p.Media) > 0
	}), nil
}

// FetchWithoutMedia returns posts with no attachments, newest first.
func (r *PostRepository) FetchWithoutMedia(ctx context.Context) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		return len(p.Media) == 0
	}), nil
}

// FetchSpecial returns posts with any of the four flags set, newest
// first.
func (r *PostRepository) FetchSpecial(ctx context.Context) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, model.Post.HasFlag), nil
}

func filterPosts(posts []model.Post, keep func(model.Post) bool) []model.Post {
	var out []model.Post
	for _, p := range posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func hasAnyTag(p model.Post, tags []string) bool {
	set := p.AllTags()
	for _, t := range tags {
		if set[t] {
			return true
		}
	}
	return false
}

func hasAllTags(p model.Post, tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	set := p.AllTags()
	for _, t := range tags {
		if !set[t] {
			return false
		}
	}
	return true
}

// foldTransformer strips combining marks after NFD decomposition so
// "café" folds to "cafe".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldString lowercases and removes diacritics for substring matching.
func foldString(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

func captionMatches(caption, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(foldString(caption), foldString(query))
}
