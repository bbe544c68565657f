// ABOUTME: Memory-recall queries: on-this-day, this-week-last-year, random old posts
// ABOUTME: All full scans filtered in memory over the whole post set

package repo

import (
	"context"
	"math/rand"
	"time"

	"github.com/inkwell-app/inkwell/internal/model"
)

// FetchOnThisDay returns posts from the same calendar month and day as
// date but a different year, newest first. A post created in date's own
// year never appears, even when month and day match.
func (r *PostRepository) FetchOnThisDay(ctx context.Context, date time.Time) ([]model.Post, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		return p.CreatedAt.Month() == date.Month() &&
			p.CreatedAt.Day() == date.Day() &&
			p.CreatedAt.Year() != date.Year()
	}), nil
}

// FetchFromThisWeekLastYear returns posts from the same ISO week of the
// previous year, newest first.
func (r *PostRepository) FetchFromThisWeekLastYear(ctx context.Context, date time.Time) ([]model.Post, error) {
	wantYear, wantWeek := date.ISOWeek()
	wantYear--

	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterPosts(posts, func(p model.Post) bool {
		y, w := p.CreatedAt.ISOWeek()
		return y == wantYear && w == wantWeek
	}), nil
}

// FetchRandomOld returns up to count posts created before the cutoff,
// uniformly shuffled.
func (r *PostRepository) FetchRandomOld(ctx context.Context, olderThan time.Time, count int) ([]model.Post, error) {
	if count <= 0 {
		return nil, nil
	}
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	old := filterPosts(posts, func(p model.Post) bool {
		return p.CreatedAt.Before(olderThan)
	})
	rand.Shuffle(len(old), func(i, j int) {
		old[i], old[j] = old[j], old[i]
	})
	if len(old) > count {
		old = old[:count]
	}
	return old, nil
}
