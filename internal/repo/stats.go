// ABOUTME: Post statistics: mood histogram, averages, counts, tag frequencies
// ABOUTME: Aggregation runs over full scans; counts use store-level queries

package repo

import (
	"context"
	"sort"
	"time"

	"github.com/inkwell-app/inkwell/internal/model"
	"github.com/inkwell-app/inkwell/internal/store"
)

// TagCount is a tag with its usage frequency.
type TagCount struct {
	Tag   string
	Count int
}

// MoodDistribution returns a histogram of mood value to post count.
// Moods with no posts are absent from the map.
func (r *PostRepository) MoodDistribution(ctx context.Context) (map[int]int, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	dist := make(map[int]int)
	for _, p := range posts {
		dist[p.Mood]++
	}
	return dist, nil
}

// AverageMood returns the mean mood over all posts. ok is false when
// there are no posts.
func (r *PostRepository) AverageMood(ctx context.Context) (avg float64, ok bool, err error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return 0, false, err
	}
	return meanMood(posts)
}

// AverageMoodInRange returns the mean mood over posts created in
// [from, to]. ok is false when the range holds no posts.
func (r *PostRepository) AverageMoodInRange(ctx context.Context, from, to time.Time) (avg float64, ok bool, err error) {
	posts, err := r.FetchByDateRange(ctx, from, to)
	if err != nil {
		return 0, false, err
	}
	return meanMood(posts)
}

// CountAll returns the total post count.
func (r *PostRepository) CountAll(ctx context.Context) (int, error) {
	return r.engine.Count(ctx, store.TypePost)
}

// CountForPersona returns the persona's post count.
func (r *PostRepository) CountForPersona(ctx context.Context, personaID string) (int, error) {
	return r.engine.Count(ctx, store.TypePost, store.Eq("persona_id", personaID))
}

// CountInRange returns the number of posts created in [from, to].
func (r *PostRepository) CountInRange(ctx context.Context, from, to time.Time) (int, error) {
	return r.engine.Count(ctx, store.TypePost,
		store.Ge("created_at", from),
		store.Le("created_at", to),
	)
}

// ActiveDays returns the distinct calendar dates (UTC, "2006-01-02")
// with at least one post, ascending.
func (r *PostRepository) ActiveDays(ctx context.Context) ([]string, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, p := range posts {
		seen[p.CreatedAt.UTC().Format("2006-01-02")] = true
	}
	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, nil
}

// TopTags returns the k most frequent activity tags, descending count.
// Equal counts order alphabetically so results are deterministic.
func (r *PostRepository) TopTags(ctx context.Context, k int) ([]TagCount, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	tally := make(map[string]int)
	for _, p := range posts {
		for _, t := range p.ActivityTags {
			tally[t]++
		}
	}
	return topK(tally, k), nil
}

// TopPeople returns the k most frequently mentioned people, descending
// count, alphabetical within equal counts.
func (r *PostRepository) TopPeople(ctx context.Context, k int) ([]TagCount, error) {
	posts, err := r.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	tally := make(map[string]int)
	for _, p := range posts {
		for _, t := range p.PeopleTags {
			tally[t]++
		}
	}
	return topK(tally, k), nil
}

// FirstPostTime returns the earliest post timestamp. ok is false when
// there are no posts.
func (r *PostRepository) FirstPostTime(ctx context.Context) (t time.Time, ok bool, err error) {
	return r.boundaryPostTime(ctx, store.Asc("created_at"))
}

// LatestPostTime returns the most recent post timestamp. ok is false
// when there are no posts.
func (r *PostRepository) LatestPostTime(ctx context.Context) (t time.Time, ok bool, err error) {
	return r.boundaryPostTime(ctx, store.Desc("created_at"))
}

func (r *PostRepository) boundaryPostTime(ctx context.Context, s store.Sort) (time.Time, bool, error) {
	recs, err := r.engine.Fetch(ctx, store.Query{
		Type:  store.TypePost,
		Sorts: []store.Sort{s},
		Limit: 1,
	})
	if err != nil {
		return time.Time{}, false, err
	}
	if len(recs) == 0 {
		return time.Time{}, false, nil
	}
	return recs[0].(*store.PostRecord).CreatedAt, true, nil
}

func meanMood(posts []model.Post) (float64, bool, error) {
	if len(posts) == 0 {
		return 0, false, nil
	}
	sum := 0
	for _, p := range posts {
		sum += p.Mood
	}
	return float64(sum) / float64(len(posts)), true, nil
}

func topK(tally map[string]int, k int) []TagCount {
	counts := make([]TagCount, 0, len(tally))
	for tag, n := range tally {
		counts = append(counts, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	if k > 0 && len(counts) > k {
		counts = counts[:k]
	}
	return counts
}
