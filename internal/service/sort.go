package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"slurpsocial/internal/models"
)

// SortOption orders a feed on the client.
type SortOption int

const (
	SortNewest SortOption = iota
	SortTopRated
	SortMostLiked
)

var sortNames = map[SortOption]string{
	SortNewest:    "Newest",
	SortTopRated:  "Top Rated",
	SortMostLiked: "Most Liked",
}

func (o SortOption) String() string {
	return sortNames[o]
}

// SortOptions lists every option in menu order.
func SortOptions() []SortOption {
	return []SortOption{SortNewest, SortTopRated, SortMostLiked}
}

// ParseSortOption accepts a display name or a compact form such as
// "top-rated" or "toprated", case-insensitively.
func ParseSortOption(s string) (SortOption, error) {
	norm := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, opt := range SortOptions() {
		if strings.ReplaceAll(strings.ToLower(opt.String()), " ", "") == norm {
			return opt, nil
		}
	}
	return SortNewest, fmt.Errorf("unknown sort option %q", s)
}

// SortPosts returns a copy of posts in descending order of the chosen key.
// Ties keep their input order.
func SortPosts(posts []models.Post, opt SortOption) []models.Post {
	sorted := slices.Clone(posts)
	var compare func(a, b models.Post) int
	switch opt {
	case SortTopRated:
		compare = func(a, b models.Post) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortMostLiked:
		compare = func(a, b models.Post) int { return cmp.Compare(b.Likes, a.Likes) }
	default:
		compare = func(a, b models.Post) int { return b.CreatedAt.Compare(a.CreatedAt.Time) }
	}
	slices.SortStableFunc(sorted, compare)
	return sorted
}

// FilterByBroth keeps posts with the given broth. BrothUnset keeps everything.
func FilterByBroth(posts []models.Post, broth models.BrothType) []models.Post {
	if !broth.IsSet() {
		return slices.Clone(posts)
	}
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.BrothType == broth {
			out = append(out, p)
		}
	}
	return out
}
