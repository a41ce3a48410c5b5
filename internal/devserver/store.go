package devserver

import (
	"math"
	"slices"
	"strings"
	"sync"

	"slurpsocial/internal/models"
)

type userRecord struct {
	user         models.User
	passwordHash []byte
}

type postRecord struct {
	post    models.Post
	likedBy map[string]struct{}
	image   []byte
}

// memoryData is the dev server's entire database.
type memoryData struct {
	mu         sync.RWMutex
	users      map[string]*userRecord
	byEmail    map[string]string
	byUsername map[string]string
	posts      map[string]*postRecord
	comments   map[string][]models.Comment
	revoked    map[string]struct{}
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:      make(map[string]*userRecord),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		posts:      make(map[string]*postRecord),
		comments:   make(map[string][]models.Comment),
		revoked:    make(map[string]struct{}),
	}
}

// userView returns the user with a live post count. Caller holds mu.
func (d *memoryData) userView(id string) (models.User, bool) {
	rec, ok := d.users[id]
	if !ok {
		return models.User{}, false
	}
	u := rec.user
	u.RamenCount = 0
	for _, p := range d.posts {
		if p.post.UserID == id {
			u.RamenCount++
		}
	}
	return u, true
}

// postView returns the post with author fields filled in. Caller holds mu.
func (d *memoryData) postView(rec *postRecord) models.Post {
	p := rec.post
	p.ImageData = nil
	if author, ok := d.users[p.UserID]; ok {
		username := author.user.Username
		display := author.user.DisplayName
		p.Username = &username
		p.UserDisplayName = &display
		p.UserProfileImageURL = author.user.ProfileImageURL
	}
	return p
}

// sortedPosts returns post views matching keep, newest first. Caller holds mu.
func (d *memoryData) sortedPosts(keep func(*postRecord) bool) []models.Post {
	out := make([]models.Post, 0, len(d.posts))
	for _, rec := range d.posts {
		if keep == nil || keep(rec) {
			out = append(out, d.postView(rec))
		}
	}
	slices.SortFunc(out, func(a, b models.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt.Time); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (d *memoryData) commentView(c models.Comment) models.Comment {
	if author, ok := d.users[c.UserID]; ok {
		username := author.user.Username
		display := author.user.DisplayName
		c.Username = &username
		c.UserDisplayName = &display
		c.UserProfileImageURL = author.user.ProfileImageURL
	}
	return c
}

const earthRadiusMeters = 6371000.0

// haversine returns the great-circle distance in meters.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}

func page(posts []models.Post, limit, offset int) ([]models.Post, *models.Pagination) {
	total := len(posts)
	start := min(offset, total)
	end := min(start+limit, total)
	return posts[start:end], &models.Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}
}
