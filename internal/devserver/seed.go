package devserver

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"slurpsocial/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// AddUser inserts an account directly, bypassing signup validation.
// Intended for tests and seeding.
func (s *Server) AddUser(username, email, password string) (models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{
		ID:          uuid.NewString(),
		Username:    username,
		Email:       strings.ToLower(email),
		DisplayName: username,
		JoinDate:    models.NewTimestamp(s.now()),
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, taken := s.data.byEmail[user.Email]; taken {
		return models.User{}, fmt.Errorf("email %s already seeded", user.Email)
	}
	s.data.users[user.ID] = &userRecord{user: user, passwordHash: hashedPassword}
	s.data.byUsername[strings.ToLower(username)] = user.ID
	s.data.byEmail[user.Email] = user.ID
	return user, nil
}

// AddPost inserts a post as-is, keeping its like count. An empty ID or
// CreatedAt is filled in.
func (s *Server) AddPost(p models.Post) models.Post {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = models.NewTimestamp(s.now())
	}
	image := p.ImageData

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	rec := &postRecord{post: p, likedBy: make(map[string]struct{}), image: image}
	rec.post.ImageData = nil
	s.data.posts[p.ID] = rec
	return s.data.postView(rec)
}

var seedRamen = []string{"Tonkotsu Classic", "Spicy Miso", "Shoyu Chashu", "Yuzu Shio", "Black Garlic", "Veggie Tantanmen", "Dipping Tsukemen"}

// Seed fills the server with fake users and posts around a center point.
func (s *Server) Seed(users, postsPerUser int, centerLat, centerLon float64) error {
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < users; i++ {
		user, err := s.AddUser(
			gofakeit.Username()+fmt.Sprintf("%d", gofakeit.Number(100, 999)),
			gofakeit.Email(),
			SeedPassword,
		)
		if err != nil {
			return err
		}

		for i := 0; i < postsPerUser; i++ {
			review := gofakeit.Sentence(12)
			address := gofakeit.Street()
			lat := centerLat + (r.Float64()-0.5)*0.05
			lon := centerLon + (r.Float64()-0.5)*0.05
			imageURL := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
			broths := models.AllBrothTypes()

			s.AddPost(models.Post{
				UserID:         user.ID,
				RestaurantName: gofakeit.Company() + " Ramen",
				RamenName:      seedRamen[r.Intn(len(seedRamen))],
				Rating:         float64(2+r.Intn(9)) / 2,
				Review:         &review,
				ImageURL:       &imageURL,
				Latitude:       &lat,
				Longitude:      &lon,
				Address:        &address,
				CreatedAt:      models.NewTimestamp(s.now().Add(-time.Duration(r.Intn(90*24)) * time.Hour)),
				Likes:          r.Intn(50),
				BrothType:      broths[r.Intn(len(broths))],
				SpiceLevel:     models.SpiceLevel(1 + r.Intn(5)),
				NoodleTexture:  models.NoodleTexture(1 + r.Intn(4)),
			})
		}
	}
	return nil
}
