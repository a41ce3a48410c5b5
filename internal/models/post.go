package models

// Rating bounds and granularity for a review.
const (
	MinRating  = 1.0
	MaxRating  = 5.0
	RatingStep = 0.5
)

// Post is one ramen review.
type Post struct {
	ID                  string        `json:"id"`
	UserID              string        `json:"userId"`
	Username            *string       `json:"username,omitempty"`
	UserDisplayName     *string       `json:"userDisplayName,omitempty"`
	UserProfileImageURL *string       `json:"userProfileImageURL,omitempty"`
	RestaurantName      string        `json:"restaurantName"`
	RamenName           string        `json:"ramenName"`
	Rating              float64       `json:"rating"`
	Review              *string       `json:"review,omitempty"`
	ImageURL            *string       `json:"imageURL,omitempty"`
	ImageData           []byte        `json:"-"` // local bytes, sent as PostInput.ImageData
	Latitude            *float64      `json:"latitude,omitempty"`
	Longitude           *float64      `json:"longitude,omitempty"`
	Address             *string       `json:"address,omitempty"`
	CreatedAt           Timestamp     `json:"createdAt"`
	Likes               int           `json:"likes"`
	BrothType           BrothType     `json:"brothType,omitempty"`
	SpiceLevel          SpiceLevel    `json:"spiceLevel,omitempty"`
	NoodleTexture       NoodleTexture `json:"noodleTexture,omitempty"`
}

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinate returns the post location. ok is false unless both latitude and
// longitude are present.
func (p *Post) Coordinate() (Coordinate, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude}, true
}

// PostInput is the request body for creating or updating a post.
// ImageData carries base64-encoded image bytes; there is no multipart path.
type PostInput struct {
	RestaurantName string   `json:"restaurantName"`
	RamenName      string   `json:"ramenName"`
	Rating         float64  `json:"rating"`
	Review         *string  `json:"review,omitempty"`
	ImageURL       *string  `json:"imageURL,omitempty"`
	ImageData      *string  `json:"imageData,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	Address        *string  `json:"address,omitempty"`
	BrothType      *string  `json:"brothType,omitempty"`
	SpiceLevel     *string  `json:"spiceLevel,omitempty"`
	NoodleTexture  *string  `json:"noodleTexture,omitempty"`
}

// NewPostInput builds the wire body for p. Unset tags are omitted.
func NewPostInput(p *Post) PostInput {
	in := PostInput{
		RestaurantName: p.RestaurantName,
		RamenName:      p.RamenName,
		Rating:         p.Rating,
		Review:         p.Review,
		ImageURL:       p.ImageURL,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		Address:        p.Address,
	}
	if p.BrothType.IsSet() {
		in.BrothType = stringPtr(p.BrothType.Token())
	}
	if p.SpiceLevel.IsSet() {
		in.SpiceLevel = stringPtr(p.SpiceLevel.Token())
	}
	if p.NoodleTexture.IsSet() {
		in.NoodleTexture = stringPtr(p.NoodleTexture.Token())
	}
	return in
}

func stringPtr(s string) *string { return &s }
