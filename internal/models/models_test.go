package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Decode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"Fractional Seconds", `"2025-12-31T10:20:30.123Z"`, time.Date(2025, 12, 31, 10, 20, 30, 123000000, time.UTC), false},
		{"Whole Seconds", `"2025-12-31T10:20:30Z"`, time.Date(2025, 12, 31, 10, 20, 30, 0, time.UTC), false},
		{"Offset", `"2025-12-31T19:20:30+09:00"`, time.Date(2025, 12, 31, 10, 20, 30, 0, time.UTC), false},
		{"Date Only", `"2025-12-31"`, time.Time{}, true},
		{"Garbage", `"yesterday"`, time.Time{}, true},
		{"Number", `12345`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestamp_EncodesISO8601(t *testing.T) {
	t.Parallel()
	ts := NewTimestamp(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-02T03:04:05Z"`, string(b))
}

func TestTags_LenientDecode(t *testing.T) {
	t.Parallel()

	var p Post
	err := json.Unmarshal([]byte(`{
		"id": "p1", "userId": "u1", "restaurantName": "Ichiran", "ramenName": "Classic",
		"rating": 4.5, "createdAt": "2026-01-01T00:00:00Z", "likes": 0,
		"brothType": "tonkotsu", "spiceLevel": "SCORCHING", "noodleTexture": null
	}`), &p)
	require.NoError(t, err)

	assert.Equal(t, BrothTonkotsu, p.BrothType)
	assert.Equal(t, SpiceUnset, p.SpiceLevel, "unknown token decodes to unset")
	assert.Equal(t, NoodleUnset, p.NoodleTexture)
	assert.False(t, p.SpiceLevel.IsSet())
}

func TestTags_TokensAndDisplayNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "EXTRA_FIRM", NoodleExtraFirm.Token())
	assert.Equal(t, "Extra Firm", NoodleExtraFirm.String())
	assert.Equal(t, "Not Spicy", SpiceNone.String())
	assert.Equal(t, BrothShoyu, ParseBrothType(" shoyu "))
	assert.Equal(t, NoodleExtraFirm, ParseNoodleTexture("extra_firm"))
	assert.Equal(t, BrothUnset, ParseBrothType("PORK"))

	for i, level := range []SpiceLevel{SpiceNone, SpiceMild, SpiceMedium, SpiceHot, SpiceExtreme} {
		scale, ok := level.Scale()
		require.True(t, ok)
		assert.Equal(t, i, scale)
	}
	_, ok := SpiceUnset.Scale()
	assert.False(t, ok)
}

func TestPost_RoundTrip(t *testing.T) {
	t.Parallel()
	review := "Rich and creamy"
	post := &Post{
		RestaurantName: "Ippudo",
		RamenName:      "Shiromaru",
		Rating:         4.5,
		Review:         &review,
		BrothType:      BrothTonkotsu,
		SpiceLevel:     SpiceMedium,
		NoodleTexture:  NoodleExtraFirm,
	}

	body, err := json.Marshal(NewPostInput(post))
	require.NoError(t, err)
	assert.Contains(t, string(body), `"brothType":"TONKOTSU"`)
	assert.Contains(t, string(body), `"spiceLevel":"MEDIUM"`)
	assert.Contains(t, string(body), `"noodleTexture":"EXTRA_FIRM"`)

	// Servers may echo tokens in any case.
	echoed := strings.NewReplacer("TONKOTSU", "Tonkotsu", "EXTRA_FIRM", "extra_firm").Replace(string(body))
	echoed = strings.TrimSuffix(echoed, "}") + `,"id":"p1","userId":"u1","createdAt":"2026-01-01T00:00:00.5Z","likes":0}`

	var decoded Post
	require.NoError(t, json.Unmarshal([]byte(echoed), &decoded))
	assert.Equal(t, post.RestaurantName, decoded.RestaurantName)
	assert.Equal(t, post.RamenName, decoded.RamenName)
	assert.Equal(t, post.Rating, decoded.Rating)
	assert.Equal(t, post.BrothType, decoded.BrothType)
	assert.Equal(t, post.SpiceLevel, decoded.SpiceLevel)
	assert.Equal(t, post.NoodleTexture, decoded.NoodleTexture)
}

func TestPostInput_OmitsUnsetTags(t *testing.T) {
	t.Parallel()
	body, err := json.Marshal(NewPostInput(&Post{RestaurantName: "a", RamenName: "b", Rating: 3}))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "brothType")
	assert.NotContains(t, string(body), "imageData")
}

func TestPost_Coordinate(t *testing.T) {
	t.Parallel()
	lat, lon := 35.66, 139.70

	_, ok := (&Post{Latitude: &lat}).Coordinate()
	assert.False(t, ok, "latitude alone is not a coordinate")

	_, ok = (&Post{Longitude: &lon}).Coordinate()
	assert.False(t, ok)

	c, ok := (&Post{Latitude: &lat, Longitude: &lon}).Coordinate()
	require.True(t, ok)
	assert.Equal(t, Coordinate{Latitude: lat, Longitude: lon}, c)
}

func TestComment_CanDelete(t *testing.T) {
	t.Parallel()
	post := &Post{ID: "p1", UserID: "owner"}
	c := &Comment{ID: "c1", PostID: "p1", UserID: "author"}

	assert.True(t, c.CanDelete("author", post))
	assert.True(t, c.CanDelete("owner", post))
	assert.False(t, c.CanDelete("stranger", post))
	assert.False(t, c.CanDelete("", post))
}

func TestUser_CloneIsDeep(t *testing.T) {
	t.Parallel()
	bio := "slurper"
	u := &User{ID: "u1", Bio: &bio}
	c := u.Clone()
	*c.Bio = "changed"
	assert.Equal(t, "slurper", *u.Bio)
}

func TestPost_ImageDataIsLocalOnly(t *testing.T) {
	t.Parallel()
	raw := `{"id":"p1","userId":"u1","restaurantName":"R","ramenName":"N","rating":4,` +
		`"imageData":"%%% not base64 %%%","createdAt":"2026-01-01T00:00:00Z","likes":2}`

	var decoded Post
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "p1", decoded.ID)
	assert.Equal(t, 2, decoded.Likes)
	assert.Nil(t, decoded.ImageData)

	decoded.ImageData = []byte{1, 2, 3}
	body, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "imageData")
}
