package main

import (
	"bytes"
	"testing"

	"slurpsocial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func samplePost() *models.Post {
	username := "noodlefan"
	return &models.Post{
		ID:             "p1",
		UserID:         "u1",
		Username:       &username,
		RestaurantName: "Ichiran",
		RamenName:      "Classic Tonkotsu",
		Rating:         4.5,
		Likes:          3,
		BrothType:      models.ParseBrothType("TONKOTSU"),
	}
}

func TestNewPrinterRejectsUnknownFormat(t *testing.T) {
	_, err := newPrinter(&bytes.Buffer{}, "xml", true)
	assert.Error(t, err)
}

func TestStars(t *testing.T) {
	assert.Equal(t, "★★★★½", stars(4.5))
	assert.Equal(t, "★", stars(1))
}

func TestPrinterText(t *testing.T) {
	var buf bytes.Buffer
	p, err := newPrinter(&buf, formatText, true)
	require.NoError(t, err)

	require.NoError(t, p.posts([]models.Post{*samplePost()}))
	out := buf.String()
	assert.Contains(t, out, "Classic Tonkotsu at Ichiran")
	assert.Contains(t, out, "@noodlefan · 3 likes")
	assert.Contains(t, out, "[p1]")

	buf.Reset()
	require.NoError(t, p.posts(nil))
	assert.Contains(t, buf.String(), "No posts")

	buf.Reset()
	require.NoError(t, p.user(nil))
	assert.Contains(t, buf.String(), "Not logged in")
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p, err := newPrinter(&buf, formatJSON, true)
	require.NoError(t, err)

	require.NoError(t, p.post(samplePost()))
	assert.Contains(t, buf.String(), `"restaurantName": "Ichiran"`)
	assert.Contains(t, buf.String(), `"brothType": "TONKOTSU"`)

	// Messages are for humans only.
	buf.Reset()
	p.message("Posted %s", "p1")
	assert.Empty(t, buf.String())
}

func TestPrinterYAMLUsesWireNames(t *testing.T) {
	var buf bytes.Buffer
	p, err := newPrinter(&buf, formatYAML, true)
	require.NoError(t, err)

	require.NoError(t, p.post(samplePost()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "Ichiran", decoded["restaurantName"])
	assert.Equal(t, 4.5, decoded["rating"])
	assert.Equal(t, "noodlefan", decoded["username"])
}
