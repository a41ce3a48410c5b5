package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"slurpsocial/internal/models"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

type printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string, noColor bool) (*printer, error) {
	switch format {
	case formatText, formatJSON, formatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
	if noColor {
		color.NoColor = true
	}
	return &printer{w: w, format: format}, nil
}

// structured writes v as JSON or YAML. It reports false in text mode.
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		// Round-trip through JSON so YAML keys match the wire names.
		raw, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return true, err
		}
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(generic)
	default:
		return false, nil
	}
}

func (p *printer) user(u *models.User) error {
	if ok, err := p.structured(u); ok {
		return err
	}
	if u == nil {
		fmt.Fprintln(p.w, color.New(color.FgHiBlack).Sprint("Not logged in"))
		return nil
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(p.w, "%s (@%s)\n", bold(u.DisplayName), u.Username)
	fmt.Fprintf(p.w, "  Email:   %s\n", u.Email)
	fmt.Fprintf(p.w, "  Bowls:   %d\n", u.RamenCount)
	if !u.JoinDate.IsZero() {
		fmt.Fprintf(p.w, "  Joined:  %s\n", u.JoinDate.Format("2006-01-02"))
	}
	if u.Bio != nil && *u.Bio != "" {
		fmt.Fprintf(p.w, "  Bio:     %s\n", *u.Bio)
	}
	return nil
}

func stars(rating float64) string {
	full := int(rating)
	s := strings.Repeat("★", full)
	if rating-float64(full) >= 0.5 {
		s += "½"
	}
	return s
}

func (p *printer) postLine(post *models.Post) {
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	author := post.UserID
	if post.Username != nil {
		author = "@" + *post.Username
	}
	fmt.Fprintf(p.w, "%s %s at %s %s\n", yellow(stars(post.Rating)), cyan(post.RamenName), post.RestaurantName, gray("["+post.ID+"]"))

	var tags []string
	if post.BrothType.IsSet() {
		tags = append(tags, post.BrothType.String())
	}
	if post.SpiceLevel.IsSet() {
		tags = append(tags, post.SpiceLevel.String())
	}
	if post.NoodleTexture.IsSet() {
		tags = append(tags, post.NoodleTexture.String()+" noodles")
	}
	meta := fmt.Sprintf("%s · %d likes · %s", author, post.Likes, post.CreatedAt.Format("2006-01-02"))
	if len(tags) > 0 {
		meta += " · " + strings.Join(tags, ", ")
	}
	fmt.Fprintf(p.w, "  %s\n", gray(meta))
}

func (p *printer) post(post *models.Post) error {
	if ok, err := p.structured(post); ok {
		return err
	}
	p.postLine(post)
	if post.Review != nil && *post.Review != "" {
		fmt.Fprintf(p.w, "  %q\n", *post.Review)
	}
	if post.Address != nil {
		fmt.Fprintf(p.w, "  %s\n", *post.Address)
	}
	if c, ok := post.Coordinate(); ok {
		fmt.Fprintf(p.w, "  (%.5f, %.5f)\n", c.Latitude, c.Longitude)
	}
	return nil
}

func (p *printer) posts(posts []models.Post) error {
	if ok, err := p.structured(posts); ok {
		return err
	}
	if len(posts) == 0 {
		fmt.Fprintln(p.w, color.New(color.FgHiBlack).Sprint("No posts"))
		return nil
	}
	for i := range posts {
		p.postLine(&posts[i])
	}
	return nil
}

func (p *printer) comments(comments []models.Comment) error {
	if ok, err := p.structured(comments); ok {
		return err
	}
	if len(comments) == 0 {
		fmt.Fprintln(p.w, color.New(color.FgHiBlack).Sprint("No comments"))
		return nil
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	for _, c := range comments {
		author := c.UserID
		if c.Username != nil {
			author = "@" + *c.Username
		}
		fmt.Fprintf(p.w, "%s: %s %s\n", color.New(color.Bold).Sprint(author), c.Content, gray("["+c.ID+"]"))
	}
	return nil
}

func (p *printer) message(format string, args ...any) {
	if p.format != formatText {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(p.w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}
