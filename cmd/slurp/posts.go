package main

import (
	"bufio"
	"errors"
	"fmt"
	"image/png"
	"os"
	"time"

	"slurpsocial/internal/models"
	"slurpsocial/internal/search"
	"slurpsocial/internal/service"

	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listOffset int
	sortName   string
	brothName  string

	postRestaurant string
	postRamen      string
	postRating     float64
	postReview     string
	postImageURL   string
	postImageFile  string
	postLatitude   float64
	postLongitude  float64
	postAddress    string
	postBroth      string
	postSpice      string
	postNoodle     string

	nearbyLatitude  float64
	nearbyLongitude float64
	nearbyRadius    float64

	searchInteractive bool

	imageOut string
)

// arrange applies the --broth filter and --sort order on the client.
func arrange(posts []models.Post) ([]models.Post, error) {
	if brothName != "" {
		broth := models.ParseBrothType(brothName)
		if !broth.IsSet() {
			return nil, fmt.Errorf("unknown broth %q", brothName)
		}
		posts = service.FilterByBroth(posts, broth)
	}
	if sortName != "" {
		opt, err := service.ParseSortOption(sortName)
		if err != nil {
			return nil, err
		}
		posts = service.SortPosts(posts, opt)
	}
	return posts, nil
}

func addArrangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sortName, "sort", "", "Sort: newest, top-rated, most-liked")
	cmd.Flags().StringVar(&brothName, "broth", "", "Only show this broth (TONKOTSU, SHOYU, MISO, ...)")
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the latest posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		posts, err := rt.Posts.ListAll(cmd.Context(), listLimit, listOffset)
		if err != nil {
			return err
		}
		if posts, err = arrange(posts); err != nil {
			return err
		}
		return out.posts(posts)
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Show, create, edit, or delete a review",
}

var postShowCmd = &cobra.Command{
	Use:   "show POST_ID",
	Short: "Show one post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := rt.Posts.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return out.post(post)
	},
}

// applyPostFlags copies every flag the user set onto post.
func applyPostFlags(cmd *cobra.Command, post *models.Post) error {
	flags := cmd.Flags()
	if flags.Changed("restaurant") {
		post.RestaurantName = postRestaurant
	}
	if flags.Changed("ramen") {
		post.RamenName = postRamen
	}
	if flags.Changed("rating") {
		post.Rating = postRating
	}
	if flags.Changed("review") {
		post.Review = &postReview
	}
	if flags.Changed("image-url") {
		post.ImageURL = &postImageURL
	}
	if flags.Changed("address") {
		post.Address = &postAddress
	}
	if flags.Changed("lat") != flags.Changed("lon") {
		return errors.New("--lat and --lon must be given together")
	}
	if flags.Changed("lat") {
		post.Latitude = &postLatitude
		post.Longitude = &postLongitude
	}
	if flags.Changed("broth") {
		if post.BrothType = models.ParseBrothType(postBroth); !post.BrothType.IsSet() {
			return fmt.Errorf("unknown broth %q", postBroth)
		}
	}
	if flags.Changed("spice") {
		if post.SpiceLevel = models.ParseSpiceLevel(postSpice); !post.SpiceLevel.IsSet() {
			return fmt.Errorf("unknown spice level %q", postSpice)
		}
	}
	if flags.Changed("noodle") {
		if post.NoodleTexture = models.ParseNoodleTexture(postNoodle); !post.NoodleTexture.IsSet() {
			return fmt.Errorf("unknown noodle texture %q", postNoodle)
		}
	}
	return nil
}

func addPostFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&postRestaurant, "restaurant", "", "Restaurant name")
	cmd.Flags().StringVar(&postRamen, "ramen", "", "Ramen (dish) name")
	cmd.Flags().Float64Var(&postRating, "rating", 0, "Rating from 1 to 5 in half stars")
	cmd.Flags().StringVar(&postReview, "review", "", "Review text")
	cmd.Flags().StringVar(&postImageURL, "image-url", "", "Remote image URL")
	cmd.Flags().Float64Var(&postLatitude, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&postLongitude, "lon", 0, "Longitude")
	cmd.Flags().StringVar(&postAddress, "address", "", "Address")
	cmd.Flags().StringVar(&postBroth, "broth", "", "Broth: TONKOTSU, SHOYU, MISO, SHIO, TANTANMEN, TSUKEMEN, OTHER")
	cmd.Flags().StringVar(&postSpice, "spice", "", "Spice: NONE, MILD, MEDIUM, HOT, EXTREME")
	cmd.Flags().StringVar(&postNoodle, "noodle", "", "Noodles: SOFT, MEDIUM, FIRM, EXTRA_FIRM")
}

var postCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new review",
	RunE: func(cmd *cobra.Command, args []string) error {
		var post models.Post
		if err := applyPostFlags(cmd, &post); err != nil {
			return err
		}
		var image []byte
		if postImageFile != "" {
			data, err := os.ReadFile(postImageFile)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			image = data
		}
		created, err := rt.Posts.Create(cmd.Context(), &post, image)
		if err != nil {
			return err
		}
		out.message("Posted %s", created.ID)
		return out.post(created)
	},
}

var postUpdateCmd = &cobra.Command{
	Use:   "update POST_ID",
	Short: "Edit a review you wrote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := rt.Posts.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := applyPostFlags(cmd, post); err != nil {
			return err
		}
		updated, err := rt.Posts.Update(cmd.Context(), post)
		if err != nil {
			return err
		}
		out.message("Updated %s", updated.ID)
		return out.post(updated)
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete POST_ID",
	Short: "Delete a review you wrote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := rt.Posts.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		out.message("Deleted %s", args[0])
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like POST_ID",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := rt.Posts.Like(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out.message("Liked (%d likes)", post.Likes)
		return out.post(post)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search posts by restaurant, ramen, or review text",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchInteractive {
			return interactiveSearch(cmd)
		}
		if len(args) == 0 {
			return errors.New("a query is required")
		}
		posts, err := rt.Posts.Search(cmd.Context(), args[0], listLimit, listOffset)
		if err != nil {
			return err
		}
		if posts, err = arrange(posts); err != nil {
			return err
		}
		return out.posts(posts)
	},
}

// searchWait bounds the wait for the last query: the debounce plus a timed
// out first attempt and its retry.
func searchWait(requestTimeout time.Duration) time.Duration {
	return search.DefaultDebounce + 2*requestTimeout
}

// interactiveSearch reads one query per line; only the newest query's
// results are printed. At end of input it waits for the last query.
func interactiveSearch(cmd *cobra.Command) error {
	delivered := make(chan uint64, 1)
	searcher := rt.NewSearcher(func(res search.Result) {
		defer func() {
			select {
			case <-delivered:
			default:
			}
			delivered <- res.Seq
		}()
		if res.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "search %q failed: %v\n", res.Query, res.Err)
			return
		}
		posts, err := arrange(res.Posts)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "-- %q (%d) --\n", res.Query, len(posts))
		_ = out.posts(posts)
	})
	defer searcher.Stop()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		searcher.Submit(cmd.Context(), scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	last := searcher.Latest()
	timeout := time.After(searchWait(rt.Config.RequestTimeout()))
	for last > 0 {
		select {
		case seq := <-delivered:
			if seq == last {
				return nil
			}
		case <-timeout:
			return errors.New("timed out waiting for search results")
		case <-cmd.Context().Done():
			return nil
		}
	}
	return nil
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Show posts near a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return errors.New("--lat and --lon are required")
		}
		posts, err := rt.Posts.GetNearby(cmd.Context(), nearbyLatitude, nearbyLongitude, nearbyRadius)
		if err != nil {
			return err
		}
		return out.posts(posts)
	},
}

var userPostsCmd = &cobra.Command{
	Use:   "user-posts [USER_ID]",
	Short: "Show a user's posts (yours by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var userID string
		if len(args) == 1 {
			userID = args[0]
		} else if me := rt.Auth.CurrentUser(); me != nil {
			userID = me.ID
		} else {
			return models.ErrNotLoggedIn
		}
		// A slow or failing server prints an empty list.
		posts, err := arrange(rt.Blocking.ListForUser(cmd.Context(), userID))
		if err != nil {
			return err
		}
		return out.posts(posts)
	},
}

var imageCmd = &cobra.Command{
	Use:   "image POST_ID",
	Short: "Download a post's image as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := rt.Posts.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		img, err := rt.Images.Load(cmd.Context(), post)
		if err != nil {
			return err
		}

		path := imageOut
		if path == "" {
			path = post.ID + ".png"
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode image: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		b := img.Bounds()
		out.message("Saved %dx%d image to %s", b.Dx(), b.Dy(), path)
		return nil
	},
}

func init() {
	feedCmd.Flags().IntVar(&listLimit, "limit", service.DefaultPageLimit, "Page size")
	feedCmd.Flags().IntVar(&listOffset, "offset", 0, "Page offset")
	addArrangeFlags(feedCmd)

	addPostFlags(postCreateCmd)
	postCreateCmd.Flags().StringVar(&postImageFile, "image-file", "", "Image file to upload inline")
	addPostFlags(postUpdateCmd)
	postCmd.AddCommand(postShowCmd, postCreateCmd, postUpdateCmd, postDeleteCmd)

	searchCmd.Flags().IntVar(&listLimit, "limit", service.DefaultPageLimit, "Page size")
	searchCmd.Flags().IntVar(&listOffset, "offset", 0, "Page offset")
	searchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "Read queries from stdin as you type")
	addArrangeFlags(searchCmd)

	nearbyCmd.Flags().Float64Var(&nearbyLatitude, "lat", 0, "Latitude")
	nearbyCmd.Flags().Float64Var(&nearbyLongitude, "lon", 0, "Longitude")
	nearbyCmd.Flags().Float64Var(&nearbyRadius, "radius", service.DefaultNearbyRadius, "Radius in meters")

	addArrangeFlags(userPostsCmd)

	imageCmd.Flags().StringVar(&imageOut, "out", "", "Output file (default POST_ID.png)")

	rootCmd.AddCommand(feedCmd, postCmd, likeCmd, searchCmd, nearbyCmd, userPostsCmd, imageCmd)
}
