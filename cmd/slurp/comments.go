package main

import (
	"fmt"
	"slices"
	"strings"

	"slurpsocial/internal/models"

	"github.com/spf13/cobra"
)

var commentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "List, add, or delete comments on a post",
}

var commentsListCmd = &cobra.Command{
	Use:   "list POST_ID",
	Short: "List comments on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comments, err := rt.Comments.List(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return out.comments(comments)
	},
}

var commentsAddCmd = &cobra.Command{
	Use:   "add POST_ID TEXT...",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		comment, err := rt.Comments.Create(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		out.message("Commented %s", comment.ID)
		return out.comments([]models.Comment{*comment})
	},
}

var commentsDeleteCmd = &cobra.Command{
	Use:   "delete POST_ID COMMENT_ID",
	Short: "Delete a comment (yours, or any on your post)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		post, err := rt.Posts.GetByID(ctx, args[0])
		if err != nil {
			return err
		}
		comments, err := rt.Comments.List(ctx, post.ID)
		if err != nil {
			return err
		}
		idx := slices.IndexFunc(comments, func(c models.Comment) bool { return c.ID == args[1] })
		if idx < 0 {
			return fmt.Errorf("comment %s not found on post %s", args[1], post.ID)
		}
		if err := rt.Comments.Delete(ctx, post, &comments[idx]); err != nil {
			return err
		}
		out.message("Deleted comment %s", args[1])
		return nil
	},
}

func init() {
	commentsCmd.AddCommand(commentsListCmd, commentsAddCmd, commentsDeleteCmd)
	rootCmd.AddCommand(commentsCmd)
}
