package models

// Comment is a reply attached to a post. Author fields are denormalized for
// rendering and may be absent.
type Comment struct {
	ID                  string    `json:"id"`
	PostID              string    `json:"postId"`
	UserID              string    `json:"userId"`
	Username            *string   `json:"username,omitempty"`
	UserDisplayName     *string   `json:"userDisplayName,omitempty"`
	UserProfileImageURL *string   `json:"userProfileImageURL,omitempty"`
	Content             string    `json:"content"`
	CreatedAt           Timestamp `json:"createdAt"`
}

// CanDelete reports whether userID may delete c on post.
// Only the comment author or the owner of the post qualifies.
func (c *Comment) CanDelete(userID string, post *Post) bool {
	if userID == "" {
		return false
	}
	if c.UserID == userID {
		return true
	}
	return post != nil && post.UserID == userID
}
