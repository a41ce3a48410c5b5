// Package models contains data structures for the Slurp Social domain and its
// wire format.
package models

// User is the authenticated identity returned by the API.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"displayName"`
	ProfileImageURL *string   `json:"profileImageURL,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	JoinDate        Timestamp `json:"joinDate"`
	RamenCount      int       `json:"ramenCount"`
}

// Clone returns a deep copy so callers cannot mutate shared session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ProfileImageURL != nil {
		v := *u.ProfileImageURL
		c.ProfileImageURL = &v
	}
	if u.Bio != nil {
		v := *u.Bio
		c.Bio = &v
	}
	return &c
}
