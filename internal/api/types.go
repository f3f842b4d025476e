package api

import "time"

// AuthUser is the authenticated user's profile as returned by the auth API.
type AuthUser struct {
	ID         string    `json:"_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullname"`
	ProfilePic string    `json:"profilepic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// User is another user eligible to exchange messages with the current one.
type User struct {
	ID         string `json:"_id"`
	FullName   string `json:"fullname"`
	ProfilePic string `json:"profilepic,omitempty"`
}

// Message is a single chat message. At least one of Text/Image is set.
type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SignUpRequest is the body of POST /api/auth/signup.
type SignUpRequest struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest is the body of POST /api/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate is a partial profile update. Nil fields are omitted.
type ProfileUpdate struct {
	FullName   *string `json:"fullname,omitempty"`
	ProfilePic *string `json:"profilepic,omitempty"`
}
