package domain

// User is the authenticated identity attached to rooms and messages.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserRecord is the stored form of a user account.
type UserRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

// CredentialsRequest is the payload for sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned on successful sign-up or sign-in.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
