// Package profile keeps the user's display name, email and avatar.
package profile

import (
	"context"
	"errors"
	"time"
)

// Common errors
var (
	// ErrNotFound indicates the user has no profile yet
	ErrNotFound = errors.New("profile not found")
	// ErrUnsupportedImage indicates an avatar that is not JPEG, PNG or WebP
	ErrUnsupportedImage = errors.New("unsupported image type")
	// ErrImageTooLarge indicates an avatar over MaxAvatarSize
	ErrImageTooLarge = errors.New("image too large")
	// ErrStorageDisabled indicates no avatar bucket is configured
	ErrStorageDisabled = errors.New("avatar storage is not configured")
	// ErrBackend indicates the profile table could not be reached or refused the request
	ErrBackend = errors.New("profile backend error")
)

// Profile is the per-user profile document
type Profile struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository persists profiles
type Repository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Put(ctx context.Context, p Profile) error
	SetImageURL(ctx context.Context, userID, imageURL string) error
}
