package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/s0up4200/flickpick/identity"
)

// Uploader stores avatar images
type Uploader interface {
	Upload(ctx context.Context, userID, contentType string, body io.Reader) (string, error)
}

// Changes are the editable profile fields. Empty fields are left unchanged.
type Changes struct {
	Name  string `validate:"omitempty,max=100"`
	Email string `validate:"omitempty,email"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func changesValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Service reads and edits profiles
type Service struct {
	repo    Repository
	avatars Uploader
	logger  zerolog.Logger
}

// NewService creates a new profile service. avatars may be nil when no bucket is configured.
func NewService(repo Repository, avatars Uploader, logger zerolog.Logger) *Service {
	return &Service{repo: repo, avatars: avatars, logger: logger}
}

// Get returns the user's profile
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, identity.ErrNoIdentity
	}
	return s.repo.Get(ctx, userID)
}

// Update applies the changes, creating the profile on first use
func (s *Service) Update(ctx context.Context, userID string, changes Changes) (*Profile, error) {
	if userID == "" {
		return nil, identity.ErrNoIdentity
	}

	changes.Name = strings.TrimSpace(changes.Name)
	changes.Email = strings.TrimSpace(changes.Email)
	if err := changesValidator().Struct(changes); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	current, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		current = &Profile{UserID: userID}
	case err != nil:
		return nil, err
	}

	if changes.Name != "" {
		current.Name = changes.Name
	}
	if changes.Email != "" {
		current.Email = changes.Email
	}

	if err := s.repo.Put(ctx, *current); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user", userID).Msg("Profile updated")
	return s.repo.Get(ctx, userID)
}

// UploadAvatar stores the image and points the profile at it
func (s *Service) UploadAvatar(ctx context.Context, userID, contentType string, body io.Reader) (string, error) {
	if userID == "" {
		return "", identity.ErrNoIdentity
	}
	if s.avatars == nil {
		return "", ErrStorageDisabled
	}

	url, err := s.avatars.Upload(ctx, userID, contentType, body)
	if err != nil {
		return "", err
	}

	if err := s.repo.SetImageURL(ctx, userID, url); err != nil {
		return "", err
	}

	s.logger.Info().Str("user", userID).Str("url", url).Msg("Avatar uploaded")
	return url, nil
}
