package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cashflow/internal/auth"
	"cashflow/internal/logging"
	"cashflow/internal/models"
	"cashflow/internal/repository"
)

var ErrPhotoStorageDisabled = errors.New("photo storage is not configured")

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UserService serves the authenticated account endpoints.
type UserService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	photos PhotoStore
	log    logging.Logger
	v      *validator.Validate
}

func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, photos PhotoStore, log logging.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		photos: photos,
		log:    log.With("component", "user"),
		v:      newValidator(),
	}
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, msgUserNotFound, nil)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	if req.Empty() {
		return nil, newError(KindValidation, "no fields to update", nil)
	}
	if req.Email != nil {
		e := normalizeEmail(*req.Email)
		req.Email = &e
	}
	if err := validate(s.v, req); err != nil {
		return nil, err
	}

	if err := s.users.UpdateProfile(ctx, id, &req); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, newError(KindNotFound, msgUserNotFound, nil)
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, newError(KindConflict, msgEmailTaken, nil)
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id string, req models.ChangePasswordRequest) error {
	if err := validate(s.v, req); err != nil {
		return err
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(u.PasswordHash, req.OldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return newError(KindInvalidCredential, msgInvalidCredentials, nil)
		}
		return fmt.Errorf("failed to compare password: %w", err)
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, msgUserNotFound, nil)
		}
		return err
	}

	s.log.Info(ctx, "password changed", "user_id", id)
	return nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, msgUserNotFound, nil)
		}
		return err
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// UploadPhoto stores an image and points the user's photo at it.
func (s *UserService) UploadPhoto(ctx context.Context, id string, contentType string, body io.Reader) (*models.User, error) {
	if s.photos == nil {
		return nil, ErrPhotoStorageDisabled
	}

	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, newError(KindValidation, "photo must be a jpeg, png, webp or gif image", nil)
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	key := path.Join("users", id, uuid.NewString()+ext)
	url, err := s.photos.Put(ctx, key, contentType, body)
	if err != nil {
		return nil, err
	}

	return s.Update(ctx, id, models.UpdateUserRequest{Photo: &url})
}
