package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cashflow/internal/auth"
	"cashflow/internal/logging"
	"cashflow/internal/models"
)

func newUserFixture(t *testing.T, photos PhotoStore) (*UserService, *memUserRepo, *models.User) {
	t.Helper()
	users := newMemUserRepo()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("password123")
	require.NoError(t, err)

	u := &models.User{ID: "u1", Email: "ana@example.com", Name: "Ana", PasswordHash: hash}
	require.NoError(t, users.Create(context.Background(), u))
	require.NoError(t, users.Create(context.Background(), &models.User{ID: "u2", Email: "bob@example.com", Name: "Bob"}))

	return NewUserService(users, hasher, photos, logging.Discard()), users, u
}

func strPtr(s string) *string { return &s }

func TestUserServiceGet(t *testing.T) {
	svc, _, _ := newUserFixture(t, nil)

	u, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)

	_, err = svc.Get(context.Background(), "missing")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUserServiceUpdate(t *testing.T) {
	svc, _, _ := newUserFixture(t, nil)

	u, err := svc.Update(context.Background(), "u1", models.UpdateUserRequest{
		Surname: strPtr("Silva"),
		Email:   strPtr("  Ana.Silva@Example.com "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "Silva", u.Surname)
	assert.Equal(t, "ana.silva@example.com", u.Email)
}

func TestUserServiceUpdateErrors(t *testing.T) {
	svc, _, _ := newUserFixture(t, nil)

	_, err := svc.Update(context.Background(), "u1", models.UpdateUserRequest{})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Update(context.Background(), "u1", models.UpdateUserRequest{Email: strPtr("nope")})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Update(context.Background(), "u1", models.UpdateUserRequest{Email: strPtr("bob@example.com")})
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = svc.Update(context.Background(), "missing", models.UpdateUserRequest{Name: strPtr("X")})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUserServiceChangePassword(t *testing.T) {
	svc, users, _ := newUserFixture(t, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
	assert.Equal(t, KindInvalidCredential, KindOf(err))

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "short"})
	assert.Equal(t, KindValidation, KindOf(err))

	require.NoError(t, svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}))

	u, err := users.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpassword1")))
}

func TestUserServiceDelete(t *testing.T) {
	svc, _, _ := newUserFixture(t, nil)

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	assert.Equal(t, KindNotFound, KindOf(svc.Delete(context.Background(), "u1")))
}

func TestUserServiceUploadPhoto(t *testing.T) {
	store := &memPhotoStore{}
	svc, _, _ := newUserFixture(t, store)

	u, err := svc.UploadPhoto(context.Background(), "u1", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u.Photo, "https://cdn.example.com/users/u1/"), u.Photo)
	assert.True(t, strings.HasSuffix(u.Photo, ".png"))
	require.Len(t, store.objects, 1)
	for _, b := range store.objects {
		assert.Equal(t, "png-bytes", string(b))
	}
}

func TestUserServiceUploadPhotoRejections(t *testing.T) {
	svc, _, _ := newUserFixture(t, nil)
	_, err := svc.UploadPhoto(context.Background(), "u1", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrPhotoStorageDisabled)

	store := &memPhotoStore{}
	svc, _, _ = newUserFixture(t, store)

	_, err = svc.UploadPhoto(context.Background(), "u1", "application/pdf", strings.NewReader("x"))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.UploadPhoto(context.Background(), "missing", "image/jpeg", strings.NewReader("x"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Empty(t, store.objects)

	store.err = errBoom
	_, err = svc.UploadPhoto(context.Background(), "u1", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, errBoom)
}
