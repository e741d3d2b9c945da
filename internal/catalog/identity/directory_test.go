package identity

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-catalog/internal/shared/blob"
	"campus-catalog/internal/shared/blob/local"
	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	sqlitedriver "campus-catalog/internal/shared/storage/driver/sqlite"
	"campus-catalog/internal/shared/storage/repository"
)

func newTestDirectory(t *testing.T) (*Directory, *local.Store) {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })

	blobs, err := local.NewStore(t.TempDir())
	require.NoError(t, err)

	cfg := Config{JWTSecret: "test-secret", TokenTTL: time.Hour}
	return NewDirectory(store, blobs, eventbus.NewMemoryBus(), cfg, nil), blobs
}

func TestRegisterAndAuthenticate(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	user, err := d.Register(ctx, "Alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleStudent, user.Role, "empty role defaults to student")
	assert.Empty(t, user.Credential, "query results never carry the credential")

	got, token, err := d.Authenticate(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Empty(t, got.Credential)

	claims, err := ParseSessionToken(Config{JWTSecret: "test-secret", TokenTTL: time.Hour}, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)

	// 错误密码与不存在的邮箱返回同一错误
	_, _, err = d.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = d.Authenticate(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterAssignsPlaceholderPhoto(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	user, err := d.Register(ctx, "Alice", "alice@example.com", "secret123", "")
	require.NoError(t, err)
	require.NotNil(t, user.Photo, "new profiles carry a placeholder photo reference")
	assert.Equal(t, model.MediaKindExternal, user.Photo.Kind)
	assert.Equal(t, DefaultPhotoURL, user.Photo.Value)

	got, err := d.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Photo)
	assert.Equal(t, DefaultPhotoURL, got.Photo.Value)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.Register(ctx, "Alice", "alice@example.com", "pw", model.UserRoleTeacher)
	require.NoError(t, err)
	_, err = d.Register(ctx, "Imposter", "alice@example.com", "pw2", "")
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)
}

func TestSessionStream(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.Register(ctx, "Alice", "alice@example.com", "pw", "")
	require.NoError(t, err)

	ch := d.Subscribe()
	assert.Nil(t, d.Current())

	_, _, err = d.Authenticate(ctx, "alice@example.com", "pw")
	require.NoError(t, err)
	select {
	case u := <-ch:
		require.NotNil(t, u)
		assert.Equal(t, "alice@example.com", u.Email)
	case <-time.After(time.Second):
		t.Fatal("sign-in not broadcast")
	}
	assert.NotNil(t, d.Current())

	d.SignOut()
	select {
	case u := <-ch:
		assert.Nil(t, u, "nil means signed out")
	case <-time.After(time.Second):
		t.Fatal("sign-out not broadcast")
	}
	assert.Nil(t, d.Current())
}

func TestUpdateProfile(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	user, err := d.Register(ctx, "Alice", "alice@example.com", "oldpw", "")
	require.NoError(t, err)

	// 空字符串凭据视为不变
	name := "Alice Renamed"
	empty := ""
	_, err = d.Update(ctx, user.ID, &model.UserPatch{Name: &name, Credential: &empty}, model.KeepMedia())
	require.NoError(t, err)
	_, _, err = d.Authenticate(ctx, "alice@example.com", "oldpw")
	require.NoError(t, err, "credential must be unchanged")

	// 非空凭据被重哈希
	newpw := "newpw"
	_, err = d.Update(ctx, user.ID, &model.UserPatch{Credential: &newpw}, model.KeepMedia())
	require.NoError(t, err)
	_, _, err = d.Authenticate(ctx, "alice@example.com", "oldpw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	got, _, err := d.Authenticate(ctx, "alice@example.com", "newpw")
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", got.Name)

	_, err = d.Update(ctx, "user-missing", &model.UserPatch{Name: &name}, model.KeepMedia())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdatePhoto(t *testing.T) {
	d, blobs := newTestDirectory(t)
	ctx := context.Background()

	user, err := d.Register(ctx, "Alice", "alice@example.com", "pw", "")
	require.NoError(t, err)

	file := &model.FileUpload{Name: "me.png", ContentType: "image/png", Data: []byte("png-bytes")}
	got, err := d.Update(ctx, user.ID, nil, model.SetMediaFile(file))
	require.NoError(t, err)
	require.True(t, got.Photo.IsBlob())

	ok, err := blobs.Exists(ctx, got.Photo.Value)
	require.NoError(t, err)
	assert.True(t, ok, "photo bytes stored before the reference was written")

	url, err := d.ResolvePhotoURL(ctx, got)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	// 移除后引用清空，对象被清理
	key := got.Photo.Value
	got, err = d.Update(ctx, user.ID, nil, model.RemoveMedia())
	require.NoError(t, err)
	assert.Nil(t, got.Photo)
	ok, err = blobs.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

// failingBlob Put 永远失败的 blob.Store 桩
type failingBlob struct{}

var errBlobDown = errors.New("blob store down")

func (failingBlob) Put(context.Context, string, []byte, string) error { return errBlobDown }
func (failingBlob) Resolve(context.Context, string) (string, error)   { return "", errBlobDown }
func (failingBlob) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errBlobDown
}
func (failingBlob) Exists(context.Context, string) (bool, error) { return false, errBlobDown }
func (failingBlob) Delete(context.Context, string) error         { return errBlobDown }

var _ blob.Store = failingBlob{}

func TestUpdatePhotoUploadFailure(t *testing.T) {
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := repository.NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })

	d := NewDirectory(store, failingBlob{}, nil, Config{JWTSecret: "s", TokenTTL: time.Hour}, nil)
	ctx := context.Background()

	user, err := d.Register(ctx, "Alice", "alice@example.com", "pw", "")
	require.NoError(t, err)

	name := "Changed"
	file := &model.FileUpload{Name: "me.png", ContentType: "image/png", Data: []byte("x")}
	_, err = d.Update(ctx, user.ID, &model.UserPatch{Name: &name}, model.SetMediaFile(file))
	assert.ErrorIs(t, err, storage.ErrMediaUpload)

	// 上传失败时记录写入未被尝试
	got, err := d.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	require.NotNil(t, got.Photo)
	assert.Equal(t, DefaultPhotoURL, got.Photo.Value, "photo reference unchanged")
}

func TestRemove(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	user, err := d.Register(ctx, "Alice", "alice@example.com", "pw", "")
	require.NoError(t, err)
	_, _, err = d.Authenticate(ctx, "alice@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, d.Remove(ctx, user.ID))
	assert.Nil(t, d.Current(), "removing the session user signs out")

	got, err := d.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, d.Remove(ctx, user.ID), storage.ErrNotFound)
}

func TestListAllSanitized(t *testing.T) {
	d, _ := newTestDirectory(t)
	ctx := context.Background()

	_, err := d.Register(ctx, "Alice", "alice@example.com", "pw", "")
	require.NoError(t, err)
	_, err = d.Register(ctx, "Tom", "tom@example.com", "pw", model.UserRoleTeacher)
	require.NoError(t, err)

	users, err := d.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.Credential)
	}
}
