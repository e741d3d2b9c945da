// Package identity 用户目录与会话管理
//
// 目录持有当前会话状态并对外广播登录/登出变化（nil 表示已登出），
// 镜像不透明认证提供方的契约：订阅方只关心"现在是谁"。
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"campus-catalog/internal/shared/blob"
	"campus-catalog/internal/shared/eventbus"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	"campus-catalog/pkg/logging"
)

// ErrInvalidCredentials 邮箱不存在或凭据不匹配
// 两种情况不作区分，避免探测已注册邮箱
var ErrInvalidCredentials = errors.New("invalid email or credential")

// Directory 用户目录服务
type Directory struct {
	store storage.UserStore
	blobs blob.Store
	bus   eventbus.Bus
	cfg   Config
	log   *logging.Logger

	mu      sync.Mutex
	current *model.User
	subs    []chan *model.User
}

// NewDirectory 创建用户目录服务
func NewDirectory(store storage.UserStore, blobs blob.Store, bus eventbus.Bus, cfg Config, log *logging.Logger) *Directory {
	if log == nil {
		log = logging.Default("identity")
	}
	return &Directory{store: store, blobs: blobs, bus: bus, cfg: cfg, log: log}
}

// generateID 生成带前缀的唯一标识符（prefix-xxxxxxxxxxxx）
func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}

// photoKey 用户头像的固定存储 key；同 key 覆盖写，换头像无需清理旧对象
func photoKey(userID string) string {
	return "users/" + userID + "/photo"
}

// DefaultPhotoURL 注册时写入的占位头像引用
// 上传真实头像前档案不存在"无头像"状态
const DefaultPhotoURL = "https://www.gravatar.com/avatar/?d=mp"

// Authenticate 邮箱 + 凭据登录
//
// 成功后目录进入已登录状态并广播；返回净化后的用户与会话令牌。
func (d *Directory) Authenticate(ctx context.Context, email, credential string) (*model.User, string, error) {
	user, err := d.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || !CheckCredential(credential, user.Credential) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := GenerateSessionToken(d.cfg, user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("issue session token: %w", err)
	}

	clean := user.Sanitized()
	d.setCurrent(clean)
	d.log.WithUserID(user.ID).Info("User signed in", "email", user.Email, "role", user.Role)
	return clean, token, nil
}

// Register 注册新用户；role 为空时默认学生
func (d *Directory) Register(ctx context.Context, name, email, credential string, role model.UserRole) (*model.User, error) {
	if role == "" {
		role = model.UserRoleStudent
	}
	hash, err := HashCredential(credential)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:         generateID("user"),
		Email:      email,
		Name:       name,
		Credential: hash,
		Role:       role,
		Photo:      model.ExternalRef(DefaultPhotoURL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := d.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	d.publish(ctx, eventbus.ChangeCreated, user.ID)
	d.log.WithUserID(user.ID).Info("User registered", "email", email, "role", role)
	return user.Sanitized(), nil
}

// Update 更新用户档案
//
// patch 的 nil 字段保持不变，Credential 为空字符串同样视为不变。
// 头像指令先于任何记录写入执行：上传失败返回 ErrMediaUpload，
// 记录保持原样。
func (d *Directory) Update(ctx context.Context, id string, patch *model.UserPatch, photo model.MediaUpdate) (*model.User, error) {
	user, err := d.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, storage.ErrNotFound
	}

	// 先完成媒体上传，再碰记录
	var removedPhotoKey string
	switch photo.Op {
	case model.MediaSetFile:
		key := photoKey(id)
		// 旧引用不在固定 key 上时（历史数据）按孤儿清理
		if user.Photo.IsBlob() && user.Photo.Value != key {
			removedPhotoKey = user.Photo.Value
		}
		start := time.Now()
		if err := d.blobs.Put(ctx, key, photo.File.Data, photo.File.ContentType); err != nil {
			d.log.BlobLog("put", key, len(photo.File.Data), time.Since(start), err)
			return nil, fmt.Errorf("%w: %v", storage.ErrMediaUpload, err)
		}
		d.log.BlobLog("put", key, len(photo.File.Data), time.Since(start), nil)
		user.Photo = model.BlobRef(key)
	case model.MediaSetURL:
		if user.Photo.IsBlob() {
			removedPhotoKey = user.Photo.Value
		}
		user.Photo = model.ExternalRef(photo.URL)
	case model.MediaRemove:
		if user.Photo.IsBlob() {
			removedPhotoKey = user.Photo.Value
		}
		user.Photo = nil
	}

	if patch != nil {
		if patch.Name != nil {
			user.Name = *patch.Name
		}
		if patch.Email != nil {
			user.Email = *patch.Email
		}
		if patch.Role != nil {
			user.Role = *patch.Role
		}
		if patch.Credential != nil && *patch.Credential != "" {
			hash, err := HashCredential(*patch.Credential)
			if err != nil {
				return nil, fmt.Errorf("hash credential: %w", err)
			}
			user.Credential = hash
		}
	}
	user.UpdatedAt = time.Now()

	if err := d.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	// 记录已提交，孤儿对象清理失败只记日志
	if removedPhotoKey != "" {
		if err := d.blobs.Delete(ctx, removedPhotoKey); err != nil {
			d.log.WithError(err).Warn("Orphan photo cleanup failed", "key", removedPhotoKey)
		}
	}

	clean := user.Sanitized()
	d.refreshCurrent(clean)
	d.publish(ctx, eventbus.ChangeUpdated, id)
	return clean, nil
}

// Remove 删除目录条目
//
// 不级联课程/选课/评价：悬空引用由读取侧降级为 Unknown 展示。
// 被删的是当前会话用户时顺带登出。
func (d *Directory) Remove(ctx context.Context, id string) error {
	user, err := d.store.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return storage.ErrNotFound
	}

	if err := d.store.DeleteUser(ctx, id); err != nil {
		return err
	}

	if user.Photo.IsBlob() {
		if err := d.blobs.Delete(ctx, user.Photo.Value); err != nil {
			d.log.WithError(err).Warn("Orphan photo cleanup failed", "key", user.Photo.Value)
		}
	}

	d.mu.Lock()
	signedOut := d.current != nil && d.current.ID == id
	d.mu.Unlock()
	if signedOut {
		d.SignOut()
	}

	d.publish(ctx, eventbus.ChangeDeleted, id)
	d.log.WithUserID(id).Info("User removed")
	return nil
}

// GetByID 按 id 查询；不存在时 (nil, nil)
func (d *Directory) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := d.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

// ListAll 返回全部用户（已净化）
func (d *Directory) ListAll(ctx context.Context) ([]*model.User, error) {
	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	clean := make([]*model.User, 0, len(users))
	for _, u := range users {
		clean = append(clean, u.Sanitized())
	}
	return clean, nil
}

// ResolvePhotoURL 解析头像展示 URL；无头像或外部 URL 时直接返回
func (d *Directory) ResolvePhotoURL(ctx context.Context, user *model.User) (string, error) {
	if user == nil || user.Photo == nil {
		return "", nil
	}
	if !user.Photo.IsBlob() {
		return user.Photo.Value, nil
	}
	return d.blobs.Resolve(ctx, user.Photo.Value)
}

// ============================================================================
// 会话状态
// ============================================================================

// Current 当前会话用户；nil 表示未登录
func (d *Directory) Current() *model.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// SignOut 登出并广播
func (d *Directory) SignOut() {
	d.setCurrent(nil)
}

// Subscribe 订阅会话状态变化；nil 表示登出
func (d *Directory) Subscribe() <-chan *model.User {
	ch := make(chan *model.User, 16)
	d.mu.Lock()
	d.subs = append(d.subs, ch)
	d.mu.Unlock()
	return ch
}

func (d *Directory) setCurrent(user *model.User) {
	d.mu.Lock()
	d.current = user
	subs := d.subs
	d.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- user:
		default:
		}
	}
}

// refreshCurrent 档案变更后同步当前会话快照
func (d *Directory) refreshCurrent(user *model.User) {
	d.mu.Lock()
	match := d.current != nil && user != nil && d.current.ID == user.ID
	d.mu.Unlock()
	if match {
		d.setCurrent(user)
	}
}

func (d *Directory) publish(ctx context.Context, t eventbus.ChangeType, id string) {
	if d.bus == nil {
		return
	}
	err := d.bus.PublishChange(ctx, &eventbus.Change{
		Collection: eventbus.ColUsers,
		Type:       t,
		EntityID:   id,
		Timestamp:  time.Now(),
	})
	if err != nil {
		d.log.WithError(err).Warn("Change publish failed", "collection", eventbus.ColUsers)
	}
}
