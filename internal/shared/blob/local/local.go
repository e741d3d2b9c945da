// Package local 本地文件系统的 blob.Store 实现（嵌入式后端）
//
// 字节按 key 落在根目录下；Resolve 发放进程生命周期内有效的
// 会话 URL（catalog-blob://<token>），token 表只存在内存里，
// 重启即失效，属于嵌入式后端文档化的临时 URL 契约，调用方
// 必须每次展示前重新 Resolve。
package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"campus-catalog/internal/shared/blob"
)

// Scheme 会话 URL 协议前缀
const Scheme = "catalog-blob://"

// Store 本地目录存储
type Store struct {
	root string

	mu       sync.RWMutex
	tokens   map[string]string // token → key
	resolved map[string]string // key → token（同一会话内重复 Resolve 复用）
}

var _ blob.Store = (*Store)(nil)

// NewStore 创建本地存储，根目录不存在时自动建立
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{
		root:     root,
		tokens:   map[string]string{},
		resolved: map[string]string{},
	}, nil
}

// path key 映射到根目录下的文件路径；斜杠保留为子目录
func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Put 写入字节；同 key 覆盖（last-write-wins）
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	// 先写临时文件再改名，避免半写状态被读到
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("commit blob %s: %w", key, err)
	}
	return nil
}

// Resolve 发放会话 URL；同一会话内对同一 key 返回同一 URL
func (s *Store) Resolve(ctx context.Context, key string) (string, error) {
	if _, err := os.Stat(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return "", blob.ErrNotFound
		}
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.resolved[key]; ok {
		return Scheme + token, nil
	}
	b := make([]byte, 16)
	rand.Read(b)
	token := hex.EncodeToString(b)
	s.tokens[token] = key
	s.resolved[key] = token
	return Scheme + token, nil
}

// KeyForURL 会话 URL 反查存储 key（展示层取字节用）
func (s *Store) KeyForURL(url string) (string, bool) {
	token, ok := strings.CutPrefix(url, Scheme)
	if !ok {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.tokens[token]
	return key, ok
}

// Open 读取对象内容，调用方负责关闭
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, blob.ErrNotFound
	}
	return f, err
}

// Exists 检查对象是否存在
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Delete 删除对象；不存在不报错
func (s *Store) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.resolved[key]; ok {
		delete(s.tokens, token)
		delete(s.resolved, key)
	}
	return nil
}
