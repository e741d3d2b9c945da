// Package blob 定义二进制媒体存储抽象接口
//
// 存储引用与展示 URL 分离：Put 返回的 key 写进记录，
// 展示时再经 Resolve 换取 URL。两个实现的 Resolve 契约不对称：
//   - local/（嵌入式）：URL 仅在当前进程生命周期内有效，重启后失效
//   - minio/（托管）：预签名下载 URL，跨进程稳定（到期前）
//
// 调用方必须每次展示前重新 Resolve，绝不把解析结果写回记录。
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound 引用的对象不存在
var ErrNotFound = errors.New("blob not found")

// Store 媒体存储接口
type Store interface {
	// Put 把字节写到指定 key；同 key 重复写入为 last-write-wins。
	// 依赖该对象的记录写入必须等 Put 成功返回后才能发起。
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Resolve 把存储 key 换成可访问的展示 URL
	Resolve(ctx context.Context, key string) (string, error)

	// Open 读取对象内容，调用方负责关闭
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Delete 删除对象；删除不存在的 key 不报错
	Delete(ctx context.Context, key string) error
}
