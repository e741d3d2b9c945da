// Package model 定义目录系统的核心数据模型
//
// media.go 包含媒体引用与媒体槽更新指令：
//   - MediaRef：已存储媒体的不透明引用（blob key 或外部 URL）
//   - FileUpload：待上传的文件字节
//   - MediaUpdate：媒体槽的带标签更新指令（四态逻辑）
//
// 存储的引用与展示 URL 是两个概念：记录里只保存 MediaRef，
// 展示时再经 blob.Store.Resolve 换取 URL，解析结果绝不写回记录。
package model

// MediaKind 媒体引用类型
type MediaKind string

const (
	// MediaKindBlob 引用本系统 Blob Store 内的对象（值为存储 key）
	MediaKindBlob MediaKind = "blob"
	// MediaKindExternal 引用外部托管的 URL（值为 URL 本身）
	MediaKindExternal MediaKind = "external"
)

// MediaRef 媒体引用
//
// 同一个槽位同一时刻只会是 blob 或 external 之一，互斥。
type MediaRef struct {
	Kind  MediaKind `json:"kind" bson:"kind" db:"kind"`
	Value string    `json:"value" bson:"value" db:"value"`
}

// IsBlob 是否为 Blob Store 引用
func (r *MediaRef) IsBlob() bool {
	return r != nil && r.Kind == MediaKindBlob
}

// BlobRef 构造 Blob Store 引用
func BlobRef(key string) *MediaRef {
	return &MediaRef{Kind: MediaKindBlob, Value: key}
}

// ExternalRef 构造外部 URL 引用
func ExternalRef(url string) *MediaRef {
	return &MediaRef{Kind: MediaKindExternal, Value: url}
}

// FileUpload 待上传文件
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// SizeMB 文件大小（MB，仅作展示信息）
func (f *FileUpload) SizeMB() float64 {
	if f == nil {
		return 0
	}
	return float64(len(f.Data)) / (1024 * 1024)
}

// MediaOp 媒体槽更新操作
type MediaOp string

const (
	// MediaKeep 槽位保持不变（默认零值行为由 MediaUpdate.Keep() 约定）
	MediaKeep MediaOp = "keep"
	// MediaRemove 清空槽位及其派生元数据（大小、文件名）
	MediaRemove MediaOp = "remove"
	// MediaSetFile 上传新文件替换槽位，清除外部 URL 来源的元数据
	MediaSetFile MediaOp = "set_file"
	// MediaSetURL 以外部 URL 替换槽位，清除文件来源的元数据
	MediaSetURL MediaOp = "set_url"
)

// MediaUpdate 媒体槽更新指令
//
// 四态逻辑显式带标签，避免用可选字段的在场/缺席隐式表达。
// 同时给出文件和 URL 时文件优先（构造方负责把这种输入折叠为 MediaSetFile）。
type MediaUpdate struct {
	Op   MediaOp
	File *FileUpload // Op == MediaSetFile 时必填
	URL  string      // Op == MediaSetURL 时必填
}

// KeepMedia 槽位不变
func KeepMedia() MediaUpdate { return MediaUpdate{Op: MediaKeep} }

// RemoveMedia 清空槽位
func RemoveMedia() MediaUpdate { return MediaUpdate{Op: MediaRemove} }

// SetMediaFile 以文件替换槽位
func SetMediaFile(f *FileUpload) MediaUpdate { return MediaUpdate{Op: MediaSetFile, File: f} }

// SetMediaURL 以外部 URL 替换槽位
func SetMediaURL(url string) MediaUpdate { return MediaUpdate{Op: MediaSetURL, URL: url} }

// ResolveMediaInput 把"文件 + URL 同时给出"的原始输入折叠为单一指令：
// 文件存在则文件优先，URL 被忽略；都不存在则保持不变。
func ResolveMediaInput(removed bool, file *FileUpload, url string) MediaUpdate {
	switch {
	case removed:
		return RemoveMedia()
	case file != nil:
		return SetMediaFile(file)
	case url != "":
		return SetMediaURL(url)
	default:
		return KeepMedia()
	}
}
