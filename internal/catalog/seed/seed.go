// Package seed 首次运行演示数据注入
//
// 注入以用户集合为空为闸口。全部远端素材先就位（成功或逐项降级）
// 才开始写记录，最后一次性提交整个批次；单个素材失败只影响
// 对应记录的媒体槽，绝不中断注入。
package seed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"campus-catalog/internal/shared/blob"
	"campus-catalog/internal/shared/model"
	"campus-catalog/internal/shared/storage"
	"campus-catalog/pkg/logging"
)

// Bootstrapper 演示数据注入器
type Bootstrapper struct {
	store     storage.CatalogStore
	blobs     blob.Store
	client    *http.Client
	assetBase string
	log       *logging.Logger
}

// NewBootstrapper 创建注入器
//
// assetBase 为演示素材下载地址前缀，留空时跳过全部素材拉取；
// client 为 nil 时使用 30 秒超时的默认客户端。
func NewBootstrapper(store storage.CatalogStore, blobs blob.Store, client *http.Client, assetBase string, log *logging.Logger) *Bootstrapper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = logging.Default("seed")
	}
	return &Bootstrapper{store: store, blobs: blobs, client: client, assetBase: assetBase, log: log}
}

// Run 执行注入；目录非空时直接跳过
//
// 返回是否实际注入了数据。
func (b *Bootstrapper) Run(ctx context.Context) (bool, error) {
	count, err := b.store.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		b.log.Debug("Demo data skipped, directory not empty", "users", count)
		return false, nil
	}

	batch, err := b.buildBatch(ctx)
	if err != nil {
		return false, err
	}
	if err := b.store.SeedDemoData(ctx, batch); err != nil {
		return false, fmt.Errorf("seed demo data: %w", err)
	}

	b.log.SeedLog("catalog", len(batch.Users), len(batch.Courses), len(batch.Enrollments), len(batch.Reviews))
	return true, nil
}

// buildBatch 组装演示数据批次
//
// 标识符全部固定，两种后端注入出逐字段一致的数据集。
func (b *Bootstrapper) buildBatch(ctx context.Context) (*model.SeedBatch, error) {
	now := time.Now()

	admin, err := demoUser("user-demo-admin", "admin@campus.dev", "Alice Admin", "admin123", model.UserRoleAdmin, now)
	if err != nil {
		return nil, err
	}
	teacher, err := demoUser("user-demo-teacher", "teacher@campus.dev", "Tom Rivera", "teach123", model.UserRoleTeacher, now)
	if err != nil {
		return nil, err
	}
	student1, err := demoUser("user-demo-student1", "sara@campus.dev", "Sara Chen", "learn123", model.UserRoleStudent, now)
	if err != nil {
		return nil, err
	}
	student2, err := demoUser("user-demo-student2", "ben@campus.dev", "Ben Okafor", "learn123", model.UserRoleStudent, now)
	if err != nil {
		return nil, err
	}

	course1 := &model.Course{
		ID:          "course-demo-intro",
		Title:       "Introduction to Programming",
		Description: "Variables, control flow and functions from the ground up.",
		TeacherID:   teacher.ID,
		Status:      model.CourseStatusPublished,
		Image:       b.fetchAsset(ctx, "/covers/intro.jpg", "seed/covers/intro.jpg", "image/jpeg"),
		Lessons: []*model.Lesson{
			demoLesson("lesson-demo-intro-1", "Getting Started", "<p>Installing the toolchain and writing your first program.</p>", "12:30", 0),
			demoLesson("lesson-demo-intro-2", "Variables and Types", "<p>Primitive types, declarations and zero values.</p>", "18:05", 1),
			demoLesson("lesson-demo-intro-3", "Control Flow", "<p>Conditionals, loops and early returns.</p>", "21:40", 2),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	course2 := &model.Course{
		ID:          "course-demo-web",
		Title:       "Web Development Basics",
		Description: "HTML, CSS and the request/response cycle.",
		TeacherID:   teacher.ID,
		Status:      model.CourseStatusPublished,
		Image:       b.fetchAsset(ctx, "/covers/web.jpg", "seed/covers/web.jpg", "image/jpeg"),
		Lessons: []*model.Lesson{
			demoLesson("lesson-demo-web-1", "How the Web Works", "<p>Clients, servers and HTTP.</p>", "15:10", 0),
			demoLesson("lesson-demo-web-2", "Your First Page", "<p>Semantic HTML and basic styling.</p>", "19:55", 1),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return &model.SeedBatch{
		Users:   []*model.User{admin, teacher, student1, student2},
		Courses: []*model.Course{course1, course2},
		Enrollments: []*model.Enrollment{
			{
				ID: "enroll-demo-1", StudentID: student1.ID, CourseID: course1.ID,
				Status: model.EnrollmentStatusApproved, CreatedAt: now, UpdatedAt: now,
			},
			{
				ID: "enroll-demo-2", StudentID: student2.ID, CourseID: course1.ID,
				Status: model.EnrollmentStatusPending, CreatedAt: now, UpdatedAt: now,
			},
		},
		Reviews: []*model.Review{
			{
				ID: "review-demo-1", StudentID: student1.ID, CourseID: course1.ID,
				Rating: 5, Comment: "Clear explanations and good pacing.", CreatedAt: now,
			},
		},
	}, nil
}

// fetchAsset 拉取远端素材并存入 blob
//
// 任一环节失败都降级为无媒体（返回 nil）并记日志，不中断注入。
func (b *Bootstrapper) fetchAsset(ctx context.Context, path, key, contentType string) *model.MediaRef {
	if b.assetBase == "" {
		return nil
	}

	url := b.assetBase + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.log.WithError(err).Warn("Seed asset skipped", "url", url)
		return nil
	}
	resp, err := b.client.Do(req)
	if err != nil {
		b.log.WithError(err).Warn("Seed asset skipped", "url", url)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b.log.Warn("Seed asset skipped", "url", url, "status", resp.StatusCode)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		b.log.WithError(err).Warn("Seed asset skipped", "url", url)
		return nil
	}

	if err := b.blobs.Put(ctx, key, data, contentType); err != nil {
		b.log.WithError(err).Warn("Seed asset upload failed", "key", key)
		return nil
	}
	return model.BlobRef(key)
}

func demoUser(id, email, name, credential string, role model.UserRole, now time.Time) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), 12)
	if err != nil {
		return nil, fmt.Errorf("hash demo credential %s: %w", id, err)
	}
	return &model.User{
		ID: id, Email: email, Name: name, Credential: string(hash),
		Role: role, CreatedAt: now, UpdatedAt: now,
	}, nil
}

func demoLesson(id, title, content, duration string, order int) *model.Lesson {
	return &model.Lesson{
		ID: id, Title: title, Content: content,
		Duration: duration, Order: order,
	}
}
