package model

import "time"

// CourseStatus 课程状态
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// Course 课程聚合
//
// Lessons 顺序即存储顺序，读取时必须按存储顺序原样返回。
// TeacherID 不做硬外键约束，读取侧悬空时降级为 Unknown 展示。
type Course struct {
	ID          string       `json:"id" bson:"_id" db:"id"`
	Title       string       `json:"title" bson:"title" db:"title"`
	Description string       `json:"description" bson:"description" db:"description"`
	TeacherID   string       `json:"teacher_id" bson:"teacher_id" db:"teacher_id"`
	Status      CourseStatus `json:"status" bson:"status" db:"status"`
	Image       *MediaRef    `json:"image,omitempty" bson:"image,omitempty" db:"-"`
	Lessons     []*Lesson    `json:"lessons" bson:"lessons" db:"-"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// LessonIDs 返回当前课时 id 列表（按存储顺序）
func (c *Course) LessonIDs() []string {
	ids := make([]string, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		ids = append(ids, l.ID)
	}
	return ids
}

// Lesson 课时
//
// 课时只存在于所属课程聚合内，没有独立身份；删除课程级联删除课时。
// Video 槽位要么是 blob 引用要么是外部 URL，互斥；Attachment 只会是 blob。
// Order 为显式整数序：删除后允许出现空洞，但任何时刻不允许重复。
type Lesson struct {
	ID             string    `json:"id" bson:"id" db:"id"`
	Title          string    `json:"title" bson:"title" db:"title"`
	Content        string    `json:"content" bson:"content" db:"content"` // 富文本标记，仓储视为不透明
	Video          *MediaRef `json:"video,omitempty" bson:"video,omitempty" db:"-"`
	VideoSizeMB    *float64  `json:"video_size_mb,omitempty" bson:"video_size_mb,omitempty" db:"video_size_mb"`
	Attachment     *MediaRef `json:"attachment,omitempty" bson:"attachment,omitempty" db:"-"`
	AttachmentName string    `json:"attachment_name,omitempty" bson:"attachment_name,omitempty" db:"attachment_name"`
	AttachSizeMB   *float64  `json:"attachment_size_mb,omitempty" bson:"attachment_size_mb,omitempty" db:"attachment_size_mb"`
	Duration       string    `json:"duration,omitempty" bson:"duration,omitempty" db:"duration"` // 自由文本标签，非时长约束
	Order          int       `json:"order" bson:"order" db:"position"`
}

// CoursePatch 课程元数据部分更新（不含课时，封面图走 MediaUpdate）
type CoursePatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *CourseStatus `json:"status,omitempty"`
}

// LessonPatch 课时部分更新
//
// 两个媒体槽各自携带带标签的更新指令，四态逻辑见 MediaUpdate。
type LessonPatch struct {
	Title    *string     `json:"title,omitempty"`
	Content  *string     `json:"content,omitempty"`
	Duration *string     `json:"duration,omitempty"`
	Video    MediaUpdate `json:"-"`
	Attach   MediaUpdate `json:"-"`
}
