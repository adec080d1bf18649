package domain

import "time"

// Room 表示一节已排课或上课中的课程。
// 普通房间的 PeriodicUUID 为空字符串；周期性子房间的 RoomUUID
// 与对应 RoomPeriodic.FakeRoomUUID 相同。
type Room struct {
	ID                 uint       `gorm:"primaryKey"`
	RoomUUID           string     `gorm:"size:40;uniqueIndex;not null"`
	PeriodicUUID       string     `gorm:"size:40;index;not null;default:''"` // 所属周期序列，空表示普通房间
	OwnerUUID          string     `gorm:"size:40;index;not null"`
	Title              string     `gorm:"size:150;not null"`
	RoomType           RoomType   `gorm:"size:32;index;not null"`
	RoomStatus         RoomStatus `gorm:"size:32;index;not null"`
	BeginTime          time.Time  `gorm:"index;not null"` // 约束: EndTime > BeginTime
	EndTime            time.Time  `gorm:"not null"`
	Region             Region     `gorm:"size:16;not null"`
	WhiteboardRoomUUID string     `gorm:"size:40;uniqueIndex;not null"` // 外部白板会话绑定
	IsDelete           bool       `gorm:"not null;default:false"`       // 软删除标记，仓库层统一过滤
	CreatedAt          time.Time  `gorm:"autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime"`
}

// RoomPeriodicConfig 表示一个周期性房间序列的配置，每个序列一行。
// 不变量: 当且仅当序列中至少存在一个非 Stopped 的 RoomPeriodic 时本行存在，
// 与最后一个剩余子房间在同一事务中一起删除。
type RoomPeriodicConfig struct {
	ID                  uint           `gorm:"primaryKey"`
	PeriodicUUID        string         `gorm:"size:40;uniqueIndex;not null"`
	OwnerUUID           string         `gorm:"size:40;index;not null"`
	Title               string         `gorm:"size:150;not null"`
	RoomType            RoomType       `gorm:"size:32;not null"`
	Weeks               string         `gorm:"size:32;not null"`   // 逗号分隔的星期序号，如 "1,3,5"
	Rate                int            `gorm:"not null;default:0"` // 最大重复次数，0 表示按 EndTime 截止
	RoomOriginBeginTime time.Time      `gorm:"not null"`
	RoomOriginEndTime   time.Time      `gorm:"not null"`
	EndTime             time.Time      `gorm:"not null"` // 序列截止时间
	PeriodicStatus      PeriodicStatus `gorm:"size:32;index;not null"`
	Region              Region         `gorm:"size:16;not null"`
	IsDelete            bool           `gorm:"not null;default:false"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
}

// RoomPeriodic 表示周期序列中的一次课程 (子房间)，每次一行。
// 同一序列内按 BeginTime 严格排序，"上一节/下一节" 查询依赖该顺序，
// 且假定同一序列中不存在相同的 BeginTime。
type RoomPeriodic struct {
	ID           uint       `gorm:"primaryKey"`
	PeriodicUUID string     `gorm:"size:40;index;not null"`
	FakeRoomUUID string     `gorm:"size:40;uniqueIndex;not null"` // 物化后即为 Room.RoomUUID
	BeginTime    time.Time  `gorm:"index;not null"`
	EndTime      time.Time  `gorm:"not null"`
	RoomStatus   RoomStatus `gorm:"size:32;index;not null"` // 物化期间与对应 Room 保持一致
	IsDelete     bool       `gorm:"not null;default:false"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}
