package domain

import "time"

// User 表示注册用户，手机号登录使用。
type User struct {
	ID        uint      `gorm:"primaryKey"`
	UserUUID  string    `gorm:"size:40;uniqueIndex;not null"`
	UserName  string    `gorm:"size:50;not null"`
	Phone     string    `gorm:"size:20;uniqueIndex;not null"`
	Password  string    `gorm:"size:128;not null"` // bcrypt 哈希
	IsDelete  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// RoomUser 表示用户与单个房间的成员关系。
// 用户 "在" 房间中当且仅当存在未删除的行；房主身份由 Room.OwnerUUID
// 推断，不依赖本表。
type RoomUser struct {
	ID        uint      `gorm:"primaryKey"`
	RoomUUID  string    `gorm:"size:40;index:idx_room_user,unique;not null"`
	UserUUID  string    `gorm:"size:40;index:idx_room_user,unique;not null"`
	RtcUID    string    `gorm:"size:10;not null"` // 实时音视频通道内的用户编号
	IsDelete  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// RoomPeriodicUser 表示用户与周期序列的成员关系。
type RoomPeriodicUser struct {
	ID           uint      `gorm:"primaryKey"`
	PeriodicUUID string    `gorm:"size:40;index:idx_periodic_user,unique;not null"`
	UserUUID     string    `gorm:"size:40;index:idx_periodic_user,unique;not null"`
	IsDelete     bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// UserPmi 表示用户与个人会议号 (PMI) 的永久绑定。
// 每个用户只创建一次，创建后不再重新分配；PMI 在所有未删除行中
// 全局唯一，并与当前已分配的邀请码互斥。
type UserPmi struct {
	ID        uint      `gorm:"primaryKey"`
	UserUUID  string    `gorm:"size:40;uniqueIndex;not null"`
	Pmi       string    `gorm:"size:16;uniqueIndex;not null"`
	IsDelete  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
