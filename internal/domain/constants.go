// Package domain 定义了调度核心使用的数据结构 (数据库模型) 和状态常量。
package domain

// RoomStatus 表示单个房间的生命周期状态。
type RoomStatus string

const (
	RoomStatusIdle    RoomStatus = "Idle"    // 已创建但尚未开始
	RoomStatusStarted RoomStatus = "Started" // 上课中
	RoomStatusPaused  RoomStatus = "Paused"  // 暂停中
	RoomStatusStopped RoomStatus = "Stopped" // 已结束 (终态，不允许再变更)
)

// IsRunning 判断房间是否处于运行中 (Started 或 Paused)。
func (s RoomStatus) IsRunning() bool {
	return s == RoomStatusStarted || s == RoomStatusPaused
}

// PeriodicStatus 表示周期性房间序列的整体状态。
type PeriodicStatus string

const (
	PeriodicStatusIdle    PeriodicStatus = "Idle"
	PeriodicStatusStarted PeriodicStatus = "Started"
	PeriodicStatusStopped PeriodicStatus = "Stopped"
)

// RoomType 表示房间类型。
type RoomType string

const (
	RoomTypeOneToOne   RoomType = "OneToOne"
	RoomTypeSmallClass RoomType = "SmallClass"
	RoomTypeBigClass   RoomType = "BigClass"
)

// Region 表示房间所在的服务区域。
type Region string

const (
	RegionCNHZ  Region = "cn-hz"
	RegionUSSV  Region = "us-sv"
	RegionSG    Region = "sg"
	RegionINMum Region = "in-mum"
	RegionGBLon Region = "gb-lon"
)

// Week 表示一周中的某一天，0 为周日 (与 time.Weekday 一致)。
type Week int

const (
	Sunday Week = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)
