package service

import "time"

const (
	// 课程最短时长
	minRoomDuration = 15 * time.Minute
	// 校验 "不得早于当前时间" 时放宽一分钟，吸收客户端时钟偏差
	beginTimeRedundancy = time.Minute
)

// validTimeInterval 校验起止时间合法：开始早于结束且时长不少于 15 分钟。
func validTimeInterval(beginTime, endTime time.Time) bool {
	if !beginTime.Before(endTime) {
		return false
	}
	return endTime.Sub(beginTime) >= minRoomDuration
}

// beginTimeTooEarly 判断开始时间是否早于当前时间 (允许一分钟冗余)。
func beginTimeTooEarly(beginTime, now time.Time) bool {
	return beginTime.Before(now.Add(-beginTimeRedundancy))
}
