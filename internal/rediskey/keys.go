// Package rediskey 集中定义缓存键的构造函数，避免各处拼接不一致。
package rediskey

// RoomInviteCode 邀请码 → 房间 UUID 的正向映射键。
func RoomInviteCode(inviteCode string) string {
	return "room:invite:" + inviteCode
}

// RoomInviteCodeReverse 房间 UUID → 邀请码的反向映射键，
// 使按 UUID 查到的房间无需反向扫描即可报告自己的邀请码。
func RoomInviteCodeReverse(roomUUID string) string {
	return "room:inviteReverse:" + roomUUID
}

// IPBlock 按 (IP, 路由) 维度的滑动窗口计数散列键。
func IPBlock(ip, path string) string {
	return "ipblock:" + ip + ":" + path
}

// PhoneTryLoginCount 手机号登录尝试次数计数键。
func PhoneTryLoginCount(phone string) string {
	return "phone:count:login:" + phone
}
