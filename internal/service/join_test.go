package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/service"
)

func TestRoomService_CreateOrdinary(t *testing.T) {
	// Arrange
	e := newEnv(t)
	ctx := context.Background()
	begin := time.Now().Add(time.Hour)

	// Act
	result, err := e.rooms.CreateOrdinary(ctx, service.CreateOrdinaryParams{
		OwnerUUID: "owner-1",
		Title:     "化学课",
		RoomType:  domain.RoomTypeSmallClass,
		Region:    domain.RegionCNHZ,
		BeginTime: begin,
		EndTime:   begin.Add(time.Hour),
	})

	// Assert
	require.NoError(t, err)
	room, err := e.store.Rooms().FindByUUID(ctx, result.RoomUUID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusIdle, room.RoomStatus)
	assert.Empty(t, room.PeriodicUUID)
	assert.NotEmpty(t, room.WhiteboardRoomUUID)

	joined, _ := e.store.RoomUsers().Exists(ctx, result.RoomUUID, "owner-1")
	assert.True(t, joined, "房主应自动成为成员")

	roomUUID, err := e.codes.RoomUUIDByCode(ctx, result.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, result.RoomUUID, roomUUID)
}

func TestRoomService_CreateOrdinary_PastBeginTime(t *testing.T) {
	e := newEnv(t)
	begin := time.Now().Add(-time.Hour)

	_, err := e.rooms.CreateOrdinary(context.Background(), service.CreateOrdinaryParams{
		OwnerUUID: "owner-1",
		Title:     "too late",
		RoomType:  domain.RoomTypeSmallClass,
		Region:    domain.RegionCNHZ,
		BeginTime: begin,
		EndTime:   begin.Add(time.Hour),
	})

	assert.True(t, errors.Is(err, service.ErrParamsCheckFailed))
}

func TestRoomService_Join_ByInviteCode(t *testing.T) {
	// Arrange
	e := newEnv(t)
	ctx := context.Background()
	e.seedOrdinary("room-1", "owner-1", domain.RoomStatusIdle)
	code, err := e.codes.Allocate(ctx, "room-1")
	require.NoError(t, err)

	// Act
	result, err := e.rooms.Join(ctx, code, "member-1")

	// Assert: 解析到房间并建立成员关系
	require.NoError(t, err)
	assert.Equal(t, "room-1", result.RoomUUID)
	assert.Len(t, result.RtcUID, 6)
	joined, _ := e.store.RoomUsers().Exists(ctx, "room-1", "member-1")
	assert.True(t, joined)
}

func TestRoomService_Join_RejoinKeepsRtcUID(t *testing.T) {
	// Arrange
	e := newEnv(t)
	ctx := context.Background()
	e.seedOrdinary("room-1", "owner-1", domain.RoomStatusIdle)

	// Act: 加入两次
	first, err := e.rooms.Join(ctx, "room-1", "member-1")
	require.NoError(t, err)
	second, err := e.rooms.Join(ctx, "room-1", "member-1")
	require.NoError(t, err)

	// Assert: RtcUID 稳定
	assert.Equal(t, first.RtcUID, second.RtcUID)
}

func TestRoomService_Join_AfterLeaveRevivesMembership(t *testing.T) {
	// Arrange: 成员加入后退出，成员行变为墓碑但仍占据唯一索引
	e := newEnv(t)
	ctx := context.Background()
	e.seedOrdinary("room-1", "owner-1", domain.RoomStatusIdle)
	_, err := e.rooms.Join(ctx, "room-1", "member-1")
	require.NoError(t, err)
	require.NoError(t, e.rooms.CancelOrdinary(ctx, "room-1", "member-1"))

	// Act: 重新加入
	result, err := e.rooms.Join(ctx, "room-1", "member-1")

	// Assert: 复活墓碑行而不是插入第二行
	require.NoError(t, err)
	assert.Len(t, result.RtcUID, 6)
	var rows int
	for _, member := range e.store.roomUsers {
		if member.RoomUUID == "room-1" && member.UserUUID == "member-1" {
			rows++
			assert.False(t, member.IsDelete, "重新加入后成员行应为活跃")
			assert.Equal(t, result.RtcUID, member.RtcUID)
		}
	}
	assert.Equal(t, 1, rows, "同一 (房间, 用户) 只能有一行")
}

func TestRoomService_Join_AfterLeavingSeriesRevivesMembership(t *testing.T) {
	// Arrange: 成员退出整个序列，序列成员行与子房间成员行都成为墓碑
	e := newEnv(t)
	ctx := context.Background()
	rows := e.seedSeries("periodic-1", "owner-1", domain.RoomStatusIdle)
	_, err := e.rooms.Join(ctx, rows[0].FakeRoomUUID, "member-1")
	require.NoError(t, err)
	require.NoError(t, e.rooms.CancelPeriodic(ctx, "periodic-1", "member-1"))

	// Act: 重新加入同一个子房间
	result, err := e.rooms.Join(ctx, rows[0].FakeRoomUUID, "member-1")

	// Assert: 两张成员表各自复活原行
	require.NoError(t, err)
	assert.Equal(t, "periodic-1", result.PeriodicUUID)
	var periodicRows int
	for _, member := range e.store.periodicUsers {
		if member.PeriodicUUID == "periodic-1" && member.UserUUID == "member-1" {
			periodicRows++
			assert.False(t, member.IsDelete)
		}
	}
	assert.Equal(t, 1, periodicRows, "同一 (序列, 用户) 只能有一行")
	var roomRows int
	for _, member := range e.store.roomUsers {
		if member.RoomUUID == rows[0].FakeRoomUUID && member.UserUUID == "member-1" {
			roomRows++
			assert.False(t, member.IsDelete)
		}
	}
	assert.Equal(t, 1, roomRows)
}

func TestRoomService_Join_StoppedRejected(t *testing.T) {
	e := newEnv(t)
	e.seedOrdinary("room-1", "owner-1", domain.RoomStatusStopped)

	_, err := e.rooms.Join(context.Background(), "room-1", "member-1")

	assert.True(t, errors.Is(err, service.ErrRoomIsEnded))
}

func TestRoomService_Join_PeriodicSeries(t *testing.T) {
	// Arrange: 序列邀请码绑定 periodicUUID
	e := newEnv(t)
	ctx := context.Background()
	rows := e.seedSeries("periodic-1", "owner-1", domain.RoomStatusIdle)
	code, err := e.codes.Allocate(ctx, "periodic-1")
	require.NoError(t, err)

	// Act: 新成员用序列邀请码加入
	result, err := e.rooms.Join(ctx, code, "newcomer")

	// Assert: 解析到当前活跃的子房间，且同时成为序列成员
	require.NoError(t, err)
	assert.Equal(t, rows[0].FakeRoomUUID, result.RoomUUID)
	assert.Equal(t, "periodic-1", result.PeriodicUUID)
	isMember, _ := e.store.PeriodicUsers().Exists(ctx, "periodic-1", "newcomer")
	assert.True(t, isMember, "加入子房间应同时建立序列成员关系")
}

func TestRoomService_Join_UnknownCode(t *testing.T) {
	e := newEnv(t)

	_, err := e.rooms.Join(context.Background(), "19999999999", "member-1")

	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
}

func TestRoomService_List_WithInviteCodes(t *testing.T) {
	// Arrange: 一间普通房间 + 一个周期序列
	e := newEnv(t)
	ctx := context.Background()
	e.seedOrdinary("room-1", "user-1", domain.RoomStatusIdle)
	ordinaryCode, err := e.codes.Allocate(ctx, "room-1")
	require.NoError(t, err)

	rows := e.seedSeries("periodic-1", "user-1", domain.RoomStatusIdle)
	seriesCode, err := e.codes.Allocate(ctx, "periodic-1")
	require.NoError(t, err)

	// Act
	items, err := e.rooms.List(ctx, "user-1")

	// Assert: 两项按开始时间升序，邀请码分别绑定房间与序列
	require.NoError(t, err)
	require.Len(t, items, 2)
	byUUID := make(map[string]service.RoomListItem)
	for _, item := range items {
		byUUID[item.RoomUUID] = item
	}
	assert.Equal(t, ordinaryCode, byUUID["room-1"].InviteCode)
	assert.Equal(t, seriesCode, byUUID[rows[0].FakeRoomUUID].InviteCode,
		"周期性子房间的邀请码应绑定在序列上")
	assert.True(t, !items[0].BeginTime.After(items[1].BeginTime), "列表应按开始时间升序")
}
