package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/repository"
)

// memStore 是 repository.Store 的内存实现，供业务层测试使用。
// 不模拟回滚：状态机测试只关心提交成功的路径和提交前的拒绝路径。
type memStore struct {
	mu sync.Mutex

	rooms         []*domain.Room
	periodic      []*domain.RoomPeriodic
	configs       []*domain.RoomPeriodicConfig
	roomUsers     []*domain.RoomUser
	periodicUsers []*domain.RoomPeriodicUser
	pmis          []*domain.UserPmi
	users         []*domain.User
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) Rooms() repository.RoomRepository                     { return (*memRooms)(s) }
func (s *memStore) Periodic() repository.RoomPeriodicRepository          { return (*memPeriodic)(s) }
func (s *memStore) PeriodicConfigs() repository.RoomPeriodicConfigRepository {
	return (*memConfigs)(s)
}
func (s *memStore) RoomUsers() repository.RoomUserRepository         { return (*memRoomUsers)(s) }
func (s *memStore) PeriodicUsers() repository.RoomPeriodicUserRepository {
	return (*memPeriodicUsers)(s)
}
func (s *memStore) Pmi() repository.UserPmiRepository { return (*memPmi)(s) }
func (s *memStore) Users() repository.UserRepository  { return (*memUsers)(s) }

func (s *memStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return fn(s)
}

// --- Rooms ---

type memRooms memStore

func (r *memRooms) find(pred func(*domain.Room) bool) (*domain.Room, error) {
	for _, room := range r.rooms {
		if !room.IsDelete && pred(room) {
			copied := *room
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRooms) mutate(roomUUID string, fn func(*domain.Room)) error {
	for _, room := range r.rooms {
		if !room.IsDelete && room.RoomUUID == roomUUID {
			fn(room)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memRooms) FindByUUID(ctx context.Context, roomUUID string) (*domain.Room, error) {
	return r.find(func(room *domain.Room) bool { return room.RoomUUID == roomUUID })
}

func (r *memRooms) FindOwned(ctx context.Context, roomUUID, ownerUUID string) (*domain.Room, error) {
	return r.find(func(room *domain.Room) bool {
		return room.RoomUUID == roomUUID && room.OwnerUUID == ownerUUID
	})
}

func (r *memRooms) FindActiveByPeriodicUUID(ctx context.Context, periodicUUID string) (*domain.Room, error) {
	return r.find(func(room *domain.Room) bool {
		return room.PeriodicUUID == periodicUUID && room.RoomStatus != domain.RoomStatusStopped
	})
}

func (r *memRooms) FindMaterialized(ctx context.Context, periodicUUID, roomUUID, ownerUUID string) (*domain.Room, error) {
	return r.find(func(room *domain.Room) bool {
		return room.PeriodicUUID == periodicUUID && room.RoomUUID == roomUUID && room.OwnerUUID == ownerUUID
	})
}

func (r *memRooms) Insert(ctx context.Context, room *domain.Room) error {
	copied := *room
	r.rooms = append(r.rooms, &copied)
	return nil
}

func (r *memRooms) UpdateStatusBegin(ctx context.Context, roomUUID string, status domain.RoomStatus, beginTime time.Time) error {
	return r.mutate(roomUUID, func(room *domain.Room) {
		room.RoomStatus = status
		room.BeginTime = beginTime
	})
}

func (r *memRooms) UpdateStatus(ctx context.Context, roomUUID string, status domain.RoomStatus) error {
	return r.mutate(roomUUID, func(room *domain.Room) { room.RoomStatus = status })
}

func (r *memRooms) UpdateStatusEnd(ctx context.Context, roomUUID string, status domain.RoomStatus, endTime time.Time) error {
	return r.mutate(roomUUID, func(room *domain.Room) {
		room.RoomStatus = status
		room.EndTime = endTime
	})
}

func (r *memRooms) UpdateSchedule(ctx context.Context, roomUUID string, beginTime, endTime time.Time) error {
	return r.mutate(roomUUID, func(room *domain.Room) {
		room.BeginTime = beginTime
		room.EndTime = endTime
	})
}

func (r *memRooms) Remove(ctx context.Context, roomUUID string) error {
	for _, room := range r.rooms {
		if !room.IsDelete && room.RoomUUID == roomUUID {
			room.IsDelete = true
		}
	}
	return nil
}

func (r *memRooms) ListForUser(ctx context.Context, userUUID string) ([]domain.Room, error) {
	joined := make(map[string]bool)
	for _, member := range r.roomUsers {
		if !member.IsDelete && member.UserUUID == userUUID {
			joined[member.RoomUUID] = true
		}
	}
	var result []domain.Room
	for _, room := range r.rooms {
		if !room.IsDelete && joined[room.RoomUUID] {
			result = append(result, *room)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BeginTime.Before(result[j].BeginTime) })
	return result, nil
}

// --- Periodic ---

type memPeriodic memStore

func (r *memPeriodic) alive(periodicUUID string) []*domain.RoomPeriodic {
	var rows []*domain.RoomPeriodic
	for _, row := range r.periodic {
		if !row.IsDelete && row.PeriodicUUID == periodicUUID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].BeginTime.Before(rows[j].BeginTime) })
	return rows
}

func (r *memPeriodic) FindOne(ctx context.Context, periodicUUID, fakeRoomUUID string) (*domain.RoomPeriodic, error) {
	for _, row := range r.alive(periodicUUID) {
		if row.FakeRoomUUID == fakeRoomUUID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPeriodic) FindNextIdle(ctx context.Context, periodicUUID string, after time.Time) (*domain.RoomPeriodic, error) {
	for _, row := range r.alive(periodicUUID) {
		if row.BeginTime.After(after) && row.RoomStatus == domain.RoomStatusIdle {
			copied := *row
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPeriodic) FindNext(ctx context.Context, periodicUUID string, after time.Time) (*domain.RoomPeriodic, error) {
	for _, row := range r.alive(periodicUUID) {
		if row.BeginTime.After(after) {
			copied := *row
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPeriodic) FindPrevious(ctx context.Context, periodicUUID string, before time.Time) (*domain.RoomPeriodic, error) {
	rows := r.alive(periodicUUID)
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].BeginTime.Before(before) {
			copied := *rows[i]
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPeriodic) InsertMany(ctx context.Context, rooms []domain.RoomPeriodic) error {
	for i := range rooms {
		copied := rooms[i]
		r.periodic = append(r.periodic, &copied)
	}
	return nil
}

func (r *memPeriodic) mutate(fakeRoomUUID string, fn func(*domain.RoomPeriodic)) error {
	for _, row := range r.periodic {
		if !row.IsDelete && row.FakeRoomUUID == fakeRoomUUID {
			fn(row)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memPeriodic) UpdateStatusBegin(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus, beginTime time.Time) error {
	return r.mutate(fakeRoomUUID, func(row *domain.RoomPeriodic) {
		row.RoomStatus = status
		row.BeginTime = beginTime
	})
}

func (r *memPeriodic) UpdateStatus(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus) error {
	return r.mutate(fakeRoomUUID, func(row *domain.RoomPeriodic) { row.RoomStatus = status })
}

func (r *memPeriodic) UpdateStatusEnd(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus, endTime time.Time) error {
	return r.mutate(fakeRoomUUID, func(row *domain.RoomPeriodic) {
		row.RoomStatus = status
		row.EndTime = endTime
	})
}

func (r *memPeriodic) UpdateSchedule(ctx context.Context, fakeRoomUUID string, beginTime, endTime time.Time) error {
	return r.mutate(fakeRoomUUID, func(row *domain.RoomPeriodic) {
		row.BeginTime = beginTime
		row.EndTime = endTime
	})
}

func (r *memPeriodic) Remove(ctx context.Context, periodicUUID, fakeRoomUUID string) error {
	for _, row := range r.periodic {
		if !row.IsDelete && row.PeriodicUUID == periodicUUID && row.FakeRoomUUID == fakeRoomUUID {
			row.IsDelete = true
		}
	}
	return nil
}

func (r *memPeriodic) RemoveAllActive(ctx context.Context, periodicUUID string) error {
	for _, row := range r.periodic {
		if !row.IsDelete && row.PeriodicUUID == periodicUUID && row.RoomStatus != domain.RoomStatusStopped {
			row.IsDelete = true
		}
	}
	return nil
}

// --- PeriodicConfigs ---

type memConfigs memStore

func (r *memConfigs) find(pred func(*domain.RoomPeriodicConfig) bool) (*domain.RoomPeriodicConfig, error) {
	for _, config := range r.configs {
		if !config.IsDelete && pred(config) {
			copied := *config
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memConfigs) FindByUUID(ctx context.Context, periodicUUID string) (*domain.RoomPeriodicConfig, error) {
	return r.find(func(c *domain.RoomPeriodicConfig) bool { return c.PeriodicUUID == periodicUUID })
}

func (r *memConfigs) FindOwned(ctx context.Context, periodicUUID, ownerUUID string) (*domain.RoomPeriodicConfig, error) {
	return r.find(func(c *domain.RoomPeriodicConfig) bool {
		return c.PeriodicUUID == periodicUUID && c.OwnerUUID == ownerUUID
	})
}

func (r *memConfigs) Insert(ctx context.Context, config *domain.RoomPeriodicConfig) error {
	copied := *config
	r.configs = append(r.configs, &copied)
	return nil
}

func (r *memConfigs) UpdateStatus(ctx context.Context, periodicUUID string, status domain.PeriodicStatus) error {
	for _, config := range r.configs {
		if !config.IsDelete && config.PeriodicUUID == periodicUUID {
			config.PeriodicStatus = status
		}
	}
	return nil
}

func (r *memConfigs) UpdateStatusFrom(ctx context.Context, periodicUUID string, from, to domain.PeriodicStatus) error {
	for _, config := range r.configs {
		if !config.IsDelete && config.PeriodicUUID == periodicUUID && config.PeriodicStatus == from {
			config.PeriodicStatus = to
		}
	}
	return nil
}

func (r *memConfigs) Remove(ctx context.Context, periodicUUID string) error {
	for _, config := range r.configs {
		if !config.IsDelete && config.PeriodicUUID == periodicUUID {
			config.IsDelete = true
		}
	}
	return nil
}

// --- RoomUsers ---

type memRoomUsers memStore

// Insert 与真实实现一致地模拟唯一索引上的 upsert：同一 (房间, 用户)
// 已有行 (含墓碑) 时复活并刷新 RtcUID，不产生第二行。
func (r *memRoomUsers) Insert(ctx context.Context, roomUser *domain.RoomUser) error {
	for _, member := range r.roomUsers {
		if member.RoomUUID == roomUser.RoomUUID && member.UserUUID == roomUser.UserUUID {
			member.IsDelete = false
			member.RtcUID = roomUser.RtcUID
			return nil
		}
	}
	copied := *roomUser
	r.roomUsers = append(r.roomUsers, &copied)
	return nil
}

func (r *memRoomUsers) InsertMany(ctx context.Context, roomUsers []domain.RoomUser) error {
	for i := range roomUsers {
		if err := r.Insert(ctx, &roomUsers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *memRoomUsers) Find(ctx context.Context, roomUUID, userUUID string) (*domain.RoomUser, error) {
	for _, member := range r.roomUsers {
		if !member.IsDelete && member.RoomUUID == roomUUID && member.UserUUID == userUUID {
			copied := *member
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memRoomUsers) Exists(ctx context.Context, roomUUID, userUUID string) (bool, error) {
	_, err := r.Find(ctx, roomUUID, userUUID)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (r *memRoomUsers) Remove(ctx context.Context, roomUUID, userUUID string) error {
	for _, member := range r.roomUsers {
		if !member.IsDelete && member.RoomUUID == roomUUID && member.UserUUID == userUUID {
			member.IsDelete = true
		}
	}
	return nil
}

// --- PeriodicUsers ---

type memPeriodicUsers memStore

func (r *memPeriodicUsers) Insert(ctx context.Context, periodicUser *domain.RoomPeriodicUser) error {
	for _, member := range r.periodicUsers {
		if member.PeriodicUUID == periodicUser.PeriodicUUID && member.UserUUID == periodicUser.UserUUID {
			member.IsDelete = false
			return nil
		}
	}
	copied := *periodicUser
	r.periodicUsers = append(r.periodicUsers, &copied)
	return nil
}

func (r *memPeriodicUsers) Exists(ctx context.Context, periodicUUID, userUUID string) (bool, error) {
	for _, member := range r.periodicUsers {
		if !member.IsDelete && member.PeriodicUUID == periodicUUID && member.UserUUID == userUUID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPeriodicUsers) Remove(ctx context.Context, periodicUUID, userUUID string) error {
	for _, member := range r.periodicUsers {
		if !member.IsDelete && member.PeriodicUUID == periodicUUID && member.UserUUID == userUUID {
			member.IsDelete = true
		}
	}
	return nil
}

func (r *memPeriodicUsers) ListUserUUIDs(ctx context.Context, periodicUUID string) ([]string, error) {
	var result []string
	for _, member := range r.periodicUsers {
		if !member.IsDelete && member.PeriodicUUID == periodicUUID {
			result = append(result, member.UserUUID)
		}
	}
	return result, nil
}

// --- Pmi ---

type memPmi memStore

func (r *memPmi) FindByUserUUID(ctx context.Context, userUUID string) (*domain.UserPmi, error) {
	for _, pmi := range r.pmis {
		if !pmi.IsDelete && pmi.UserUUID == userUUID {
			copied := *pmi
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPmi) Insert(ctx context.Context, pmi *domain.UserPmi) error {
	for _, existing := range r.pmis {
		if !existing.IsDelete && (existing.UserUUID == pmi.UserUUID || existing.Pmi == pmi.Pmi) {
			return repository.ErrDuplicateEntry
		}
	}
	copied := *pmi
	r.pmis = append(r.pmis, &copied)
	return nil
}

func (r *memPmi) FilterExisting(ctx context.Context, candidates []string) (map[string]struct{}, error) {
	used := make(map[string]struct{})
	for _, pmi := range r.pmis {
		if pmi.IsDelete {
			continue
		}
		for _, candidate := range candidates {
			if pmi.Pmi == candidate {
				used[candidate] = struct{}{}
			}
		}
	}
	return used, nil
}

// --- Users ---

type memUsers memStore

func (r *memUsers) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	for _, user := range r.users {
		if !user.IsDelete && user.Phone == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) Insert(ctx context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if !existing.IsDelete && existing.Phone == user.Phone {
			return repository.ErrDuplicateEntry
		}
	}
	copied := *user
	r.users = append(r.users, &copied)
	return nil
}

// --- CounterStore ---

// memCounters 是 repository.CounterStore 的内存实现，忽略 TTL 过期。
type memCounters struct {
	mu     sync.Mutex
	kv     map[string]string
	hashes map[string]map[string]string
}

func newMemCounters() *memCounters {
	return &memCounters{kv: make(map[string]string), hashes: make(map[string]map[string]string)}
}

func (c *memCounters) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.kv[key]
	return value, ok, nil
}

func (c *memCounters) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kv[key] = value
	return nil
}

func (c *memCounters) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := int64(0)
	if value, ok := c.kv[key]; ok {
		for _, ch := range value {
			n = n*10 + int64(ch-'0')
		}
	}
	n++
	c.kv[key] = itoa(n)
	return n, nil
}

func (c *memCounters) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (c *memCounters) TTL(ctx context.Context, key string) (time.Duration, error) { return -1, nil }

func (c *memCounters) MGet(ctx context.Context, keys []string) ([]*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]*string, len(keys))
	for i, key := range keys {
		if value, ok := c.kv[key]; ok {
			copied := value
			result[i] = &copied
		}
	}
	return result, nil
}

func (c *memCounters) HMGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]*string, len(fields))
	hash, ok := c.hashes[key]
	if !ok {
		return result, nil
	}
	for i, field := range fields {
		if value, ok := hash[field]; ok {
			copied := value
			result[i] = &copied
		}
	}
	return result, nil
}

func (c *memCounters) HMSet(ctx context.Context, key string, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	hash, ok := c.hashes[key]
	if !ok {
		hash = make(map[string]string)
		c.hashes[key] = hash
	}
	for field, value := range fields {
		hash[field] = value
	}
	return nil
}

func (c *memCounters) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.kv, key)
		delete(c.hashes, key)
	}
	return nil
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var sb strings.Builder
	var digits []byte
	for n > 0 {
		digits = append(digits, byte('0'+n%10))
		n /= 10
	}
	for i := len(digits) - 1; i >= 0; i-- {
		sb.WriteByte(digits[i])
	}
	return sb.String()
}

// --- 固定返回值的外部依赖 ---

// fakeWhiteboard 实现 service.Whiteboard，记录调用并返回递增 UUID。
type fakeWhiteboard struct {
	mu      sync.Mutex
	created int
	banned  []string
}

func (w *fakeWhiteboard) CreateRoom(ctx context.Context, region domain.Region) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.created++
	return "wb-" + itoa(int64(w.created)), nil
}

func (w *fakeWhiteboard) BanRoom(ctx context.Context, region domain.Region, whiteboardRoomUUID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.banned = append(w.banned, whiteboardRoomUUID)
	return nil
}

// fakeBanner 实现 service.WhiteboardBanner，记录调度过的封禁。
type fakeBanner struct {
	mu        sync.Mutex
	scheduled []string
}

func (b *fakeBanner) ScheduleBan(ctx context.Context, region domain.Region, whiteboardRoomUUID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduled = append(b.scheduled, whiteboardRoomUUID)
	return nil
}
