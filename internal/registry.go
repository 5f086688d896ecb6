package internal

import (
	"sync"
)

// 系統設計問題：
//   許多可獨立變更的房間共用一個伺服器行程，如何做到「同房互斥、異房並行」？
//
// 設計方案：
//   ✅ 每房一把互斥鎖 - 同一房間的操作被鎖完全排序，不同房間互不阻塞
//   ✅ 鎖內操作、鎖外送信 - 操作結束時複製出快照，釋放鎖後才做任何網路 I/O
//   ✅ 固定房間池 - 槽位編號即房間身分，不動態增減，沒有回收與重用問題
//
// 鎖順序紀律（避免死鎖）：
//   - 不得在持有房間鎖時獲取客戶端註冊表鎖，反向亦然
//   - 允許先持註冊表鎖再取單一客戶端的送信鎖（registry → client）
//   - 協調器一律先釋放房間鎖（只留快照）再發送任何通知

// DefaultRoomCount 預設房間池大小
const DefaultRoomCount = 16

// RoomSnapshot 房間欄位的複製快照
//
// 在房間鎖內複製、鎖外使用。協調器據此解析通知的收件人，
// 不需要在發送期間持有任何房間鎖。
type RoomSnapshot struct {
	RoomID  int
	State   RoomState
	Name    string
	OwnerID string
	BlackID string
	WhiteID string
}

// SeatOf 回傳玩家在快照中的席位顏色，未入座回傳 StoneNone
func (s RoomSnapshot) SeatOf(playerID string) StoneColor {
	if playerID == "" {
		return StoneNone
	}
	switch playerID {
	case s.BlackID:
		return StoneBlack
	case s.WhiteID:
		return StoneWhite
	default:
		return StoneNone
	}
}

// OpponentOf 回傳玩家對手的身分，沒有對手回傳空字串
func (s RoomSnapshot) OpponentOf(playerID string) string {
	switch s.SeatOf(playerID) {
	case StoneBlack:
		return s.WhiteID
	case StoneWhite:
		return s.BlackID
	default:
		return ""
	}
}

// Joinable 回報快照當下房間是否可加入（與 GameRoom.IsJoinable 同義）
func (s RoomSnapshot) Joinable() bool {
	return (s.BlackID != "" || s.WhiteID != "") && s.State != RoomPlaying
}

// Seated 回傳快照中所有入座玩家的身分
func (s RoomSnapshot) Seated() []string {
	seated := make([]string, 0, 2)
	if s.BlackID != "" {
		seated = append(seated, s.BlackID)
	}
	if s.WhiteID != "" {
		seated = append(seated, s.WhiteID)
	}
	return seated
}

func snapshotRoom(room *GameRoom) RoomSnapshot {
	return RoomSnapshot{
		RoomID:  room.RoomID(),
		State:   room.State(),
		Name:    room.Name(),
		OwnerID: room.OwnerID(),
		BlackID: room.BlackID(),
		WhiteID: room.WhiteID(),
	}
}

// RoomRegistry 固定房間池加上每房一把鎖
type RoomRegistry struct {
	rooms []*GameRoom
	locks []sync.Mutex
}

// NewRoomRegistry 創建指定大小的房間池，count <= 0 時採用預設值
func NewRoomRegistry(count int) *RoomRegistry {
	if count <= 0 {
		count = DefaultRoomCount
	}

	rooms := make([]*GameRoom, count)
	for roomID := range rooms {
		rooms[roomID] = NewGameRoom(roomID)
	}

	return &RoomRegistry{
		rooms: rooms,
		locks: make([]sync.Mutex, count),
	}
}

// Count 回傳房間池大小
func (reg *RoomRegistry) Count() int {
	return len(reg.rooms)
}

// WithRoom 在指定房間的鎖保護下執行 fn，回傳變更記錄與操作後的快照
//
// 槽位編號越界時回傳 ok=false。fn 執行期間持有該房間的鎖，
// 不得在 fn 內做任何網路 I/O 或獲取其他鎖。
func (reg *RoomRegistry) WithRoom(roomID int, fn func(*GameRoom) RoomChanges) (RoomChanges, RoomSnapshot, bool) {
	if roomID < 0 || roomID >= len(reg.rooms) {
		return RoomChanges{}, RoomSnapshot{}, false
	}

	reg.locks[roomID].Lock()
	defer reg.locks[roomID].Unlock()

	room := reg.rooms[roomID]
	changes := fn(room)
	return changes, snapshotRoom(room), true
}

// WithRoomOf 找到玩家佔座的房間並在同一次持鎖內執行 fn
//
// 檢查「玩家在此房間」與執行操作發生在同一次持鎖期間，因此顯式離開
// 指令與斷線處理即使並發進行，也只會有一方真正改動房間，另一方會
// 看到玩家已不在席位上而回傳空記錄。找不到房間時回傳 ok=false。
func (reg *RoomRegistry) WithRoomOf(playerID string, fn func(*GameRoom) RoomChanges) (RoomChanges, RoomSnapshot, bool) {
	for roomID := range reg.rooms {
		reg.locks[roomID].Lock()
		room := reg.rooms[roomID]
		if room.IsPlayerJoined(playerID) {
			changes := fn(room)
			snapshot := snapshotRoom(room)
			reg.locks[roomID].Unlock()
			return changes, snapshot, true
		}
		reg.locks[roomID].Unlock()
	}
	return RoomChanges{}, RoomSnapshot{}, false
}

// SnapshotOf 找出玩家佔座的房間並取出快照，找不到回傳 ok=false
func (reg *RoomRegistry) SnapshotOf(playerID string) (RoomSnapshot, bool) {
	for roomID := range reg.rooms {
		reg.locks[roomID].Lock()
		room := reg.rooms[roomID]
		if room.IsPlayerJoined(playerID) {
			snapshot := snapshotRoom(room)
			reg.locks[roomID].Unlock()
			return snapshot, true
		}
		reg.locks[roomID].Unlock()
	}
	return RoomSnapshot{}, false
}

// Snapshot 取出單一房間的快照
func (reg *RoomRegistry) Snapshot(roomID int) (RoomSnapshot, bool) {
	if roomID < 0 || roomID >= len(reg.rooms) {
		return RoomSnapshot{}, false
	}

	reg.locks[roomID].Lock()
	defer reg.locks[roomID].Unlock()
	return snapshotRoom(reg.rooms[roomID]), true
}

// Snapshots 依槽位順序取出所有房間的快照
//
// 逐房加鎖，不是全池的一致性快照；房間列表本來就允許逐項更新。
func (reg *RoomRegistry) Snapshots() []RoomSnapshot {
	snapshots := make([]RoomSnapshot, 0, len(reg.rooms))
	for roomID := range reg.rooms {
		reg.locks[roomID].Lock()
		snapshots = append(snapshots, snapshotRoom(reg.rooms[roomID]))
		reg.locks[roomID].Unlock()
	}
	return snapshots
}

// ClientRegistry 當前連線中的客戶端集合
//
// 結構性變更（新增、移除、查詢）由單一註冊表鎖保護，鎖只在
// map 操作期間持有，絕不跨越網路 I/O。每個客戶端各自的送信
// 序列化由 Client.sendMu 負責（見 client.go）。
type ClientRegistry struct {
	mu        sync.RWMutex
	clients   map[string]*Client
	nicknames map[string]string
}

// NewClientRegistry 創建空的客戶端註冊表
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients:   make(map[string]*Client),
		nicknames: make(map[string]string),
	}
}

// Add 登記新連線，暱稱設為預設值
func (reg *ClientRegistry) Add(client *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.clients[client.ID] = client
	reg.nicknames[client.ID] = DefaultNickname
}

// Remove 移除連線與其暱稱
func (reg *ClientRegistry) Remove(clientID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.clients, clientID)
	delete(reg.nicknames, clientID)
}

// Get 查詢連線中的客戶端
func (reg *ClientRegistry) Get(clientID string) (*Client, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	client, ok := reg.clients[clientID]
	return client, ok
}

// Nickname 查詢顯示暱稱，未知身分回傳預設暱稱
//
// 房間快照裡的玩家可能在查詢前一刻斷線，此時以預設暱稱頂替，
// 不把內部的不一致暴露給使用者。
func (reg *ClientRegistry) Nickname(clientID string) string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if nickname, ok := reg.nicknames[clientID]; ok {
		return nickname
	}
	return DefaultNickname
}

// SetNickname 更新顯示暱稱，身分不在線上時回報 false
func (reg *ClientRegistry) SetNickname(clientID, nickname string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.clients[clientID]; !ok {
		return false
	}
	reg.nicknames[clientID] = nickname
	return true
}

// Snapshot 複製出當前所有客戶端，供鎖外廣播使用
func (reg *ClientRegistry) Snapshot() []*Client {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	clients := make([]*Client, 0, len(reg.clients))
	for _, client := range reg.clients {
		clients = append(clients, client)
	}
	return clients
}

// Count 回傳連線數
func (reg *ClientRegistry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.clients)
}
