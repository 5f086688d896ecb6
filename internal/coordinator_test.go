package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/koopa0/system-design/14-omok-server/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger 創建測試用的靜默日誌器
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConn 捕捉送出訊息的假連線
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errors.New("連線已關閉")
	}
	if messageType == websocket.TextMessage {
		f.frames = append(f.frames, append([]byte(nil), data...))
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// received 解碼所有已捕捉的訊息
func (f *fakeConn) received(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	messages := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(frame, &m), "送出的訊息必須是合法 JSON")
		messages = append(messages, m)
	}
	return messages
}

// receivedOf 回傳指定 msg 類型的所有訊息
func (f *fakeConn) receivedOf(t *testing.T, msg string) []map[string]any {
	t.Helper()
	var matched []map[string]any
	for _, m := range f.received(t) {
		if m["msg"] == msg {
			matched = append(matched, m)
		}
	}
	return matched
}

// reset 清空已捕捉的訊息，方便只驗證某個操作之後的通知
func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// isClosed 回報連線是否已被關閉
func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// testEnv 組裝一套完整的協調器與其依賴
type testEnv struct {
	t           *testing.T
	rooms       *internal.RoomRegistry
	clients     *internal.ClientRegistry
	coordinator *internal.Coordinator
}

func newTestEnv(t *testing.T, roomCount int) *testEnv {
	t.Helper()
	rooms := internal.NewRoomRegistry(roomCount)
	clients := internal.NewClientRegistry()
	return &testEnv{
		t:           t,
		rooms:       rooms,
		clients:     clients,
		coordinator: internal.NewCoordinator(rooms, clients, testLogger()),
	}
}

// connect 建立一條新連線並完成登記
func (env *testEnv) connect(id string) (*internal.Client, *fakeConn) {
	env.t.Helper()
	conn := &fakeConn{}
	client := internal.NewClient(id, "127.0.0.1:1000", conn, 0)
	env.coordinator.Connect(client)
	return client, conn
}

// handle 送入一則原始指令，協定錯誤直接讓測試失敗
func (env *testEnv) handle(client *internal.Client, raw string) {
	env.t.Helper()
	require.NoError(env.t, env.coordinator.HandleMessage(client, []byte(raw)))
}

// seatedPair 創建房間並讓兩位玩家入座，回傳黑白兩席對應的連線
func (env *testEnv) seatedPair(roomName string) (owner, guest *internal.Client, ownerConn, guestConn *fakeConn) {
	env.t.Helper()
	owner, ownerConn = env.connect("owner")
	guest, guestConn = env.connect("guest")

	env.handle(owner, fmt.Sprintf(`{"msg":"createRoom","roomName":%q}`, roomName))
	env.handle(guest, `{"msg":"requestJoinGameRoom","roomId":0}`)
	return owner, guest, ownerConn, guestConn
}

// connOf 依身分找出該玩家的連線
func (env *testEnv) connOf(playerID string, candidates map[string]*fakeConn) *fakeConn {
	env.t.Helper()
	conn, ok := candidates[playerID]
	require.True(env.t, ok, "未知的玩家身分 %q", playerID)
	return conn
}

// TestCoordinator_Connect 測試連線登記與初始推送
func TestCoordinator_Connect(t *testing.T) {
	env := newTestEnv(t, 4)

	// 先有一間可見的 Waiting 房間
	first, _ := env.connect("first")
	env.handle(first, `{"msg":"createRoom","roomName":"先到的房間"}`)

	_, conn := env.connect("second")

	// 新連線拿到預設暱稱
	myNames := conn.receivedOf(t, "updateMyName")
	require.Len(t, myNames, 1)
	assert.Equal(t, internal.DefaultNickname, myNames[0]["name"])

	// 以及當前的房間列表
	items := conn.receivedOf(t, "sendRoomItem")
	require.Len(t, items, 1)
	assert.EqualValues(t, 0, items[0]["roomId"])
	assert.Equal(t, "先到的房間", items[0]["roomName"])
	assert.Equal(t, internal.DefaultNickname, items[0]["roomOwner"])

	assert.Equal(t, 2, env.clients.Count())
}

// TestCoordinator_CreateRoom 測試創建房間
func TestCoordinator_CreateRoom(t *testing.T) {
	t.Run("成功創建並入座", func(t *testing.T) {
		env := newTestEnv(t, 4)
		creator, creatorConn := env.connect("creator")
		_, observerConn := env.connect("observer")
		creatorConn.reset()
		observerConn.reset()

		env.handle(creator, `{"msg":"createRoom","roomName":"新房間"}`)

		// 創建者進房
		enters := creatorConn.receivedOf(t, "enterGameRoom")
		require.Len(t, enters, 1)
		assert.EqualValues(t, 0, enters[0]["roomId"])

		// 房內視圖：名稱、房主旗標、Waiting 狀態
		names := creatorConn.receivedOf(t, "updateCurrentRoomName")
		require.NotEmpty(t, names)
		assert.Equal(t, "新房間", names[0]["roomName"])

		ownerships := creatorConn.receivedOf(t, "updateOwnership")
		require.NotEmpty(t, ownerships)
		assert.Equal(t, true, ownerships[0]["isOwner"])

		states := creatorConn.receivedOf(t, "updateRoomState")
		require.NotEmpty(t, states)
		assert.EqualValues(t, internal.RoomWaiting, states[0]["state"])

		// 旁觀者在大廳看到新條目
		items := observerConn.receivedOf(t, "sendRoomItem")
		require.Len(t, items, 1)
		assert.Equal(t, "新房間", items[0]["roomName"])
	})

	t.Run("空房名被拒絕", func(t *testing.T) {
		env := newTestEnv(t, 4)
		creator, conn := env.connect("creator")
		conn.reset()

		env.handle(creator, `{"msg":"createRoom","roomName":""}`)

		flashes := conn.receivedOf(t, "flash")
		require.Len(t, flashes, 1)
		assert.Equal(t, "請輸入房間名稱。", flashes[0]["text"])
		assert.EqualValues(t, internal.FlashError, flashes[0]["flashType"])
		assert.Empty(t, conn.receivedOf(t, "enterGameRoom"))
	})

	t.Run("房名過長被拒絕，不波及任何連線", func(t *testing.T) {
		env := newTestEnv(t, 4)
		creator, creatorConn := env.connect("creator")
		_, observerConn := env.connect("observer")
		creatorConn.reset()
		observerConn.reset()

		// 指令本身在進向框架上限內，但房名放進 sendRoomItem 廣播後會超限
		longName := strings.Repeat("a", 220)
		env.handle(creator, fmt.Sprintf(`{"msg":"createRoom","roomName":%q}`, longName))

		flashes := creatorConn.receivedOf(t, "flash")
		require.Len(t, flashes, 1)
		assert.Contains(t, flashes[0]["text"], "房間名稱長度")

		// 拒絕發生在任何房間變更之前：沒有人進房、沒有廣播、沒有連線被關
		assert.Empty(t, creatorConn.receivedOf(t, "enterGameRoom"))
		assert.Empty(t, observerConn.received(t))
		assert.False(t, creatorConn.isClosed(), "創建者的連線必須保持開啟")
		assert.False(t, observerConn.isClosed(), "旁觀者不能因別人的房名被斷線")

		snapshot, ok := env.rooms.Snapshot(0)
		require.True(t, ok)
		assert.Equal(t, internal.RoomInactive, snapshot.State)
	})

	t.Run("房名上限內的名稱照常廣播", func(t *testing.T) {
		env := newTestEnv(t, 4)
		creator, _ := env.connect("creator")
		_, observerConn := env.connect("observer")
		observerConn.reset()

		maxName := strings.Repeat("名", internal.MaxRoomNameBytes/3)
		env.handle(creator, fmt.Sprintf(`{"msg":"createRoom","roomName":%q}`, maxName))

		items := observerConn.receivedOf(t, "sendRoomItem")
		require.Len(t, items, 1)
		assert.Equal(t, maxName, items[0]["roomName"])
		assert.False(t, observerConn.isClosed())
	})

	t.Run("已在房間內不能再創建", func(t *testing.T) {
		env := newTestEnv(t, 4)
		creator, conn := env.connect("creator")
		env.handle(creator, `{"msg":"createRoom","roomName":"第一間"}`)
		conn.reset()

		env.handle(creator, `{"msg":"createRoom","roomName":"第二間"}`)

		flashes := conn.receivedOf(t, "flash")
		require.Len(t, flashes, 1)
		assert.Equal(t, "請先離開目前的房間。", flashes[0]["text"])

		// 池中仍只有一間使用中的房間
		snapshot, ok := env.rooms.Snapshot(1)
		require.True(t, ok)
		assert.Equal(t, internal.RoomInactive, snapshot.State)
	})

	t.Run("房間池耗盡", func(t *testing.T) {
		env := newTestEnv(t, 1)
		first, _ := env.connect("first")
		env.handle(first, `{"msg":"createRoom","roomName":"唯一的房間"}`)

		second, conn := env.connect("second")
		conn.reset()
		env.handle(second, `{"msg":"createRoom","roomName":"擠不進去"}`)

		flashes := conn.receivedOf(t, "flash")
		require.Len(t, flashes, 1)
		assert.Equal(t, "已達房間數量上限，無法創建新房間。", flashes[0]["text"])
	})
}

// TestCoordinator_JoinRoom 測試加入房間
func TestCoordinator_JoinRoom(t *testing.T) {
	t.Run("成功加入", func(t *testing.T) {
		env := newTestEnv(t, 4)
		owner, ownerConn := env.connect("owner")
		env.handle(owner, `{"msg":"createRoom","roomName":"等人中"}`)

		guest, guestConn := env.connect("guest")
		ownerConn.reset()
		guestConn.reset()

		env.handle(guest, `{"msg":"requestJoinGameRoom","roomId":0}`)

		// 加入者進房並看到完整房內視圖
		require.Len(t, guestConn.receivedOf(t, "enterGameRoom"), 1)
		names := guestConn.receivedOf(t, "updateCurrentRoomName")
		require.NotEmpty(t, names)
		assert.Equal(t, "等人中", names[0]["roomName"])

		opponents := guestConn.receivedOf(t, "updateOpponentName")
		require.NotEmpty(t, opponents)
		assert.Equal(t, internal.DefaultNickname, opponents[0]["name"])

		ownerships := guestConn.receivedOf(t, "updateOwnership")
		require.NotEmpty(t, ownerships)
		assert.Equal(t, false, ownerships[0]["isOwner"])

		// 原房主的視圖也同步刷新，看到新對手
		opponents = ownerConn.receivedOf(t, "updateOpponentName")
		require.NotEmpty(t, opponents)
		assert.Equal(t, internal.DefaultNickname, opponents[0]["name"])
	})

	t.Run("房間不存在或不可加入", func(t *testing.T) {
		env := newTestEnv(t, 2)
		guest, conn := env.connect("guest")
		conn.reset()

		// 越界槽位
		env.handle(guest, `{"msg":"requestJoinGameRoom","roomId":9}`)
		// Inactive 房間
		env.handle(guest, `{"msg":"requestJoinGameRoom","roomId":0}`)

		flashes := conn.receivedOf(t, "flash")
		require.Len(t, flashes, 2)
		for _, flash := range flashes {
			assert.Equal(t, "無法加入該房間。", flash["text"])
		}
	})

	t.Run("已在房間內不能再加入", func(t *testing.T) {
		env := newTestEnv(t, 4)
		owner, _ := env.connect("owner")
		env.handle(owner, `{"msg":"createRoom","roomName":"甲房"}`)
		other, otherConn := env.connect("other")
		env.handle(other, `{"msg":"createRoom","roomName":"乙房"}`)
		otherConn.reset()

		env.handle(other, `{"msg":"requestJoinGameRoom","roomId":0}`)

		flashes := otherConn.receivedOf(t, "flash")
		require.Len(t, flashes, 1)
		assert.Equal(t, "請先離開目前的房間。", flashes[0]["text"])

		// 甲房仍只有原房主一人
		snapshot, _ := env.rooms.Snapshot(0)
		assert.Len(t, snapshot.Seated(), 1)
	})
}

// TestCoordinator_StartGame 測試開局
func TestCoordinator_StartGame(t *testing.T) {
	t.Run("房主開局分配顏色", func(t *testing.T) {
		env := newTestEnv(t, 4)
		owner, _, ownerConn, guestConn := env.seatedPair("對戰房")
		ownerConn.reset()
		guestConn.reset()

		env.handle(owner, `{"msg":"startGame"}`)

		snapshot, ok := env.rooms.Snapshot(0)
		require.True(t, ok)
		assert.Equal(t, internal.RoomPlaying, snapshot.State)

		conns := map[string]*fakeConn{"owner": ownerConn, "guest": guestConn}
		blackConn := env.connOf(snapshot.BlackID, conns)
		whiteConn := env.connOf(snapshot.WhiteID, conns)

		// 各席收到自己分配到的顏色
		colors := blackConn.receivedOf(t, "updateStoneColor")
		require.Len(t, colors, 1)
		assert.EqualValues(t, internal.StoneBlack, colors[0]["color"])

		colors = whiteConn.receivedOf(t, "updateStoneColor")
		require.Len(t, colors, 1)
		assert.EqualValues(t, internal.StoneWhite, colors[0]["color"])

		// 兩席都收到 Playing 狀態與開局訊息
		for _, conn := range []*fakeConn{blackConn, whiteConn} {
			states := conn.receivedOf(t, "updateRoomState")
			require.Len(t, states, 1)
			assert.EqualValues(t, internal.RoomPlaying, states[0]["state"])

			messages := conn.receivedOf(t, "gameMessage")
			require.Len(t, messages, 1)
			assert.Equal(t, "黑棋的回合", messages[0]["text"])
		}

		// 開局的房間從大廳列表消失
		removes := ownerConn.receivedOf(t, "removeRoomItem")
		require.Len(t, removes, 1)
		assert.EqualValues(t, 0, removes[0]["roomId"])
	})

	t.Run("非房主不能開局", func(t *testing.T) {
		env := newTestEnv(t, 4)
		_, guest, _, guestConn := env.seatedPair("對戰房")
		guestConn.reset()

		env.handle(guest, `{"msg":"startGame"}`)

		flashes := guestConn.receivedOf(t, "flash")
		require.Len(t, flashes, 1)
		assert.Equal(t, "無法開始遊戲。", flashes[0]["text"])

		snapshot, _ := env.rooms.Snapshot(0)
		assert.Equal(t, internal.RoomWaiting, snapshot.State)
	})

	t.Run("一人房不能開局", func(t *testing.T) {
		env := newTestEnv(t, 4)
		owner, conn := env.connect("owner")
		env.handle(owner, `{"msg":"createRoom","roomName":"獨守空房"}`)
		conn.reset()

		env.handle(owner, `{"msg":"startGame"}`)

		flashes := conn.receivedOf(t, "flash")
		require.Len(t, flashes, 1)
		assert.Equal(t, "無法開始遊戲。", flashes[0]["text"])
	})
}

// TestCoordinator_PlaceStone 測試落子的通知扇出
func TestCoordinator_PlaceStone(t *testing.T) {
	env := newTestEnv(t, 4)
	owner, _, ownerConn, guestConn := env.seatedPair("對戰房")
	env.handle(owner, `{"msg":"startGame"}`)

	snapshot, ok := env.rooms.Snapshot(0)
	require.True(t, ok)
	conns := map[string]*fakeConn{"owner": ownerConn, "guest": guestConn}
	blackConn := env.connOf(snapshot.BlackID, conns)
	whiteConn := env.connOf(snapshot.WhiteID, conns)
	black, _ := env.clients.Get(snapshot.BlackID)
	white, _ := env.clients.Get(snapshot.WhiteID)
	require.NotNil(t, black)
	require.NotNil(t, white)

	t.Run("合法落子扇出給兩席", func(t *testing.T) {
		blackConn.reset()
		whiteConn.reset()

		env.handle(black, `{"msg":"placeStone","row":7,"column":7}`)

		for _, conn := range []*fakeConn{blackConn, whiteConn} {
			stones := conn.receivedOf(t, "placeStone")
			require.Len(t, stones, 1)
			assert.EqualValues(t, internal.StoneBlack, stones[0]["color"])
			assert.EqualValues(t, 7, stones[0]["row"])
			assert.EqualValues(t, 7, stones[0]["column"])

			messages := conn.receivedOf(t, "gameMessage")
			require.Len(t, messages, 1)
			assert.Equal(t, "白棋的回合", messages[0]["text"])
		}
	})

	t.Run("非自己回合的落子無聲拒絕", func(t *testing.T) {
		blackConn.reset()
		whiteConn.reset()

		// 上一手是黑棋，輪到白棋；黑棋再出手必須被拒絕
		env.handle(black, `{"msg":"placeStone","row":8,"column":8}`)

		assert.Empty(t, blackConn.received(t), "拒絕不產生任何通知")
		assert.Empty(t, whiteConn.received(t))
	})

	t.Run("row 為 0 是合法座標", func(t *testing.T) {
		blackConn.reset()
		whiteConn.reset()

		env.handle(white, `{"msg":"placeStone","row":0,"column":0}`)

		stones := blackConn.receivedOf(t, "placeStone")
		require.Len(t, stones, 1)
		assert.EqualValues(t, 0, stones[0]["row"])
		assert.EqualValues(t, internal.StoneWhite, stones[0]["color"])
	})
}

// TestCoordinator_WinGame 測試勝負判定的端到端通知
func TestCoordinator_WinGame(t *testing.T) {
	env := newTestEnv(t, 4)
	owner, _, ownerConn, guestConn := env.seatedPair("決勝房")
	env.handle(owner, `{"msg":"startGame"}`)

	snapshot, _ := env.rooms.Snapshot(0)
	conns := map[string]*fakeConn{"owner": ownerConn, "guest": guestConn}
	blackConn := env.connOf(snapshot.BlackID, conns)
	whiteConn := env.connOf(snapshot.WhiteID, conns)
	black, _ := env.clients.Get(snapshot.BlackID)
	white, _ := env.clients.Get(snapshot.WhiteID)

	// 黑棋在第 0 行湊五連，白棋在第 5 行陪跑
	for i := 0; i < 4; i++ {
		env.handle(black, fmt.Sprintf(`{"msg":"placeStone","row":0,"column":%d}`, i))
		env.handle(white, fmt.Sprintf(`{"msg":"placeStone","row":5,"column":%d}`, i))
	}

	blackConn.reset()
	whiteConn.reset()
	env.handle(black, `{"msg":"placeStone","row":0,"column":4}`)

	for _, conn := range []*fakeConn{blackConn, whiteConn} {
		messages := conn.receivedOf(t, "gameMessage")
		require.Len(t, messages, 1)
		assert.Equal(t, "黑棋獲勝，遊戲結束。", messages[0]["text"])
	}

	// 勝負確定後的落子不再產生通知
	whiteConn.reset()
	env.handle(white, `{"msg":"placeStone","row":10,"column":10}`)
	assert.Empty(t, whiteConn.received(t))
}

// TestCoordinator_LeaveWhilePlaying 測試對局中離席的整房解散
func TestCoordinator_LeaveWhilePlaying(t *testing.T) {
	env := newTestEnv(t, 4)
	owner, guest, ownerConn, guestConn := env.seatedPair("對戰房")
	_, observerConn := env.connect("observer")
	env.handle(owner, `{"msg":"startGame"}`)

	ownerConn.reset()
	guestConn.reset()
	observerConn.reset()

	env.handle(guest, `{"msg":"requestLeaveGameRoom"}`)

	// 兩席都被踢出
	require.Len(t, guestConn.receivedOf(t, "kickedFromGameRoom"), 1)
	require.Len(t, ownerConn.receivedOf(t, "kickedFromGameRoom"), 1)

	// 所有連線收到房間失效
	for _, conn := range []*fakeConn{ownerConn, guestConn, observerConn} {
		states := conn.receivedOf(t, "updateRoomState")
		require.Len(t, states, 1)
		assert.EqualValues(t, 0, states[0]["roomId"])
		assert.EqualValues(t, internal.RoomInactive, states[0]["state"])
	}

	// 房間回到初始狀態可被重用
	snapshot, _ := env.rooms.Snapshot(0)
	assert.Equal(t, internal.RoomInactive, snapshot.State)
	assert.Empty(t, snapshot.BlackID)
	assert.Empty(t, snapshot.WhiteID)
	assert.Empty(t, snapshot.OwnerID)
	assert.Equal(t, internal.DefaultRoomName, snapshot.Name)
}

// TestCoordinator_LeaveWhileWaiting 測試等待中離席的房主轉移
func TestCoordinator_LeaveWhileWaiting(t *testing.T) {
	env := newTestEnv(t, 4)
	owner, _, ownerConn, guestConn := env.seatedPair("轉移房")
	_, observerConn := env.connect("observer")

	ownerConn.reset()
	guestConn.reset()
	observerConn.reset()

	env.handle(owner, `{"msg":"requestLeaveGameRoom"}`)

	// 離席者被踢出，留下的玩家不會
	require.Len(t, ownerConn.receivedOf(t, "kickedFromGameRoom"), 1)
	assert.Empty(t, guestConn.receivedOf(t, "kickedFromGameRoom"))

	// 留下的玩家接任房主並清空對手欄位
	ownerships := guestConn.receivedOf(t, "updateOwnership")
	require.Len(t, ownerships, 1)
	assert.Equal(t, true, ownerships[0]["isOwner"])

	opponents := guestConn.receivedOf(t, "updateOpponentName")
	require.NotEmpty(t, opponents)
	assert.Equal(t, "", opponents[0]["name"])

	// 大廳條目以新房主的暱稱更新
	items := observerConn.receivedOf(t, "sendRoomItem")
	require.Len(t, items, 1)
	assert.Equal(t, "轉移房", items[0]["roomName"])

	snapshot, _ := env.rooms.Snapshot(0)
	assert.Equal(t, internal.RoomWaiting, snapshot.State)
	assert.Equal(t, "guest", snapshot.OwnerID)
}

// TestCoordinator_Disconnect 測試斷線走顯式離開的同一條清理路徑
func TestCoordinator_Disconnect(t *testing.T) {
	env := newTestEnv(t, 4)
	owner, guest, _, guestConn := env.seatedPair("斷線房")
	env.handle(owner, `{"msg":"startGame"}`)
	guestConn.reset()

	env.coordinator.Disconnect(owner)

	// 斷線者移出註冊表
	assert.Equal(t, 1, env.clients.Count())
	_, ok := env.clients.Get(owner.ID)
	assert.False(t, ok)

	// 留下的玩家被踢回大廳並收到房間失效
	require.Len(t, guestConn.receivedOf(t, "kickedFromGameRoom"), 1)
	states := guestConn.receivedOf(t, "updateRoomState")
	require.Len(t, states, 1)
	assert.EqualValues(t, internal.RoomInactive, states[0]["state"])

	snapshot, _ := env.rooms.Snapshot(0)
	assert.Equal(t, internal.RoomInactive, snapshot.State)

	// 斷線之後的重複清理是無操作
	env.coordinator.Disconnect(guest)
	assert.Equal(t, 0, env.clients.Count())
}

// TestCoordinator_ChangeNickname 測試暱稱更新的連鎖刷新
func TestCoordinator_ChangeNickname(t *testing.T) {
	t.Run("更新自己並同步對手與大廳", func(t *testing.T) {
		env := newTestEnv(t, 4)
		owner, _, ownerConn, guestConn := env.seatedPair("暱稱房")
		_, observerConn := env.connect("observer")
		ownerConn.reset()
		guestConn.reset()
		observerConn.reset()

		env.handle(owner, `{"msg":"changeNickname","nickname":"棋聖"}`)

		myNames := ownerConn.receivedOf(t, "updateMyName")
		require.Len(t, myNames, 1)
		assert.Equal(t, "棋聖", myNames[0]["name"])

		opponents := guestConn.receivedOf(t, "updateOpponentName")
		require.Len(t, opponents, 1)
		assert.Equal(t, "棋聖", opponents[0]["name"])

		// 改名的是房主，大廳條目的房主欄位跟著更新
		items := observerConn.receivedOf(t, "sendRoomItem")
		require.Len(t, items, 1)
		assert.Equal(t, "棋聖", items[0]["roomOwner"])
	})

	t.Run("非房主改名不驚動大廳", func(t *testing.T) {
		env := newTestEnv(t, 4)
		_, guest, _, _ := env.seatedPair("暱稱房")
		_, observerConn := env.connect("observer")
		observerConn.reset()

		env.handle(guest, `{"msg":"changeNickname","nickname":"挑戰者"}`)

		assert.Empty(t, observerConn.receivedOf(t, "sendRoomItem"))
		assert.Equal(t, "挑戰者", env.clients.Nickname(guest.ID))
	})

	t.Run("長度驗證", func(t *testing.T) {
		env := newTestEnv(t, 4)
		client, conn := env.connect("client")
		conn.reset()

		// 空暱稱
		env.handle(client, `{"msg":"changeNickname","nickname":""}`)
		// 超過 32 位元組（中文字每字 3 位元組）
		env.handle(client, `{"msg":"changeNickname","nickname":"超長暱稱超長暱稱超長暱稱"}`)

		flashes := conn.receivedOf(t, "flash")
		require.Len(t, flashes, 2)
		assert.Empty(t, conn.receivedOf(t, "updateMyName"))
		assert.Equal(t, internal.DefaultNickname, env.clients.Nickname(client.ID))
	})
}

// TestCoordinator_RequestAllRoomDatas 測試房間列表請求
func TestCoordinator_RequestAllRoomDatas(t *testing.T) {
	env := newTestEnv(t, 4)

	// 一間 Waiting、一間 Playing、其餘 Inactive
	a, _ := env.connect("a")
	env.handle(a, `{"msg":"createRoom","roomName":"等待中"}`)

	owner, _ := env.connect("b_owner")
	guest, _ := env.connect("b_guest")
	env.handle(owner, `{"msg":"createRoom","roomName":"對戰中"}`)
	env.handle(guest, `{"msg":"requestJoinGameRoom","roomId":1}`)
	env.handle(owner, `{"msg":"startGame"}`)

	viewer, conn := env.connect("viewer")
	conn.reset()
	env.handle(viewer, `{"msg":"requestAllRoomDatas"}`)

	// 只有 Waiting 房間出現在列表
	items := conn.receivedOf(t, "sendRoomItem")
	require.Len(t, items, 1)
	assert.EqualValues(t, 0, items[0]["roomId"])
	assert.Equal(t, "等待中", items[0]["roomName"])
}

// TestCoordinator_ProtocolErrors 測試協定違規回傳錯誤
func TestCoordinator_ProtocolErrors(t *testing.T) {
	env := newTestEnv(t, 4)
	client, _ := env.connect("client")

	tests := []struct {
		name string
		raw  string
	}{
		{name: "非法 JSON", raw: `{"msg":`},
		{name: "未知指令", raw: `{"msg":"hackTheGibson"}`},
		{name: "加入缺 roomId", raw: `{"msg":"requestJoinGameRoom"}`},
		{name: "落子缺 row", raw: `{"msg":"placeStone","column":7}`},
		{name: "落子缺 column", raw: `{"msg":"placeStone","row":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.coordinator.HandleMessage(client, []byte(tt.raw))
			assert.Error(t, err)
		})
	}

	t.Run("語義拒絕不是協定錯誤", func(t *testing.T) {
		// 不在房間內卻要離開、開局、落子，都是無聲或 flash 收場
		assert.NoError(t, env.coordinator.HandleMessage(client, []byte(`{"msg":"requestLeaveGameRoom"}`)))
		assert.NoError(t, env.coordinator.HandleMessage(client, []byte(`{"msg":"startGame"}`)))
		assert.NoError(t, env.coordinator.HandleMessage(client, []byte(`{"msg":"placeStone","row":7,"column":7}`)))
	})
}
