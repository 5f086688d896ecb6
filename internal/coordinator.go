package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// 系統設計問題：
//   一次房間變更如何變成「正確的通知、送給正確的客戶端」，
//   而且不在持鎖狀態下做任何網路 I/O？
//
// 核心挑戰：
//   1. 收件人解析：有的通知只給兩席玩家，有的要廣播給所有連線
//   2. 鎖外送信：送信可能因緩衝而阻塞，絕不能拖著房間鎖
//   3. 順序保證：同一房間的操作被房間鎖排序，通知翻譯依固定步驟進行
//
// 設計方案：
//   ✅ 變更記錄翻譯 - 房間操作回傳 RoomChanges，協調器逐步翻譯成通知
//   ✅ 快照機制 - 收件人由鎖內複製的房間快照解析，送信時已不持任何房間鎖
//   ✅ 空記錄即拒絕 - 操作沒有效果就不產生任何通知，失敗不靠例外傳遞

// Coordinator 協調器：接收解碼後的客戶端指令，取對的鎖、呼叫對的
// 房間操作，再把回傳的變更記錄翻譯成一連串對外通知。
type Coordinator struct {
	rooms   *RoomRegistry
	clients *ClientRegistry
	logger  *slog.Logger
}

// NewCoordinator 創建協調器
func NewCoordinator(rooms *RoomRegistry, clients *ClientRegistry, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		rooms:   rooms,
		clients: clients,
		logger:  logger,
	}
}

// Connect 登記新連線：指派預設暱稱並推送當前的房間列表
func (co *Coordinator) Connect(client *Client) {
	co.clients.Add(client)
	co.logger.Info("客戶端連線", "client", client.String(), "online", co.clients.Count())

	co.deliver(client, newUpdateMyName(DefaultNickname))
	co.sendAllRoomItems(client)
}

// Disconnect 處理斷線：先移出註冊表，再走與顯式離開完全相同的
// removePlayer 路徑清出席位
//
// 斷線與該客戶端在途指令的競爭由房間鎖裁決：其中一方先改動房間，
// 另一方在鎖內看到玩家已不在席位上，回傳空記錄而無事發生。
func (co *Coordinator) Disconnect(client *Client) {
	co.clients.Remove(client.ID)

	changes, snapshot, ok := co.rooms.WithRoomOf(client.ID, func(room *GameRoom) RoomChanges {
		return room.RemovePlayer(client.ID)
	})
	if ok {
		co.translate(snapshot, changes)
	}

	co.logger.Info("客戶端斷線", "client", client.String(), "online", co.clients.Count())
}

// HandleMessage 解析並分發一則客戶端指令
//
// 回傳非 nil 錯誤代表協定違規（格式錯誤、未知指令、欄位缺失），
// 呼叫方應中斷該連線。語義上的拒絕（加入滿房、非自己回合落子）
// 不是錯誤，以 flash 提示或無事發生收場。
func (co *Coordinator) HandleMessage(client *Client, data []byte) error {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("解析指令: %w", err)
	}

	switch msg.Msg {
	case "createRoom":
		co.createRoom(client, msg.RoomName)
	case "requestAllRoomDatas":
		co.sendAllRoomItems(client)
	case "requestJoinGameRoom":
		if msg.RoomID == nil {
			return errors.New("requestJoinGameRoom 缺少 roomId 欄位")
		}
		co.joinRoom(client, *msg.RoomID)
	case "requestLeaveGameRoom":
		co.leaveRoom(client)
	case "startGame":
		co.startGame(client)
	case "placeStone":
		if msg.Row == nil || msg.Column == nil {
			return errors.New("placeStone 缺少 row 或 column 欄位")
		}
		co.placeStone(client, *msg.Row, *msg.Column)
	case "changeNickname":
		co.changeNickname(client, msg.Nickname)
	default:
		return fmt.Errorf("未知的指令: %q", msg.Msg)
	}
	return nil
}

// createRoom 在第一個 Inactive 槽位創建房間並讓請求者入座
func (co *Coordinator) createRoom(client *Client, roomName string) {
	if roomName == "" {
		co.flash(client, "請輸入房間名稱。", FlashError)
		return
	}
	if len(roomName) > MaxRoomNameBytes {
		co.flash(client, fmt.Sprintf("房間名稱長度不得超過 %d 位元組。", MaxRoomNameBytes), FlashWarning)
		return
	}
	if _, ok := co.rooms.SnapshotOf(client.ID); ok {
		co.flash(client, "請先離開目前的房間。", FlashWarning)
		return
	}

	for roomID := 0; roomID < co.rooms.Count(); roomID++ {
		var created bool
		changes, snapshot, _ := co.rooms.WithRoom(roomID, func(room *GameRoom) RoomChanges {
			if room.State() != RoomInactive {
				return RoomChanges{}
			}
			changes := room.SetName(roomName)
			changes.merge(room.AddPlayer(client.ID))
			created = true
			return changes
		})
		if created {
			co.logger.Info("玩家創建房間",
				"room_id", roomID,
				"client_id", client.ID,
				"room_name", roomName)
			co.translate(snapshot, changes)
			return
		}
	}

	co.flash(client, "已達房間數量上限，無法創建新房間。", FlashError)
}

// joinRoom 讓請求者加入指定房間
func (co *Coordinator) joinRoom(client *Client, roomID int) {
	// 取鎖前先用快照預檢，擋掉不存在或明顯不可加入的房間
	snapshot, ok := co.rooms.Snapshot(roomID)
	if !ok || !snapshot.Joinable() {
		co.flash(client, "無法加入該房間。", FlashWarning)
		return
	}
	if _, ok := co.rooms.SnapshotOf(client.ID); ok {
		co.flash(client, "請先離開目前的房間。", FlashWarning)
		return
	}

	changes, snapshot, _ := co.rooms.WithRoom(roomID, func(room *GameRoom) RoomChanges {
		return room.AddPlayer(client.ID)
	})
	if changes.Empty() {
		// 預檢通過後房間可能已被搶滿或開局，鎖內的 AddPlayer 才是定論
		co.flash(client, "無法加入該房間。", FlashWarning)
		return
	}

	co.logger.Info("玩家加入房間", "room_id", roomID, "client_id", client.ID)
	co.translate(snapshot, changes)
}

// leaveRoom 讓請求者離開其佔座的房間
func (co *Coordinator) leaveRoom(client *Client) {
	changes, snapshot, ok := co.rooms.WithRoomOf(client.ID, func(room *GameRoom) RoomChanges {
		return room.RemovePlayer(client.ID)
	})
	if !ok {
		return
	}

	co.logger.Info("玩家離開房間", "room_id", snapshot.RoomID, "client_id", client.ID)
	co.translate(snapshot, changes)
}

// startGame 房主開始對局
func (co *Coordinator) startGame(client *Client) {
	changes, snapshot, ok := co.rooms.WithRoomOf(client.ID, func(room *GameRoom) RoomChanges {
		if room.OwnerID() != client.ID {
			return RoomChanges{}
		}
		return room.StartGame()
	})
	if !ok || changes.Empty() {
		co.flash(client, "無法開始遊戲。", FlashWarning)
		return
	}

	co.logger.Info("對局開始",
		"room_id", snapshot.RoomID,
		"black", snapshot.BlackID,
		"white", snapshot.WhiteID)
	co.translate(snapshot, changes)
}

// placeStone 請求者在其席位落子，非法落子無聲拒絕
func (co *Coordinator) placeStone(client *Client, row, column int) {
	changes, snapshot, ok := co.rooms.WithRoomOf(client.ID, func(room *GameRoom) RoomChanges {
		return room.PlaceStone(client.ID, row, column)
	})
	if !ok || changes.Empty() {
		return
	}

	co.translate(snapshot, changes)
}

// changeNickname 更新暱稱，並同步所有顯示該暱稱的視圖
func (co *Coordinator) changeNickname(client *Client, nickname string) {
	if len(nickname) == 0 || len(nickname) > MaxNicknameBytes {
		co.flash(client, fmt.Sprintf("暱稱長度必須在 1 到 %d 位元組之間。", MaxNicknameBytes), FlashWarning)
		return
	}
	if !co.clients.SetNickname(client.ID, nickname) {
		return
	}

	co.deliver(client, newUpdateMyName(nickname))

	// 暱稱會出現在對手視圖與大廳的房主欄位，一併刷新
	if snapshot, ok := co.rooms.SnapshotOf(client.ID); ok {
		if opponent := snapshot.OpponentOf(client.ID); opponent != "" {
			if peer, ok := co.clients.Get(opponent); ok {
				co.deliver(peer, newUpdateOpponentName(nickname))
			}
		}
		if snapshot.OwnerID == client.ID {
			co.broadcastRoomItem(snapshot)
		}
	}

	co.logger.Info("玩家更改暱稱", "client_id", client.ID, "nickname", nickname)
}

// sendAllRoomItems 推送房間列表快照（只含可見的 Waiting 房間）
func (co *Coordinator) sendAllRoomItems(client *Client) {
	for _, snapshot := range co.rooms.Snapshots() {
		if snapshot.State == RoomWaiting && snapshot.OwnerID != "" {
			co.deliver(client, newRoomItem(snapshot.RoomID, snapshot.Name, co.clients.Nickname(snapshot.OwnerID)))
		}
	}
}

// translate 把一筆變更記錄翻譯成對外通知
//
// 步驟順序固定，收件人一律由鎖內複製出的快照解析；執行期間
// 不持有任何房間鎖。空記錄直接結束 - 無效果即無通知。
func (co *Coordinator) translate(snapshot RoomSnapshot, changes RoomChanges) {
	if changes.Empty() {
		return
	}

	// 1. Joined：入座者收到進房通知，兩席都刷新房內視圖
	for _, event := range changes.JoinedLeft {
		if event.Kind != PlayerJoined {
			continue
		}
		if c, ok := co.clients.Get(event.PlayerID); ok {
			co.deliver(c, newEnterGameRoom(snapshot.RoomID))
		}
		co.refreshRoomViews(snapshot)
	}

	// 2. Left：離席者收到踢出通知，留下的席位清空對手欄位
	anyLeft := false
	for _, event := range changes.JoinedLeft {
		if event.Kind != PlayerLeft {
			continue
		}
		anyLeft = true
		if c, ok := co.clients.Get(event.PlayerID); ok {
			co.deliver(c, newKickedFromGameRoom())
		}
	}
	if anyLeft {
		co.sendSeated(snapshot, newUpdateOpponentName(""))
	}

	// 3. 名稱/房主/狀態變更：大廳列表條目更新；席位內的房主旗標與房名跟進
	if changes.NewRoomName != nil || changes.NewOwnerID != nil || changes.NewRoomState != nil {
		co.broadcastRoomItem(snapshot)
	}
	if changes.NewOwnerID != nil {
		for _, playerID := range snapshot.Seated() {
			if c, ok := co.clients.Get(playerID); ok {
				co.deliver(c, newUpdateOwnership(playerID == snapshot.OwnerID))
			}
		}
	}
	if changes.NewRoomName != nil {
		co.sendSeated(snapshot, newUpdateCurrentRoomName(snapshot.Name))
	}

	// 4. 轉入 Playing：各席收到自己分配到的顏色與新狀態
	if changes.NewRoomState != nil && *changes.NewRoomState == RoomPlaying {
		for _, playerID := range snapshot.Seated() {
			if c, ok := co.clients.Get(playerID); ok {
				co.deliver(c, newUpdateStoneColor(snapshot.SeatOf(playerID)))
				co.deliver(c, newUpdateRoomState(snapshot.RoomID, RoomPlaying))
			}
		}
	}

	// 5. 轉入 Inactive：所有連線收到該房間的失效通知，開著房間的客戶端回大廳
	if changes.NewRoomState != nil && *changes.NewRoomState == RoomInactive {
		co.broadcast(newUpdateRoomState(snapshot.RoomID, RoomInactive))
	}

	// 6. 落子
	if changes.PlacedStone != nil {
		co.sendSeated(snapshot, newPlaceStone(*changes.PlacedStone))
	}

	// 7. 狀態訊息
	if changes.Message != "" {
		co.sendSeated(snapshot, newGameMessage(changes.Message))
	}
}

// refreshRoomViews 推送兩席玩家各自的完整房內視圖
func (co *Coordinator) refreshRoomViews(snapshot RoomSnapshot) {
	for _, playerID := range snapshot.Seated() {
		c, ok := co.clients.Get(playerID)
		if !ok {
			continue
		}

		color := StoneNone
		if snapshot.State == RoomPlaying {
			color = snapshot.SeatOf(playerID)
		}

		opponentName := ""
		if opponent := snapshot.OpponentOf(playerID); opponent != "" {
			opponentName = co.clients.Nickname(opponent)
		}

		co.deliver(c, newUpdateCurrentRoomName(snapshot.Name))
		co.deliver(c, newUpdateMyName(co.clients.Nickname(playerID)))
		co.deliver(c, newUpdateOpponentName(opponentName))
		co.deliver(c, newUpdateStoneColor(color))
		co.deliver(c, newUpdateOwnership(playerID == snapshot.OwnerID))
		co.deliver(c, newUpdateRoomState(snapshot.RoomID, snapshot.State))
	}
}

// broadcastRoomItem 向所有連線更新一個大廳列表條目
//
// 只有「Waiting 且有房主」的房間會出現在大廳，其餘狀態一律送移除條目。
func (co *Coordinator) broadcastRoomItem(snapshot RoomSnapshot) {
	if snapshot.State == RoomWaiting && snapshot.OwnerID != "" {
		co.broadcast(newRoomItem(snapshot.RoomID, snapshot.Name, co.clients.Nickname(snapshot.OwnerID)))
	} else {
		co.broadcast(newRemoveRoomItem(snapshot.RoomID))
	}
}

// sendSeated 把同一則通知送給快照中的兩席玩家
func (co *Coordinator) sendSeated(snapshot RoomSnapshot, message any) {
	for _, playerID := range snapshot.Seated() {
		if c, ok := co.clients.Get(playerID); ok {
			co.deliver(c, message)
		}
	}
}

// broadcast 把同一則通知送給所有連線中的客戶端
func (co *Coordinator) broadcast(message any) {
	for _, client := range co.clients.Snapshot() {
		co.deliver(client, message)
	}
}

// flash 對單一客戶端送出提示訊息
func (co *Coordinator) flash(client *Client, text string, flashType int) {
	co.deliver(client, newFlash(text, flashType))
}

// deliver 送出一則通知
//
// 送信失敗不在這裡收拾狀態，讀取端察覺連線壞掉後會走統一的斷線路徑。
// 超過框架上限屬於協定錯誤，直接關閉該連線。
func (co *Coordinator) deliver(client *Client, message any) {
	if err := client.Send(message); err != nil {
		co.logger.Warn("送出通知失敗",
			"client_id", client.ID,
			"error", err)
		if errors.Is(err, ErrFrameTooLarge) {
			_ = client.Close()
		}
	}
}
