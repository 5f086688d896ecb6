package internal

// 線路協定：每則訊息都是帶 msg 判別欄位的 JSON 物件。
// 進出雙向的框架大小都受 maxFrameSize 限制（見 client.go、websocket.go）。

// Flash 訊息嚴重度
const (
	FlashInfo    = 0
	FlashWarning = 1
	FlashError   = 2
)

// inboundMessage 客戶端指令的統一信封
//
// 以指標區分「欄位缺席」與「零值」：placeStone 的 row=0 是合法座標，
// 缺 row 才是協定錯誤。
type inboundMessage struct {
	Msg      string `json:"msg"`
	RoomName string `json:"roomName"`
	RoomID   *int   `json:"roomId"`
	Row      *int   `json:"row"`
	Column   *int   `json:"column"`
	Nickname string `json:"nickname"`
}

// FlashMessage 顯示給使用者的一次性提示
type FlashMessage struct {
	Msg       string `json:"msg"`
	Text      string `json:"text"`
	FlashType int    `json:"flashType"`
}

func newFlash(text string, flashType int) FlashMessage {
	return FlashMessage{Msg: "flash", Text: text, FlashType: flashType}
}

// RoomItemMessage 大廳房間列表的一個條目
type RoomItemMessage struct {
	Msg       string `json:"msg"`
	RoomID    int    `json:"roomId"`
	RoomName  string `json:"roomName"`
	RoomOwner string `json:"roomOwner"`
}

func newRoomItem(roomID int, roomName, roomOwner string) RoomItemMessage {
	return RoomItemMessage{Msg: "sendRoomItem", RoomID: roomID, RoomName: roomName, RoomOwner: roomOwner}
}

// RemoveRoomItemMessage 從大廳列表移除一個條目
type RemoveRoomItemMessage struct {
	Msg    string `json:"msg"`
	RoomID int    `json:"roomId"`
}

func newRemoveRoomItem(roomID int) RemoveRoomItemMessage {
	return RemoveRoomItemMessage{Msg: "removeRoomItem", RoomID: roomID}
}

// EnterGameRoomMessage 通知客戶端已進入房間
type EnterGameRoomMessage struct {
	Msg    string `json:"msg"`
	RoomID int    `json:"roomId"`
}

func newEnterGameRoom(roomID int) EnterGameRoomMessage {
	return EnterGameRoomMessage{Msg: "enterGameRoom", RoomID: roomID}
}

// KickedFromGameRoomMessage 通知客戶端已離開（或被踢出）房間
type KickedFromGameRoomMessage struct {
	Msg string `json:"msg"`
}

func newKickedFromGameRoom() KickedFromGameRoomMessage {
	return KickedFromGameRoomMessage{Msg: "kickedFromGameRoom"}
}

// UpdateRoomStateMessage 房間生命週期狀態更新
type UpdateRoomStateMessage struct {
	Msg    string `json:"msg"`
	RoomID int    `json:"roomId"`
	State  int    `json:"state"`
}

func newUpdateRoomState(roomID int, state RoomState) UpdateRoomStateMessage {
	return UpdateRoomStateMessage{Msg: "updateRoomState", RoomID: roomID, State: int(state)}
}

// UpdateOwnershipMessage 房主旗標更新
type UpdateOwnershipMessage struct {
	Msg     string `json:"msg"`
	IsOwner bool   `json:"isOwner"`
}

func newUpdateOwnership(isOwner bool) UpdateOwnershipMessage {
	return UpdateOwnershipMessage{Msg: "updateOwnership", IsOwner: isOwner}
}

// UpdateStoneColorMessage 分配到的棋子顏色（2 表示未分配）
type UpdateStoneColorMessage struct {
	Msg   string `json:"msg"`
	Color int    `json:"color"`
}

func newUpdateStoneColor(color StoneColor) UpdateStoneColorMessage {
	return UpdateStoneColorMessage{Msg: "updateStoneColor", Color: int(color)}
}

// UpdateCurrentRoomNameMessage 所在房間的顯示名稱更新
type UpdateCurrentRoomNameMessage struct {
	Msg      string `json:"msg"`
	RoomName string `json:"roomName"`
}

func newUpdateCurrentRoomName(roomName string) UpdateCurrentRoomNameMessage {
	return UpdateCurrentRoomNameMessage{Msg: "updateCurrentRoomName", RoomName: roomName}
}

// UpdateMyNameMessage 自己的暱稱更新
type UpdateMyNameMessage struct {
	Msg  string `json:"msg"`
	Name string `json:"name"`
}

func newUpdateMyName(name string) UpdateMyNameMessage {
	return UpdateMyNameMessage{Msg: "updateMyName", Name: name}
}

// UpdateOpponentNameMessage 對手的暱稱更新（空字串表示沒有對手）
type UpdateOpponentNameMessage struct {
	Msg  string `json:"msg"`
	Name string `json:"name"`
}

func newUpdateOpponentName(name string) UpdateOpponentNameMessage {
	return UpdateOpponentNameMessage{Msg: "updateOpponentName", Name: name}
}

// PlaceStoneMessage 一手落子的廣播
type PlaceStoneMessage struct {
	Msg    string `json:"msg"`
	Color  int    `json:"color"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

func newPlaceStone(stone PlacedStone) PlaceStoneMessage {
	return PlaceStoneMessage{Msg: "placeStone", Color: int(stone.Color), Row: stone.Row, Column: stone.Column}
}

// GameMessage 對局狀態文字訊息
type GameMessage struct {
	Msg  string `json:"msg"`
	Text string `json:"text"`
}

func newGameMessage(text string) GameMessage {
	return GameMessage{Msg: "gameMessage", Text: text}
}
