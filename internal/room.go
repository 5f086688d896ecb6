package internal

import (
	"fmt"
	"math/rand"
)

// 系統設計問題：
//   如何在多人同時加入、離開、斷線的情況下，維持房間狀態的一致性，
//   並讓每一次變更都能精準地廣播給受影響的客戶端？
//
// 核心挑戰：
//   1. 狀態管理：房間有明確的狀態轉換（Inactive → Waiting → Playing → Inactive）
//   2. 並發控制：同一房間的操作必須互斥，不同房間互不阻塞
//   3. 變更傳播：房間不能直接發送通知，否則鎖內回呼會引入重入與順序問題
//
// 設計方案：
//   ✅ 有限狀態機（FSM）- 規範狀態轉換，防止非法操作
//   ✅ 變更記錄（RoomChanges）- 操作只回傳資料，由協調器負責翻譯成通知
//   ✅ 鎖由呼叫方持有 - GameRoom 本身不加鎖，由 RoomRegistry 統一管理
//
// 與事件回呼的取捨：
//   早期常見做法是在房間內直接觸發事件回呼，但回呼在持鎖狀態下執行，
//   容易造成重入與通知順序不確定。改為回傳變更記錄後，房間完全不認識
//   任何連線或廣播邏輯，鎖的持有範圍也一目了然。

// RoomState 房間狀態
//
// 狀態轉換規則：
//
//	Inactive → Waiting：第一位玩家入座
//	Waiting → Playing：兩席到齊且房主開始遊戲
//	Playing → Inactive：任一玩家離席即整房解散（沒有 Playing → Waiting 的降級）
//	Waiting → Inactive：最後一位玩家離席
//
// 數值即線路編碼：0=inactive、1=waiting、2=playing。
type RoomState int

const (
	RoomInactive RoomState = iota
	RoomWaiting
	RoomPlaying
)

// String 回傳狀態名稱，用於日誌
func (s RoomState) String() string {
	switch s {
	case RoomInactive:
		return "inactive"
	case RoomWaiting:
		return "waiting"
	case RoomPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// DefaultRoomName 房間回到 Inactive 時還原的預設名稱
const DefaultRoomName = "五子棋"

// PlayerEventKind 玩家進出事件類型
type PlayerEventKind int

const (
	PlayerJoined PlayerEventKind = iota
	PlayerLeft
)

// PlayerEvent 一筆有序的玩家進出事件
type PlayerEvent struct {
	PlayerID string
	Kind     PlayerEventKind
}

// PlacedStone 一次成功落子的記錄
type PlacedStone struct {
	Color  StoneColor
	Row    int
	Column int
}

// RoomChanges 變更記錄：每個房間操作回傳的差異物件
//
// 所有欄位預設為空；操作沒有產生該效果就不填。空的變更記錄本身就是
// 語義拒絕的訊號 - 房間操作從不拋出錯誤，協調器看到空記錄就什麼都不廣播。
type RoomChanges struct {
	JoinedLeft   []PlayerEvent
	NewOwnerID   *string
	NewRoomName  *string
	NewRoomState *RoomState
	PlacedStone  *PlacedStone
	Message      string
}

// Empty 回報這次操作是否沒有任何效果
func (c RoomChanges) Empty() bool {
	return len(c.JoinedLeft) == 0 &&
		c.NewOwnerID == nil &&
		c.NewRoomName == nil &&
		c.NewRoomState == nil &&
		c.PlacedStone == nil &&
		c.Message == ""
}

// merge 把另一筆變更記錄併入，事件依序附加，純量欄位以後者為準
func (c *RoomChanges) merge(other RoomChanges) {
	c.JoinedLeft = append(c.JoinedLeft, other.JoinedLeft...)
	if other.NewOwnerID != nil {
		c.NewOwnerID = other.NewOwnerID
	}
	if other.NewRoomName != nil {
		c.NewRoomName = other.NewRoomName
	}
	if other.NewRoomState != nil {
		c.NewRoomState = other.NewRoomState
	}
	if other.PlacedStone != nil {
		c.PlacedStone = other.PlacedStone
	}
	if other.Message != "" {
		c.Message = other.Message
	}
}

// GameRoom 遊戲房間：固定房間池中的一個槽位
//
// 不變式：
//   - state=Playing ⇒ 黑白兩席皆有人
//   - state=Inactive ⇒ 兩席皆空、無房主、名稱為預設值
//   - 任一席有人時，房主必為其中一席的玩家
//
// 並發：GameRoom 自己不加鎖。所有變更操作都必須在 RoomRegistry
// 對應的房間鎖保護下執行（見 registry.go），這讓鎖的粒度與順序
// 集中在一處管理。
type GameRoom struct {
	roomID  int
	state   RoomState
	name    string
	ownerID string
	blackID string // 空字串表示該席空缺
	whiteID string
	board   Board
}

// NewGameRoom 創建指定槽位的房間，初始為 Inactive
func NewGameRoom(roomID int) *GameRoom {
	return &GameRoom{
		roomID: roomID,
		state:  RoomInactive,
		name:   DefaultRoomName,
	}
}

// RoomID 回傳槽位編號
func (r *GameRoom) RoomID() int { return r.roomID }

// State 回傳當前狀態
func (r *GameRoom) State() RoomState { return r.state }

// Name 回傳顯示名稱
func (r *GameRoom) Name() string { return r.name }

// OwnerID 回傳房主身分，空字串表示無房主
func (r *GameRoom) OwnerID() string { return r.ownerID }

// BlackID 回傳黑棋席位玩家，空字串表示空席
func (r *GameRoom) BlackID() string { return r.blackID }

// WhiteID 回傳白棋席位玩家，空字串表示空席
func (r *GameRoom) WhiteID() string { return r.whiteID }

// Turn 回傳棋局當前輪到的顏色
func (r *GameRoom) Turn() StoneColor { return r.board.Turn() }

// StoneAt 回傳棋盤指定格子的狀態
func (r *GameRoom) StoneAt(row, column int) StoneColor { return r.board.Cell(row, column) }

// IsPlayerJoined 回報玩家是否佔有本房間任一席位
func (r *GameRoom) IsPlayerJoined(playerID string) bool {
	return (r.blackID != "" && r.blackID == playerID) ||
		(r.whiteID != "" && r.whiteID == playerID)
}

// IsJoinable 回報房間是否可加入：至少一席有人且不在對局中
//
// 協調器在取鎖前用快照做預檢，真正的加入判斷仍由 AddPlayer 在鎖內把關。
func (r *GameRoom) IsJoinable() bool {
	return (r.blackID != "" || r.whiteID != "") && r.state != RoomPlaying
}

// AddPlayer 讓玩家入座
//
// 拒絕條件（回傳空記錄）：對局進行中、兩席已滿、該玩家已佔另一席。
//
// 兩席皆空時轉為 Waiting，入座者成為房主，席位由 50/50 抽籤決定。
func (r *GameRoom) AddPlayer(playerID string) RoomChanges {
	var changes RoomChanges

	if r.state == RoomPlaying {
		return changes
	}
	if r.blackID != "" && r.whiteID != "" {
		return changes
	}

	if r.blackID == "" && r.whiteID == "" {
		r.state = RoomWaiting
		newState := RoomWaiting
		changes.NewRoomState = &newState

		if rand.Intn(2) == 0 {
			r.blackID = playerID
		} else {
			r.whiteID = playerID
		}
		r.ownerID = playerID
	} else {
		other := r.blackID
		if other == "" {
			other = r.whiteID
		}
		if other == playerID {
			return changes
		}

		if r.blackID == "" {
			r.blackID = playerID
		} else {
			r.whiteID = playerID
		}
	}

	changes.JoinedLeft = append(changes.JoinedLeft, PlayerEvent{PlayerID: playerID, Kind: PlayerJoined})
	return changes
}

// RemovePlayer 讓玩家離席
//
// 玩家不在任一席位時回傳空記錄。離席後套用席位空缺規則（見 vacate）。
func (r *GameRoom) RemovePlayer(playerID string) RoomChanges {
	switch playerID {
	case "":
		return RoomChanges{}
	case r.blackID:
		return r.vacate(&r.blackID, &r.whiteID)
	case r.whiteID:
		return r.vacate(&r.whiteID, &r.blackID)
	default:
		return RoomChanges{}
	}
}

// vacate 席位空缺規則
//
// 離席者記一筆 Left 事件，然後：
//   - Waiting 且另一席仍有人：房主轉移給留下的玩家
//   - 其他情況（對局中離席、或最後一人離席）：整房解散 -
//     留下的玩家也記 Left、兩席清空、房主清空、名稱還原、轉為 Inactive
//
// 對局中離席不降級回 Waiting，直接解散。
func (r *GameRoom) vacate(seat, other *string) RoomChanges {
	var changes RoomChanges

	occupant := *seat
	if occupant == "" {
		return changes
	}

	changes.JoinedLeft = append(changes.JoinedLeft, PlayerEvent{PlayerID: occupant, Kind: PlayerLeft})
	*seat = ""

	if r.state == RoomWaiting && *other != "" {
		r.ownerID = *other
		newOwner := *other
		changes.NewOwnerID = &newOwner
		return changes
	}

	if *other != "" {
		changes.JoinedLeft = append(changes.JoinedLeft, PlayerEvent{PlayerID: *other, Kind: PlayerLeft})
		*other = ""
	}
	r.ownerID = ""
	r.state = RoomInactive
	r.name = DefaultRoomName
	newState := RoomInactive
	changes.NewRoomState = &newState

	return changes
}

// StartGame 開始對局
//
// 只有 Waiting 且兩席到齊才會生效，否則回傳空記錄。
// 生效時重置棋盤、黑棋先手，並附上開局訊息。
func (r *GameRoom) StartGame() RoomChanges {
	var changes RoomChanges

	if r.state != RoomWaiting || r.blackID == "" || r.whiteID == "" {
		return changes
	}

	r.state = RoomPlaying
	r.board.Start()

	newState := RoomPlaying
	changes.NewRoomState = &newState
	changes.Message = fmt.Sprintf("%s的回合", StoneBlack)

	return changes
}

// PlaceStone 玩家落子
//
// 拒絕條件（回傳空記錄）：不在對局中、玩家未入座、不是該玩家的回合、
// 或棋盤拒絕該座標（越界、格子已佔用、棋局已凍結）。
func (r *GameRoom) PlaceStone(playerID string, row, column int) RoomChanges {
	var changes RoomChanges

	if r.state != RoomPlaying {
		return changes
	}

	var color StoneColor
	switch playerID {
	case "":
		return changes
	case r.blackID:
		color = StoneBlack
	case r.whiteID:
		color = StoneWhite
	default:
		return changes
	}

	placement, ok := r.board.Place(color, row, column)
	if !ok {
		return changes
	}

	changes.PlacedStone = &PlacedStone{Color: placement.Color, Row: placement.Row, Column: placement.Column}
	if placement.Winner != StoneNone {
		changes.Message = fmt.Sprintf("%s獲勝，遊戲結束。", placement.Winner)
	} else {
		changes.Message = fmt.Sprintf("%s的回合", r.board.Turn())
	}

	return changes
}

// SetName 無條件更改顯示名稱
func (r *GameRoom) SetName(newName string) RoomChanges {
	var changes RoomChanges

	r.name = newName
	changes.NewRoomName = &newName

	return changes
}
