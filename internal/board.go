package internal

// 系統設計問題：
//   如何表達回合制棋局的核心狀態，讓上層的房間與廣播邏輯完全不用碰棋盤細節？
//
// 設計方案：
//   ✅ 純狀態 + 純函數 - Board 不做 I/O、不加鎖、不認識任何連線
//   ✅ 呼叫方負責互斥 - 持有房間鎖的人才能呼叫落子
//   ✅ turn = StoneNone 代表棋局已凍結 - 勝負確定後任何落子都被拒絕

// StoneColor 棋子顏色
//
// 數值即線路編碼：0=黑、1=白、2=無（updateStoneColor 直接送出這個數字）。
type StoneColor int

const (
	StoneBlack StoneColor = iota
	StoneWhite
	StoneNone
)

// String 回傳顯示名稱，用於對局訊息與日誌
func (c StoneColor) String() string {
	switch c {
	case StoneBlack:
		return "黑棋"
	case StoneWhite:
		return "白棋"
	default:
		return "無"
	}
}

// Opponent 回傳對手顏色
func (c StoneColor) Opponent() StoneColor {
	switch c {
	case StoneBlack:
		return StoneWhite
	case StoneWhite:
		return StoneBlack
	default:
		return StoneNone
	}
}

const (
	// BoardSize 棋盤邊長，固定 15x15
	BoardSize = 15

	// winRunLength 連成幾子獲勝，五子棋固定為 5
	winRunLength = 5
)

// Board 棋盤狀態：15x15 格子加上當前輪到的顏色
//
// 生命週期：
//   - 房間由 Waiting 轉 Playing 時呼叫 Start() 重置
//   - 偵測到勝利後 turn 設為 StoneNone（凍結，不再接受落子）
//   - 房間回到 Inactive 時整個棋盤作廢
//
// 不變式：格子一旦落子就不會再改變。
type Board struct {
	cells [BoardSize][BoardSize]StoneColor
	turn  StoneColor
}

// Start 清空棋盤並讓黑棋先手
func (b *Board) Start() {
	for row := 0; row < BoardSize; row++ {
		for column := 0; column < BoardSize; column++ {
			b.cells[row][column] = StoneNone
		}
	}
	b.turn = StoneBlack
}

// Turn 回傳當前輪到的顏色，StoneNone 表示棋局已結束
func (b *Board) Turn() StoneColor {
	return b.turn
}

// Cell 回傳指定格子的狀態，越界視為空格
func (b *Board) Cell(row, column int) StoneColor {
	if row < 0 || row >= BoardSize || column < 0 || column >= BoardSize {
		return StoneNone
	}
	return b.cells[row][column]
}

// Placement 一次成功落子的結果
//
// Winner 為 StoneNone 表示勝負未定，回合已換到對方。
type Placement struct {
	Color  StoneColor
	Row    int
	Column int
	Winner StoneColor
}

// Place 嘗試落子
//
// 拒絕條件（回傳 ok=false，棋盤不變）：
//   - 座標超出 0..14
//   - 目標格已有棋子
//   - 不是該顏色的回合（含 turn=StoneNone 的已結束棋局）
//
// 成功落子後立即檢查勝負：有勝者則凍結棋局（turn=StoneNone），
// 否則換對方回合。
func (b *Board) Place(color StoneColor, row, column int) (Placement, bool) {
	if row < 0 || row >= BoardSize || column < 0 || column >= BoardSize {
		return Placement{}, false
	}
	if b.cells[row][column] != StoneNone {
		return Placement{}, false
	}
	if b.turn != color {
		return Placement{}, false
	}

	b.cells[row][column] = color

	placement := Placement{
		Color:  color,
		Row:    row,
		Column: column,
		Winner: b.Winner(),
	}

	if placement.Winner != StoneNone {
		b.turn = StoneNone
	} else {
		b.turn = color.Opponent()
	}

	return placement, true
}

// Winner 掃描整個棋盤，找出任一方向連成 5 子的顏色
//
// 掃描順序固定：橫向、縱向、右下斜向、左下斜向，各自由上到下、
// 由左到右逐格檢查，找到第一條連線即回傳。四個方向之間沒有語義上的
// 優先順序，任何一條連線都是有效的勝利。
func (b *Board) Winner() StoneColor {
	// 橫向
	for row := 0; row < BoardSize; row++ {
		for column := 0; column <= BoardSize-winRunLength; column++ {
			if c := b.cells[row][column]; c != StoneNone &&
				c == b.cells[row][column+1] &&
				c == b.cells[row][column+2] &&
				c == b.cells[row][column+3] &&
				c == b.cells[row][column+4] {
				return c
			}
		}
	}

	// 縱向
	for row := 0; row <= BoardSize-winRunLength; row++ {
		for column := 0; column < BoardSize; column++ {
			if c := b.cells[row][column]; c != StoneNone &&
				c == b.cells[row+1][column] &&
				c == b.cells[row+2][column] &&
				c == b.cells[row+3][column] &&
				c == b.cells[row+4][column] {
				return c
			}
		}
	}

	// 右下斜向
	for row := 0; row <= BoardSize-winRunLength; row++ {
		for column := 0; column <= BoardSize-winRunLength; column++ {
			if c := b.cells[row][column]; c != StoneNone &&
				c == b.cells[row+1][column+1] &&
				c == b.cells[row+2][column+2] &&
				c == b.cells[row+3][column+3] &&
				c == b.cells[row+4][column+4] {
				return c
			}
		}
	}

	// 左下斜向
	for row := 0; row <= BoardSize-winRunLength; row++ {
		for column := 0; column <= BoardSize-winRunLength; column++ {
			if c := b.cells[row][column+4]; c != StoneNone &&
				c == b.cells[row+1][column+3] &&
				c == b.cells[row+2][column+2] &&
				c == b.cells[row+3][column+1] &&
				c == b.cells[row+4][column] {
				return c
			}
		}
	}

	return StoneNone
}
