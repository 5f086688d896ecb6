package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultNickname 連線建立時指派的預設暱稱
	DefaultNickname = "玩家"

	// MaxNicknameBytes 暱稱長度上限（位元組）
	MaxNicknameBytes = 32

	// MaxRoomNameBytes 房間名稱長度上限（位元組）
	//
	// 名稱會出現在 sendRoomItem 廣播裡，上限保證任何合法操作產生的
	// 通知都在框架大小上限之內，不會因為收件而被斷線。
	MaxRoomNameBytes = 32

	// DefaultMaxFrameSize 預設的單一訊息框架大小上限（位元組）
	//
	// 進出雙向都適用：收到超過上限的框架視為協定錯誤並中斷連線，
	// 送出前也檢查序列化後的大小。
	DefaultMaxFrameSize = 256
)

// writeWait 單次寫入允許的最長時間
const writeWait = 10 * time.Second

// ErrFrameTooLarge 序列化後的訊息超過框架大小上限
var ErrFrameTooLarge = errors.New("訊息超過框架大小上限")

// Conn 抽象出送信所需的最小連線能力
//
// *websocket.Conn 天然滿足；測試時可注入假連線捕捉送出的訊息。
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client 一條連線中的客戶端會談
//
// 身分在連線存續期間固定且全域唯一（連線時以 UUID 鑄造）。
// 暱稱存放在 ClientRegistry，這裡只管連線與送信。
//
// 併發：sendMu 序列化對同一條連線的所有寫入，確保多個 goroutine
// 同時通知同一個客戶端時訊息不會交錯。此鎖獨立於任何房間鎖，
// 且絕不在持有它時去獲取其他鎖。
type Client struct {
	ID      string
	Address string

	conn         Conn
	maxFrameSize int
	sendMu       sync.Mutex
}

// NewClient 包裝一條已建立的連線
func NewClient(id, address string, conn Conn, maxFrameSize int) *Client {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Client{
		ID:           id,
		Address:      address,
		conn:         conn,
		maxFrameSize: maxFrameSize,
	}
}

// Send 序列化並送出一則通知
//
// 寫入在 sendMu 保護下進行。送出失敗只回傳錯誤，不在這裡收拾連線；
// 讀取端察覺連線壞掉後會走統一的斷線路徑。
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("序列化訊息: %w", err)
	}
	if len(data) > c.maxFrameSize {
		return fmt.Errorf("%w: %d/%d 位元組", ErrFrameTooLarge, len(data), c.maxFrameSize)
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.setWriteDeadline()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Ping 送出 WebSocket ping 控制框架（心跳用）
func (c *Client) Ping() error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.setWriteDeadline()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// setWriteDeadline 在支援期限的連線上設置寫入期限，呼叫方需持有 sendMu
func (c *Client) setWriteDeadline() {
	if dc, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
		_ = dc.SetWriteDeadline(time.Now().Add(writeWait))
	}
}

// Close 關閉底層連線
func (c *Client) Close() error {
	return c.conn.Close()
}

// String 用於日誌輸出
func (c *Client) String() string {
	return fmt.Sprintf("%s(%s)", c.ID, c.Address)
}
