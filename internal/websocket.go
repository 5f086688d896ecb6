package internal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   如何承接大量持久連線，並在連線異常時走統一的清理路徑？
//
// 設計方案：
//   ✅ 每連線一個讀取 goroutine - 指令依到達順序逐一處理，同一客戶端的操作天然序列化
//   ✅ Ping/Pong 心跳（54s/60s）- 偵測死連線，避免資源洩漏
//   ✅ SetReadLimit - 超過框架上限的訊息由底層直接判定為致命錯誤
//   ✅ 斷線即清理 - 讀取迴圈結束時統一走協調器的 Disconnect 路徑

const (
	// pongWait 多久沒收到任何訊息（含 Pong）就視為死連線
	pongWait = 60 * time.Second

	// pingPeriod 心跳間隔，必須小於 pongWait
	pingPeriod = 54 * time.Second
)

// Gateway WebSocket 閘道：把 HTTP 連線升級成持久會談，
// 為每條連線鑄造身分並交給協調器。
type Gateway struct {
	coordinator  *Coordinator
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	maxFrameSize int
}

// NewGateway 創建閘道
func NewGateway(coordinator *Coordinator, maxFrameSize int, logger *slog.Logger) *Gateway {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Gateway{
		coordinator:  coordinator,
		logger:       logger,
		maxFrameSize: maxFrameSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 生產環境應該檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeWS 處理 WebSocket 連線
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	client := NewClient(uuid.NewString(), r.RemoteAddr, conn, g.maxFrameSize)
	g.coordinator.Connect(client)

	done := make(chan struct{})
	go g.pingLoop(client, done)
	go g.readLoop(client, conn, done)
}

// readLoop 逐則讀取並分發客戶端指令
//
// 迴圈結束（不論正常關閉、讀取錯誤、超長框架或協定違規）一律走
// 協調器的 Disconnect 清理：移出註冊表、用 removePlayer 清出席位。
func (g *Gateway) readLoop(client *Client, conn *websocket.Conn, done chan struct{}) {
	defer func() {
		close(done)
		g.coordinator.Disconnect(client)
		_ = conn.Close()
	}()

	// 超過框架上限的訊息使底層回傳致命的讀取錯誤
	conn.SetReadLimit(int64(g.maxFrameSize))
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		g.logger.Error("設置讀取期限失敗", "error", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Warn("WebSocket 讀取錯誤",
					"client", client.String(),
					"error", err)
			}
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			g.logger.Error("設置讀取期限失敗", "error", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if err := g.coordinator.HandleMessage(client, data); err != nil {
			// 協定違規對該連線是致命的：盡力提示後中斷
			g.logger.Warn("協定違規，中斷連線",
				"client", client.String(),
				"error", err)
			g.coordinator.flash(client, "通訊協定錯誤，連線即將中斷。", FlashError)
			return
		}
	}
}

// pingLoop 定期送出心跳，對端沒回應時由讀取端的期限判死
func (g *Gateway) pingLoop(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
