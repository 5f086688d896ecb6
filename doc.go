// Package omokserver 提供了一個即時多人五子棋（Omok）對戰服務器。
//
// 實現了一個固定房間池、雙人對局的回合制遊戲服務器，包含以下核心功能：
//
// 房間協調引擎
//
// 提供並發安全的房間生命週期管理：
//   - 固定房間池（預設 16 間），槽位編號即房間身分
//   - 加入、離開、房主轉移與整房解散
//   - 有限狀態機：Inactive → Waiting → Playing → Inactive
//   - 斷線與顯式離開共用同一條清理路徑
//
// 對局狀態機
//
// 純狀態、無 I/O 的棋局核心：
//   - 15x15 棋盤，連成五子獲勝
//   - 回合制落子驗證（座標、格子佔用、回合歸屬）
//   - 勝負判定後棋局凍結，任何落子都被拒絕
//
// 變更傳播協定
//
// 房間操作不直接發送通知，而是回傳變更記錄（change record）：
//   - 協調器把變更記錄翻譯成精確的通知集合
//   - 兩席玩家收到房內視圖，所有連線收到大廳列表更新
//   - 空記錄即語義拒絕，不產生任何通知
//
// 併發安全設計
//
// 採用了多層次的併發控制策略：
//   - 每房一把互斥鎖：同房互斥、異房並行
//   - 客戶端註冊表鎖只保護結構性變更，絕不跨越網路 I/O
//   - 每連線一把送信鎖，序列化對同一客戶端的所有寫入
//   - 鎖內操作、鎖外送信：通知一律基於複製出的房間快照
//
// 使用範例
//
// 啟動服務器：
//
//	rooms := internal.NewRoomRegistry(16)
//	clients := internal.NewClientRegistry()
//	coordinator := internal.NewCoordinator(rooms, clients, logger)
//	gateway := internal.NewGateway(coordinator, 256, logger)
//
//	http.HandleFunc("GET /ws", gateway.ServeWS)
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// 線路協定
//
// 每則訊息都是帶 msg 判別欄位的 JSON 物件，框架大小有固定上限
// （預設 256 位元組），超限視為協定錯誤並中斷連線。
//
// 進向指令：createRoom、requestAllRoomDatas、requestJoinGameRoom、
// requestLeaveGameRoom、startGame、placeStone、changeNickname。
//
// 出向通知：flash、sendRoomItem、removeRoomItem、enterGameRoom、
// kickedFromGameRoom、updateRoomState、updateOwnership、updateStoneColor、
// updateCurrentRoomName、updateMyName、updateOpponentName、placeStone、
// gameMessage。
//
// 配置選項
//
// 透過 config.yaml 配置（檔案不存在時採用預設值）：
//   - server.port：服務監聽端口（預設 8080）
//   - game.room_count：房間池大小（預設 16）
//   - game.max_frame_size：單一訊息框架上限（預設 256 位元組）
//   - log.level / log.format：日誌級別與格式
package omokserver
