package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/spacerace/broadcast"
	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/logger"
	"github.com/wfunc/spacerace/monitor"
	"github.com/wfunc/spacerace/network"
	"github.com/wfunc/spacerace/room"
	spacerace_rpc "github.com/wfunc/spacerace/rpc"
	"github.com/wfunc/spacerace/services"
	"github.com/wfunc/spacerace/session"
	"github.com/wfunc/spacerace/timer"
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	gameService    *services.GameService
	broadcaster    broadcast.Broadcaster
	rpcServer      *spacerace_rpc.Server
	monitor        *monitor.Monitor
	shutdownChan   chan struct{}
}

func NewGameServer(addr, rpcAddr string, gameService *services.GameService, pacing room.Pacing, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           addr,
		sessionManager: session.NewManager(),
		gameService:    gameService,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器和房间管理器
	s.broadcaster = broadcast.NewGameBroadcaster(s.sessionManager)
	var recorder room.Recorder
	if gameService != nil {
		recorder = gameService
	}
	var metrics room.Metrics
	if mon != nil {
		metrics = mon
	}
	s.roomManager = room.NewManager(s.broadcaster, recorder, metrics, timer.NewTimerManager(), pacing)

	// 初始化RPC服务器
	rpcServer, err := spacerace_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	adminService := spacerace_rpc.NewAdminService(gameService, s.roomManager)
	rpc.Register(adminService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(30 * time.Second)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	if s.monitor != nil {
		s.monitor.IncConnectedPlayers()
	}

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.ID)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.ID)
		gameID := sess.GameID
		s.sessionManager.Remove(sess.ID)
		s.dropRoomIfDeserted(gameID)
		if s.monitor != nil {
			s.monitor.DecConnectedPlayers()
		}
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeCreateGame:
		s.handleCreateGame(sess, packet)
	case network.MsgTypeJoinGame:
		s.handleJoinGame(sess, packet)
	case network.MsgTypeLeaveGame:
		s.handleLeaveGame(sess)
	case network.MsgTypeRollDice:
		s.handleRollDice(sess, packet)
	case network.MsgTypePauseGame:
		s.withRoom(sess, func(r *room.Room) { r.Pause(sess.PlayerID) })
	case network.MsgTypeResumeGame:
		s.withRoom(sess, func(r *room.Room) { r.Resume(sess.PlayerID) })
	case network.MsgTypeResetGame:
		s.withRoom(sess, func(r *room.Room) { r.Reset() })
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

type createGameReq struct {
	Variant string `json:"variant"`
	Name    string `json:"name"`
}

type joinGameReq struct {
	GameID string `json:"game_id"`
	Name   string `json:"name"`
}

type seatResp struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

func (s *GameServer) handleCreateGame(sess *session.Session, packet *network.Packet) {
	var req createGameReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}
	if req.Variant == "" {
		req.Variant = "galaxy"
	}

	r, creator, err := s.roomManager.CreateRoom(req.Variant, req.Name)
	if err != nil {
		s.sendError(sess, err)
		return
	}
	sess.BindSeat(r.ID, creator.ID, creator.Name)
	if s.monitor != nil {
		s.monitor.SetActiveGames(s.roomManager.Count())
	}

	logger.Log.Infof("Session %s created game %s (%s)", sess.ID, r.ID, req.Variant)

	data, _ := json.Marshal(seatResp{GameID: r.ID, PlayerID: creator.ID})
	sess.Send(network.MsgTypeCreateGame, data)
	s.sendSnapshot(sess, r)
}

func (s *GameServer) handleJoinGame(sess *session.Session, packet *network.Packet) {
	var req joinGameReq
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, err)
		return
	}

	r, exists := s.roomManager.GetRoom(req.GameID)
	if !exists {
		s.sendError(sess, game.ErrGameNotFound)
		return
	}

	player, err := r.Join(req.Name)
	if err != nil {
		s.sendError(sess, err)
		return
	}
	sess.BindSeat(r.ID, player.ID, player.Name)

	logger.Log.Infof("Session %s joined game %s as %s", sess.ID, r.ID, player.Name)

	data, _ := json.Marshal(seatResp{GameID: r.ID, PlayerID: player.ID})
	sess.Send(network.MsgTypeJoinGame, data)
	s.sendSnapshot(sess, r)
}

func (s *GameServer) handleLeaveGame(sess *session.Session) {
	gameID := sess.GameID
	sess.ClearSeat()
	s.dropRoomIfDeserted(gameID)
}

// handleRollDice 掷骰意图交给房间的回合状态机，守卫拒绝就是静默无效。
// 结算相关指标由房间在真正落子时上报。
func (s *GameServer) handleRollDice(sess *session.Session, packet *network.Packet) {
	s.withRoom(sess, func(r *room.Room) {
		if err := r.HandleAction(sess, packet.Data); err != nil {
			logger.Log.Errorf("Error handling roll in game %s: %v", r.ID, err)
		}
	})
}

func (s *GameServer) withRoom(sess *session.Session, fn func(*room.Room)) {
	if sess.GameID == "" {
		logger.Log.Warnf("Session %s sent game message but is not in a game", sess.ID)
		return
	}
	r, exists := s.roomManager.GetRoom(sess.GameID)
	if !exists {
		logger.Log.Errorf("Game %s not found for session %s", sess.GameID, sess.ID)
		s.sendError(sess, game.ErrGameNotFound)
		return
	}
	fn(r)
}

// dropRoomIfDeserted 最后一条订阅连接离开后回收房间
func (s *GameServer) dropRoomIfDeserted(gameID string) {
	if gameID == "" {
		return
	}
	if len(s.sessionManager.GetByGameID(gameID)) == 0 {
		s.roomManager.RemoveRoom(gameID)
		if s.monitor != nil {
			s.monitor.SetActiveGames(s.roomManager.Count())
		}
	}
}

func (s *GameServer) sendSnapshot(sess *session.Session, r *room.Room) {
	data, err := json.Marshal(r.Snapshot())
	if err != nil {
		return
	}
	sess.Send(network.MsgTypeSnapshot, data)
}

func (s *GameServer) sendError(sess *session.Session, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	sess.Send(network.MsgTypeError, data)
}
