package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/logger"
	"github.com/wfunc/spacerace/models"
	"github.com/wfunc/spacerace/room"
	"github.com/wfunc/spacerace/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService 运维侧的查询面：战绩和在场比赛快照
type AdminService struct {
	gameService *services.GameService
	rooms       *room.Manager
}

// NewAdminService creates a new AdminService.
func NewAdminService(gs *services.GameService, rooms *room.Manager) *AdminService {
	return &AdminService{gameService: gs, rooms: rooms}
}

type StatsArgs struct {
	Name string
}

type StatsReply struct {
	Stats *models.PlayerStats
}

// GetPlayerStats 按名字查战绩。net/rpc 签名约定：导出方法、
// 第二个参数是指针、返回 error。
func (a *AdminService) GetPlayerStats(args *StatsArgs, reply *StatsReply) error {
	stats, err := a.gameService.GetPlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

type SnapshotArgs struct {
	GameID string
}

type SnapshotReply struct {
	Snapshot *game.Game
}

// GetGameSnapshot 取一局在场比赛的权威快照
func (a *AdminService) GetGameSnapshot(args *SnapshotArgs, reply *SnapshotReply) error {
	r, exists := a.rooms.GetRoom(args.GameID)
	if !exists {
		return game.ErrGameNotFound
	}
	reply.Snapshot = r.Snapshot()
	return nil
}

type SavedGameArgs struct {
	GameID string
}

type SavedGameReply struct {
	State *models.GameState
}

// GetSavedGame 读取落库的比赛快照，房间已回收后仍可查询
func (a *AdminService) GetSavedGame(args *SavedGameArgs, reply *SavedGameReply) error {
	st, err := a.gameService.LoadGameState(args.GameID)
	if err != nil {
		return err
	}
	reply.State = st
	return nil
}
