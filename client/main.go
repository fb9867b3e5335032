package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/spacerace/animation"
	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/network"
)

// writeMu 串行化写入，心跳协程和命令循环共用一条连接
var writeMu sync.Mutex

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// viewer 把收到的权威快照差分成动画序列逐格播放。
// 动画只读快照，永远不会把本地演出写回权威记录。
type viewer struct {
	prev      *game.Game
	lastMoves int
	queue     *animation.Queue
}

func newViewer(stepDur, pauseDur time.Duration) *viewer {
	return &viewer{
		lastMoves: -1,
		queue: animation.NewQueue(stepDur, pauseDur, func(ev animation.Event) {
			switch ev.Kind {
			case animation.PhaseStep:
				log.Printf("  .. %s moves %d -> %d", ev.PlayerID[:8], ev.From, ev.To)
			case animation.PhaseBoostJump:
				log.Printf("  ** %s rides a spaceport %d -> %d", ev.PlayerID[:8], ev.From, ev.To)
			case animation.PhaseHazardStep:
				log.Printf("  !! %s dragged back %d -> %d", ev.PlayerID[:8], ev.From, ev.To)
			case animation.PhaseSnap:
				log.Printf("  == %s repositioned %d -> %d", ev.PlayerID[:8], ev.From, ev.To)
			}
		}),
	}
}

// observe 消化一张新快照：过滤掉重复/落后的写入，其余差分入队
func (v *viewer) observe(snap *game.Game) {
	defer func() { v.prev = snap }()

	if v.prev == nil || snap.ID != v.prev.ID {
		// 重连或换局，不回放历史，从当前快照重建
		v.lastMoves = snap.TotalMoves
		return
	}
	if snap.TotalMoves <= v.lastMoves && snap.TotalMoves != 0 {
		// 过期写入，丢弃即可，权威记录自会纠正
		return
	}
	v.lastMoves = snap.TotalMoves

	variant, ok := game.Lookup(snap.Variant)
	if !ok {
		return
	}
	v.queue.Enqueue(animation.Diff(variant, v.prev, snap)...)
}

func main() {
	var (
		addr    = flag.String("addr", "localhost:8080", "server address")
		stepMS  = flag.Int("step-ms", 120, "animation step duration")
		pauseMS = flag.Int("pause-ms", 400, "animation effect pause")
	)
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	view := newViewer(time.Duration(*stepMS)*time.Millisecond, time.Duration(*pauseMS)*time.Millisecond)
	defer view.queue.Close()

	// 入座确认回来后才知道 gameID，名字先记下
	var (
		nameMu   sync.Mutex
		lastName string
	)

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]

			switch msgID {
			case network.MsgTypeSnapshot:
				var snap game.Game
				if err := json.Unmarshal(data, &snap); err != nil {
					log.Printf("Bad snapshot: %v", err)
					continue
				}
				log.Printf("<- %s", snap.Message)
				view.observe(&snap)
				if snap.GameWon {
					// 比赛结束，重连指针作废
					clearLocalSession()
				}
			case network.MsgTypeOutcome:
				var outcome game.MoveOutcome
				if err := json.Unmarshal(data, &outcome); err == nil {
					log.Printf("<- outcome: %s (%s)", outcome.Message, outcome.Kind)
				}
			case network.MsgTypeCreateGame, network.MsgTypeJoinGame:
				var seat struct {
					GameID   string `json:"game_id"`
					PlayerID string `json:"player_id"`
				}
				if err := json.Unmarshal(data, &seat); err == nil {
					log.Printf("<- seated in game %s as %s", seat.GameID, seat.PlayerID)
					nameMu.Lock()
					if lastName != "" {
						saveLocalSession(LocalSession{GameID: seat.GameID, PlayerName: lastName})
					}
					nameMu.Unlock()
				}
			case network.MsgTypeError:
				var e struct {
					Error string `json:"error"`
				}
				json.Unmarshal(data, &e)
				log.Printf("<- server error: %s", e.Error)
				if e.Error == game.ErrGameNotFound.Error() {
					// 本地指针指向已消失的比赛，清掉退回 join/create
					clearLocalSession()
				}
			default:
				log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
			}
		}
	}()

	// 心跳保活，服务端用它续期读超时
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := send(c, network.MsgTypeHeartbeat, nil); err != nil {
					return
				}
			}
		}
	}()

	// 有本地重连指针就自动重新入座
	if ls := loadLocalSession(); ls != nil {
		log.Printf("Rejoining game %s as %s", ls.GameID, ls.PlayerName)
		nameMu.Lock()
		lastName = ls.PlayerName
		nameMu.Unlock()
		req, _ := json.Marshal(map[string]string{"game_id": ls.GameID, "name": ls.PlayerName})
		if err := send(c, network.MsgTypeJoinGame, req); err != nil {
			log.Println("Write error:", err)
			return
		}
	}

	log.Println("Commands: create <name> [variant] | join <gameID> <name> | roll | pause | resume | reset | leave")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			writeMu.Lock()
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			writeMu.Unlock()
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var (
				msgID   uint16
				payload []byte
			)
			switch fields[0] {
			case "create":
				if len(fields) < 2 {
					log.Println("usage: create <name> [variant]")
					continue
				}
				variant := "galaxy"
				if len(fields) > 2 {
					variant = fields[2]
				}
				msgID = network.MsgTypeCreateGame
				payload, _ = json.Marshal(map[string]string{"name": fields[1], "variant": variant})
				nameMu.Lock()
				lastName = fields[1]
				nameMu.Unlock()
			case "join":
				if len(fields) < 3 {
					log.Println("usage: join <gameID> <name>")
					continue
				}
				msgID = network.MsgTypeJoinGame
				name := strings.Join(fields[2:], " ")
				payload, _ = json.Marshal(map[string]string{"game_id": fields[1], "name": name})
				nameMu.Lock()
				lastName = name
				nameMu.Unlock()
			case "roll":
				msgID = network.MsgTypeRollDice
				payload, _ = json.Marshal(map[string]string{"type": "roll"})
			case "pause":
				msgID = network.MsgTypePauseGame
			case "resume":
				msgID = network.MsgTypeResumeGame
			case "reset":
				msgID = network.MsgTypeResetGame
			case "leave":
				msgID = network.MsgTypeLeaveGame
				clearLocalSession()
			default:
				log.Printf("unknown command %q", fields[0])
				continue
			}

			if err := send(c, msgID, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
