// client/localstate.go
package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const localSessionFile = ".spacerace_session.json"

// LocalSession 本地持久化的重连指针，不是权威状态
type LocalSession struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return localSessionFile
	}
	return filepath.Join(home, localSessionFile)
}

// loadLocalSession 读取上次的 {gameId, playerName}，没有就返回 nil
func loadLocalSession() *LocalSession {
	raw, err := os.ReadFile(sessionPath())
	if err != nil {
		return nil
	}
	var ls LocalSession
	if err := json.Unmarshal(raw, &ls); err != nil || ls.GameID == "" || ls.PlayerName == "" {
		// 损坏的指针直接清掉，退回 join/create 流程
		clearLocalSession()
		return nil
	}
	return &ls
}

func saveLocalSession(ls LocalSession) {
	raw, err := json.Marshal(ls)
	if err != nil {
		return
	}
	os.WriteFile(sessionPath(), raw, 0o600)
}

// clearLocalSession 比赛结束或主动离开时清除
func clearLocalSession() {
	os.Remove(sessionPath())
}
