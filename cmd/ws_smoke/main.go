package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"mine_economy/internal/service"

	"github.com/gorilla/websocket"
)

// Plays one rock-paper-scissors round against a running server.
func main() {
	userA := flag.Int64("a", 3001, "first player id")
	userB := flag.Int64("b", 3002, "second player id")
	stake := flag.Int64("stake", 0, "gold stake")
	flag.Parse()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port

	if err := service.InitJWT(jwtSecret, time.Hour); err != nil {
		log.Fatal(err)
	}
	tokenA, err := service.GenerateJWT(*userA)
	if err != nil {
		log.Fatalf("gen token A: %v", err)
	}
	tokenB, err := service.GenerateJWT(*userB)
	if err != nil {
		log.Fatalf("gen token B: %v", err)
	}

	body, _ := json.Marshal(map[string]any{"kind": "rps", "opponent": *userB, "stake": *stake})
	req, _ := http.NewRequest(http.MethodPost, "http://"+base+"/api/v1/games", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tokenA)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("start game: %v", err)
	}
	var session struct {
		SessionID string `json:"session_id"`
	}
	err = json.NewDecoder(res.Body).Decode(&session)
	res.Body.Close()
	if err != nil || res.StatusCode != http.StatusCreated {
		log.Fatalf("start game: status %d: %v", res.StatusCode, err)
	}
	log.Printf("session %s started", session.SessionID)

	dial := func(token string) *websocket.Conn {
		url := fmt.Sprintf("ws://%s/ws/games/%s?token=%s", base, session.SessionID, token)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			log.Fatalf("dial: %v", err)
		}
		return conn
	}
	connA := dial(tokenA)
	defer connA.Close()
	connB := dial(tokenB)
	defer connB.Close()

	// send moves
	if err := connA.WriteJSON(map[string]string{"type": "action", "action": "rock"}); err != nil {
		log.Fatalf("write A: %v", err)
	}
	if err := connB.WriteJSON(map[string]string{"type": "action", "action": "scissors"}); err != nil {
		log.Fatalf("write B: %v", err)
	}

	// read until the session resolves
	readResult := func(conn *websocket.Conn, name string) {
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			_ = conn.SetReadDeadline(deadline)
			var msg struct {
				Type    string `json:"type"`
				Session struct {
					Status  string          `json:"status"`
					Outcome json.RawMessage `json:"outcome"`
				} `json:"session"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				log.Printf("%s read error: %v", name, err)
				return
			}
			if msg.Type == "state" && msg.Session.Status == "resolved" {
				log.Printf("%s got outcome: %s", name, msg.Session.Outcome)
				return
			}
		}
		log.Printf("%s: no result before deadline", name)
	}

	readResult(connA, "A")
	readResult(connB, "B")

	log.Println("smoke test finished")
}
