package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub — явный объект-наблюдатель для событий платформы: подписка и
// отписка всегда идут через Register/Unregister, без скрытых синглтонов
// на стороне подписчиков. Каналы: по классу (панель учителя) и глобальный
// (смена состояния сессии).
type Hub struct {
	Clients       map[string]map[*websocket.Conn]*Client // по classID
	GlobalClients map[*websocket.Conn]*Client
	Mutex         sync.RWMutex
}

var H = Hub{
	Clients:       make(map[string]map[*websocket.Conn]*Client),
	GlobalClients: make(map[*websocket.Conn]*Client),
}

// Событие нового чек-ина для подписчиков класса.
type CheckinCreatedUpdate struct {
	Type      string `json:"type"`
	ClassID   string `json:"class_id"`
	CheckinID string `json:"checkin_id"`
	Mood      int    `json:"mood"`
}

// Событие смены состояния сессии (например, повышение роли).
type AuthStateUpdate struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Register подписывает соединение на события класса.
func (h *Hub) Register(classID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if _, ok := h.Clients[classID]; !ok {
		h.Clients[classID] = make(map[*websocket.Conn]*Client)
	}

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Clients[classID][conn] = client

	go h.readPump(classID, conn)
	go h.writePump(classID, conn)
}

// RegisterGlobal подписывает на общий канал.
func (h *Hub) RegisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.GlobalClients[conn] = client

	go h.readGlobalPump(conn)
	go h.writeGlobalPump(conn)
}

func (h *Hub) Broadcast(classID string, data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	if clients, ok := h.Clients[classID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

func (h *Hub) BroadcastGlobal(data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.GlobalClients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// BroadcastCheckinCreated шлёт подписчикам класса сигнал о новой записи.
func BroadcastCheckinCreated(classID, checkinID string, mood int) {
	update := CheckinCreatedUpdate{
		Type:      "checkin_created",
		ClassID:   classID,
		CheckinID: checkinID,
		Mood:      mood,
	}
	data, err := json.Marshal(update)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.Broadcast(classID, data)
}

// BroadcastAuthStateChanged уведомляет все открытые экраны о смене роли,
// чтобы каждый сам заново перепроверил свои права.
func BroadcastAuthStateChanged(userID, role string) {
	update := AuthStateUpdate{
		Type:   "auth_state_changed",
		UserID: userID,
		Role:   role,
	}
	data, err := json.Marshal(update)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.BroadcastGlobal(data)
}

func (h *Hub) Unregister(classID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if clients, ok := h.Clients[classID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.Clients, classID)
		}
	}
}

func (h *Hub) UnregisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.GlobalClients[conn]; ok {
		close(client.Send)
		delete(h.GlobalClients, conn)
	}
}

// GetStats — счётчики подключений для /health.
func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	classConns := 0
	for _, clients := range h.Clients {
		classConns += len(clients)
	}
	return map[string]int{
		"class_connections":  classConns,
		"global_connections": len(h.GlobalClients),
	}
}

func (h *Hub) readPump(classID string, conn *websocket.Conn) {
	defer h.Unregister(classID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(classID string, conn *websocket.Conn) {
	h.Mutex.RLock()
	client := h.Clients[classID][conn]
	h.Mutex.RUnlock()
	if client == nil {
		return
	}
	defer func() {
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		conn.Close()
	}()
	for msg := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func (h *Hub) readGlobalPump(conn *websocket.Conn) {
	defer h.UnregisterGlobal(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writeGlobalPump(conn *websocket.Conn) {
	h.Mutex.RLock()
	client := h.GlobalClients[conn]
	h.Mutex.RUnlock()
	if client == nil {
		return
	}
	defer func() {
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		conn.Close()
	}()
	for msg := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
