package services

import "sync"

// Порог скрытого гейта в подвале блога.
const gateThreshold = 5

// ClickGate считает клики по декоративному элементу. Пятый клик
// открывает модалку входа, счётчик при этом сразу сбрасывается.
// Для посетителя с активной админ-сессией гейт неактивен.
type ClickGate struct {
	mu     sync.Mutex
	clicks map[string]int
}

var BlogGate = NewClickGate()

func NewClickGate() *ClickGate {
	return &ClickGate{clicks: make(map[string]int)}
}

// Click регистрирует клик и сообщает, открылась ли модалка.
func (g *ClickGate) Click(visitorID string, isAdmin bool) (open bool, clicks int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if isAdmin {
		delete(g.clicks, visitorID)
		return false, 0
	}

	n := g.clicks[visitorID] + 1
	if n >= gateThreshold {
		delete(g.clicks, visitorID)
		return true, 0
	}
	g.clicks[visitorID] = n
	return false, n
}

func (g *ClickGate) Reset(visitorID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clicks, visitorID)
}
