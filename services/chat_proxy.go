package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Модель подменяется на сервере всегда, что бы ни прислал клиент.
const ChatModel = "openai/gpt-oss-120b"

const defaultChatUpstream = "https://api.groq.com/openai/v1/chat/completions"

var ErrChatNotConfigured = errors.New("GROQ_API_KEY не настроен")

// UpstreamError — неуспешный ответ upstream API. Тело сохраняется,
// чтобы отдать его клиенту в поле details.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream вернул статус %d", e.Status)
}

var chatHTTPClient = &http.Client{Timeout: 60 * time.Second}

// ForwardChat пересылает тело запроса chat-completions в upstream как есть,
// подменяя только поле model. Ответ возвращается без изменений.
func ForwardChat(body []byte) ([]byte, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, ErrChatNotConfigured
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("некорректный JSON в запросе: %v", err)
	}
	payload["model"] = ChatModel

	out, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	upstreamURL := os.Getenv("GROQ_API_URL")
	if upstreamURL == "" {
		upstreamURL = defaultChatUpstream
	}

	req, err := http.NewRequest(http.MethodPost, upstreamURL, bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := chatHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}
