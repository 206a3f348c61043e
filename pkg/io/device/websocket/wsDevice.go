package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/io/device"
)

const writeWait = 10 * time.Second

// TurnFrame is the JSON frame pushed to watchers on every publication.
type TurnFrame struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"item_id"`
	InvocationID uuid.UUID `json:"invocation_id"`
	Text         string    `json:"text"`
	Confidence   float64   `json:"confidence"`
	Model        string    `json:"model"`
	Final        bool      `json:"final"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewTurnFrame(turn types.PublishedTurn) TurnFrame {
	return TurnFrame{
		ID:           turn.ID,
		ItemID:       turn.ItemID,
		InvocationID: turn.InvocationID,
		Text:         turn.Text,
		Confidence:   turn.Confidence,
		Model:        turn.Model.Name,
		Final:        turn.Final,
		CreatedAt:    turn.CreatedAt,
	}
}

type wsEndpoint struct {
	id         uuid.UUID
	mu         sync.Mutex // gorilla allows one concurrent writer
	client     *websocket.Conn
	lastActive time.Time
}

// Close implements device.Endpoint.
func (w *wsEndpoint) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.client.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return w.client.Close()
}

// ID implements device.Endpoint.
func (w *wsEndpoint) ID() device.EndpointID {
	return device.EndpointID(w.id)
}

// Touch implements device.Endpoint. Only client traffic counts as activity.
func (w *wsEndpoint) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = time.Now()
}

// IsAlive implements device.Endpoint.
func (w *wsEndpoint) IsAlive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.client.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)) == nil
}

// LastActive implements device.Endpoint.
func (w *wsEndpoint) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

// SendTurn implements device.Endpoint.
func (w *wsEndpoint) SendTurn(turn types.PublishedTurn) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.client.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.client.WriteJSON(NewTurnFrame(turn))
}

// Transport implements device.Endpoint.
func (w *wsEndpoint) Transport() device.Transport {
	return device.TransportWS
}

func New(client *websocket.Conn) device.Endpoint {
	return &wsEndpoint{
		id:         uuid.New(),
		client:     client,
		lastActive: time.Now(),
	}
}
