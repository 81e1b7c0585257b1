package webd

import (
	"encoding/json"
	"github.com/olahol/melody"
	"github.com/rotblauer/trackclust/events"
	"github.com/rotblauer/trackclust/types/segment"
	"time"
)

type websocketAction string

var websocketActionGrid websocketAction = "grid"

// gridMessage is what websocket clients receive for each completed grid.
type gridMessage struct {
	Action    websocketAction          `json:"action"`
	Header    segment.GridHeader       `json:"header"`
	Summaries []segment.ClusterSummary `json:"summaries"`
}

func newGridMessage(result *segment.GridResult) ([]byte, error) {
	return json.Marshal(gridMessage{
		Action:    websocketActionGrid,
		Header:    result.Header(),
		Summaries: result.Summaries,
	})
}

// initMelody sets up the websocket handler and the completed-grid broadcast.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	// The hub opens asynchronously; Close on a hub not yet open never stops it.
	for deadline := time.Now().Add(time.Second); s.melodyInstance.IsClosed() && time.Now().Before(deadline); {
		time.Sleep(time.Millisecond)
	}

	// New clients get the recently completed grids, oldest first.
	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Debug("Websocket connected", "remote", session.Request.RemoteAddr)
		for _, result := range s.recent.Values() {
			b, err := newGridMessage(result)
			if err != nil {
				continue
			}
			_ = session.Write(b)
		}
	})

	// Incoming messages are logged and dropped.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "message", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Debug("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "remote", session.Request.RemoteAddr, "error", e)
	})

	completed := make(chan *segment.GridResult, 16)
	s.completedSub = events.GridCompletedFeed.Subscribe(completed)
	go func() {
		for {
			select {
			case result := <-completed:
				s.recent.Add(result.GridID, result)
				b, err := newGridMessage(result)
				if err != nil {
					s.logger.Error("Failed to marshal grid event", "error", err)
					continue
				}
				if err := s.melodyInstance.Broadcast(b); err != nil {
					s.logger.Warn("Failed to broadcast grid event", "error", err)
				}
			case err := <-s.completedSub.Err():
				if err != nil {
					s.logger.Error("Grid feed subscription failed", "error", err)
				}
				return
			}
		}
	}()
}
