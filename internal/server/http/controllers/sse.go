package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/solanafuns/ddmonitor/internal/ledger"
)

// sseSink writes account updates as Server-Sent Events.
type sseSink struct {
	w http.ResponseWriter
}

func (s sseSink) start() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	_ = s.Flush()
}

// Send writes u as one "data: <json>\n\n" event.
func (s sseSink) Send(u ledger.Update) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	_, err = s.w.Write([]byte("\n\n"))
	return err
}

// Flush pushes buffered events to the client.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
