// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"
)

const eventWriteTimeout = 10 * time.Second

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// serveEvents streams broadcast events to a websocket client as json
// messages. Events can be filtered for a single account with the "account"
// query parameter.
func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("could not upgrade to websocket", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	receiver, err := s.broadcaster.Subscribe()
	if err != nil {
		slog.Error("could not subscribe to broadcast events", "err", err)
		msg := ws.FormatCloseMessage(ws.CloseInternalServerErr, "subscribe failed")
		conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(time.Second))
		return
	}
	defer receiver.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Client messages are discarded; a read error means the client is gone.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	stopf := context.AfterFunc(ctx, receiver.Close)
	defer stopf()

	slog.Info("websocket subscriber connected", "remote", r.RemoteAddr, "account", account)
	defer slog.Info("websocket subscriber disconnected", "remote", r.RemoteAddr, "account", account)

	for ctx.Err() == nil {
		event, err := receiver.Receive()
		if err != nil {
			return
		}
		if len(account) != 0 && event.AccountID != account {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			slog.Warn("could not write event to websocket subscriber", "remote", r.RemoteAddr, "err", err)
			return
		}
	}
}
