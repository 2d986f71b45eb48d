// internal/handlers/room_server.go
package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/unoroom/internal/game"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/sirupsen/logrus"
)

// ResultSinkFunc archives the outcome of a finished game.
type ResultSinkFunc func(ctx context.Context, res models.RoomResult) error

// ServerOptions configure a RoomServer.
type ServerOptions struct {
	Logger    logrus.FieldLogger
	AIDelay   time.Duration
	Scheduler game.Scheduler
	Recorder  game.ActionRecorder
	// ResultSink is optional; it runs on its own goroutine after each game.
	ResultSink ResultSinkFunc

	AllowedOrigins []string
	MaxMessageSize int64
	RateEvery      time.Duration
	RateBurst      int
}

// RoomServer is a high-level struct that ties the room registry to live connections.
type RoomServer struct {
	Store *game.RoomStore
	Hub   *Hub

	log            logrus.FieldLogger
	resultSink     ResultSinkFunc
	originPatterns []string
	maxMessageSize int64
	rateEvery      time.Duration
	rateBurst      int

	pending sync.WaitGroup
}

// NewRoomServer builds the hub and the room store, wiring room broadcasts into the hub.
func NewRoomServer(opts ServerOptions) *RoomServer {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 32 * 1024
	}
	if opts.RateEvery <= 0 {
		opts.RateEvery = 100 * time.Millisecond
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}

	s := &RoomServer{
		Hub:            NewHub(logger),
		log:            logger,
		resultSink:     opts.ResultSink,
		originPatterns: originHosts(opts.AllowedOrigins),
		maxMessageSize: opts.MaxMessageSize,
		rateEvery:      opts.RateEvery,
		rateBurst:      opts.RateBurst,
	}
	s.Store = game.NewRoomStore(game.RoomOptions{
		AIDelay:   opts.AIDelay,
		Scheduler: opts.Scheduler,
		Broadcast: s.Hub.BroadcastState,
		OnGameEnd: s.onGameEnd,
		Recorder:  opts.Recorder,
		Logger:    logger,
	})
	return s
}

// onGameEnd runs under the finishing room's lock, so archiving is handed to a goroutine.
func (s *RoomServer) onGameEnd(res models.RoomResult) {
	s.log.WithFields(logrus.Fields{
		"room":    res.RoomID,
		"winner":  res.WinnerID,
		"players": len(res.Players),
	}).Info("game finished")
	if s.resultSink == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.resultSink(ctx, res); err != nil {
			s.log.WithError(err).WithField("room", res.RoomID).Error("failed to archive game result")
		}
	}()
}

// Wait blocks until every in-flight result has been archived.
func (s *RoomServer) Wait() {
	s.pending.Wait()
}

// joinFailureReason maps a join error to the reason shown to the requester.
func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, game.ErrGameAlreadyStarted):
		return "Game already started"
	case errors.Is(err, game.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, game.ErrAlreadyInRoom):
		return "Already in this room"
	}
	return "Could not join room"
}

// originHosts turns configured CORS origins into coder/websocket origin patterns (hosts only).
func originHosts(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		o = strings.TrimSuffix(o, "/")
		if o != "" {
			hosts = append(hosts, o)
		}
	}
	return hosts
}
