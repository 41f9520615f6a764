package realtime

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/feral-file/ff-sovereignty/internal/adapter"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-sovereignty/internal/api/shared/errors"
	"github.com/feral-file/ff-sovereignty/internal/api/shared/executor"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/logger"
	"github.com/feral-file/ff-sovereignty/internal/reconcile"
)

const (
	MAX_FILTER_IDS = 50

	defaultWriteTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	maxClientMessage    = 4 << 10
)

// FrameType distinguishes authoritative reads from deltas on the stream
type FrameType string

const (
	FrameTypeSnapshot FrameType = "snapshot"
	FrameTypeDelta    FrameType = "delta"
)

// Frame is a single message written to a stream client
type Frame struct {
	Type      FrameType              `json:"type"`
	Delta     *reconcile.Envelope    `json:"delta,omitempty"`
	Territory *dto.TerritoryResponse `json:"territory,omitempty"`
	Auction   *dto.AuctionResponse   `json:"auction,omitempty"`
}

// Config holds the stream configuration
type Config struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	// AllowedOrigins restricts browser origins; empty allows all
	AllowedOrigins []string
}

// Handler serves the realtime delta stream
type Handler struct {
	hub      *reconcile.Hub
	exec     executor.Executor
	json     adapter.JSON
	cfg      Config
	upgrader websocket.Upgrader
}

// NewHandler creates a stream handler over the hub
func NewHandler(hub *reconcile.Hub, exec executor.Executor, json adapter.JSON, cfg Config) *Handler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}

	origins := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = struct{}{}
	}

	return &Handler{
		hub:  hub,
		exec: exec,
		json: json,
		cfg:  cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// SetupRoutes registers the stream endpoint
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/api/v1/stream", handler.Stream)
}

// Stream upgrades the connection and writes snapshots of the requested
// entities followed by every delta that matches them.
// GET /api/v1/stream?territory_id=<id>,<id>&auction_id=<id>
func (h *Handler) Stream(c *gin.Context) {
	territoryIDs := queryList(c, "territory_id")
	auctionIDs := queryList(c, "auction_id")
	if len(territoryIDs)+len(auctionIDs) > MAX_FILTER_IDS {
		c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError("too many stream filters"))
		return
	}

	// Subscribe before reading so that no committed change falls between the read and the stream
	sub := h.hub.Subscribe(reconcile.NewFilter(territoryIDs, auctionIDs))
	defer sub.Close()

	ctx := c.Request.Context()
	snapshots, err := h.snapshots(ctx, territoryIDs, auctionIDs)
	if err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to read stream snapshots"))
		c.JSON(http.StatusServiceUnavailable, apierrors.NewServiceError("Failed to read stream snapshots"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response
		logger.WarnCtx(ctx, "Failed to upgrade stream connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	logger.InfoCtx(ctx, "Stream client connected",
		zap.Strings("territoryIDs", territoryIDs),
		zap.Strings("auctionIDs", auctionIDs),
	)

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go h.readLoop(streamCtx, cancel, conn)

	for _, f := range snapshots {
		if err := h.writeFrame(conn, f); err != nil {
			logger.DebugCtx(ctx, "Stream write failed", zap.Error(err))
			return
		}
	}

	h.writeLoop(streamCtx, conn, sub)
}

func (h *Handler) snapshots(ctx context.Context, territoryIDs, auctionIDs []string) ([]Frame, error) {
	frames := make([]Frame, 0, len(territoryIDs)+len(auctionIDs))
	for _, id := range territoryIDs {
		t, err := h.exec.GetTerritory(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		frames = append(frames, Frame{Type: FrameTypeSnapshot, Territory: t})
	}
	for _, id := range auctionIDs {
		a, err := h.exec.GetAuction(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		frames = append(frames, Frame{Type: FrameTypeSnapshot, Auction: a})
	}
	return frames, nil
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *reconcile.Subscription) {
	ping := time.NewTicker(h.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.writeClose(conn, websocket.CloseNormalClosure, "")
			return
		case env, ok := <-sub.C():
			if !ok {
				if sub.Dropped() {
					// Fell behind; the client must re-read and reconnect
					h.writeClose(conn, websocket.CloseTryAgainLater, "resync")
				} else {
					h.writeClose(conn, websocket.CloseGoingAway, "")
				}
				return
			}
			if err := h.writeFrame(conn, Frame{Type: FrameTypeDelta, Delta: &env}); err != nil {
				logger.DebugCtx(ctx, "Stream write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				logger.DebugCtx(ctx, "Stream ping failed", zap.Error(err))
				return
			}
		}
	}
}

// readLoop drains client messages so that control frames are processed and a
// closed connection is noticed
func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()

	readTimeout := 2 * h.cfg.PingInterval
	conn.SetReadLimit(maxClientMessage)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.DebugCtx(ctx, "Stream client read failed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, f Frame) error {
	b, err := h.json.Marshal(f)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (h *Handler) writeClose(conn *websocket.Conn, code int, text string) {
	deadline := time.Now().Add(h.cfg.WriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

// queryList accepts both repeated and comma separated query values
func queryList(c *gin.Context, key string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, v := range c.QueryArray(key) {
		for _, id := range strings.Split(v, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
