package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/HMasataka/logging"
	ws "github.com/gorilla/websocket"
	"github.com/sourcegraph/jsonrpc2"
	websocketjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"

	"github.com/HMasataka/avgap/internal/analyzer"
	"github.com/HMasataka/avgap/internal/ingest"
	"github.com/HMasataka/avgap/payload/analyze"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", "error", err)
		return
	}

	// Both pastes travel in a single request
	conn.SetReadLimit(2*s.options.MaxPasteBytes + 64*1024)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream := websocketjsonrpc2.NewObjectStream(conn)
	rpcConn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(&wsHandler{service: s.service}))

	<-rpcConn.DisconnectNotify()
}

type wsHandler struct {
	service *analyzer.Service
}

func (h *wsHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) {
	switch request.Method {
	case "analyze":
		h.analyze(ctx, conn, request)
	case "health":
		if err := conn.Reply(ctx, request.ID, analyze.HealthResponse{Status: "ok"}); err != nil {
			slog.Error("failed to send health reply", "error", err)
		}
	default:
		slog.Warn("unknown method", slog.String("method", request.Method))
	}
}

func (h *wsHandler) analyze(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) {
	var args analyze.Request
	if request.Params == nil {
		replyError(ctx, conn, request.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "Invalid params"})
		return
	}

	if err := json.Unmarshal(*request.Params, &args); err != nil {
		replyError(ctx, conn, request.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "Invalid params"})
		return
	}

	if args.RefuelData == "" || args.ScheduleData == "" {
		replyError(ctx, conn, request.ID, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: msgEmptyBoxes})
		return
	}

	progress := func(p analyze.Progress) {
		if err := conn.Notify(ctx, "progress", p); err != nil {
			slog.Error("failed to send progress", "error", err)
		}
	}

	res, err := h.service.Analyze(ctx, &args, progress)
	if err != nil {
		code := jsonrpc2.CodeInternalError
		if errors.Is(err, ingest.ErrMissingColumns) {
			code = jsonrpc2.CodeInvalidParams
		}

		replyError(ctx, conn, request.ID, &jsonrpc2.Error{Code: code, Message: err.Error()})
		return
	}

	if err := conn.Reply(ctx, request.ID, res); err != nil {
		slog.Error("failed to send analyze response", "error", err)
		return
	}

	if logging.HasLoggingContext(ctx) {
		slog.InfoContext(ctx, "analysis served", slog.String("run_id", res.RunID), slog.Int("predictions", len(res.Predictions)))
	}
}

func replyError(ctx context.Context, conn *jsonrpc2.Conn, id jsonrpc2.ID, jsonErr *jsonrpc2.Error) {
	if replyErr := conn.ReplyWithError(ctx, id, jsonErr); replyErr != nil {
		slog.Error("failed to send error reply", "error", replyErr)
	}
}
