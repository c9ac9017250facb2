package devhost

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/pkg/bridge"
)

// Router returns the HTTP handler serving the bridge operation endpoints.
func (h *Host) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/v1/op/{op}", h.handleOp)

	return r
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func (h *Host) handleOp(w http.ResponseWriter, r *http.Request) {
	op := bridge.Op(chi.URLParam(r, "op"))

	resp, err := h.dispatch(op, r)
	if err != nil {
		status := http.StatusInternalServerError
		var oe *opError
		if errors.As(err, &oe) {
			status = oe.status
		}
		logger.Warn("devhost: operation failed",
			logger.KeyOp, string(op),
			logger.Err(err))
		writeJSON(w, status, errorEnvelope{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// dispatch decodes the request body for the named operation and runs it.
func (h *Host) dispatch(op bridge.Op, r *http.Request) (any, error) {
	switch op {
	case bridge.OpOpenDescriptor:
		return decode(r, h.openDescriptor)
	case bridge.OpCloseDescriptor:
		return decode(r, h.closeDescriptor)
	case bridge.OpWriteDescriptor:
		return decode(r, h.writeDescriptor)
	case bridge.OpReadDescriptor:
		return decode(r, h.readDescriptor)
	case bridge.OpSyncDescriptor:
		return decode(r, h.syncDescriptor)
	case bridge.OpResizeDescriptor:
		return decode(r, h.resizeDescriptor)
	case bridge.OpCopyFromLocal:
		return decode(r, h.copyFromLocal)
	case bridge.OpListDirectory:
		return decode(r, h.listDirectory)
	case bridge.OpQueryType:
		return decode(r, h.queryType)
	case bridge.OpQueryWriteRouting:
		return decode(r, h.queryWriteRouting)
	default:
		return nil, errBadRequest("unknown operation %q", op)
	}
}

func decode[Req, Resp any](r *http.Request, fn func(Req) (Resp, error)) (any, error) {
	var req Req
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errBadRequest("malformed request body: %v", err)
	}
	resp, err := fn(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("devhost: encoding response", logger.Err(err))
	}
}
