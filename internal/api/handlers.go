package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type handler struct {
	bridge *bridge.Bridge
}

func caller(r *http.Request) string {
	return r.Header.Get(CallerHeader)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &bridge.Error{Code: bridge.ErrCodeInvalidArgument, Message: fmt.Sprintf("decode body: %v", err)}
	}
	return nil
}

func pathID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &bridge.Error{Code: bridge.ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

func (h *handler) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Chain:   h.bridge.Chain(),
		Version: ir.NodeVersion,
		Schema:  ir.SchemaVersion,
	})
}

func (h *handler) listRole(w http.ResponseWriter, r *http.Request) {
	var members []string
	var err error
	switch ir.Role(mux.Vars(r)["role"]) {
	case ir.RoleCustodian:
		members, err = h.bridge.Custodians(r.Context())
	case ir.RoleLocker:
		members, err = h.bridge.Lockers(r.Context())
	case ir.RoleValidator:
		members, err = h.bridge.Validators(r.Context())
	default:
		err = &bridge.Error{Code: bridge.ErrCodeNotFound, Message: fmt.Sprintf("unknown role %q", mux.Vars(r)["role"])}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	var ok bool
	var err error
	switch ir.Role(mux.Vars(r)["role"]) {
	case ir.RoleLocker:
		ok, err = h.bridge.RegisterLocker(r.Context(), caller(r), req.Identity)
	case ir.RoleValidator:
		ok, err = h.bridge.RegisterValidator(r.Context(), caller(r), req.Identity)
	default:
		err = &bridge.Error{Code: bridge.ErrCodeInvalidArgument, Message: fmt.Sprintf("role %q cannot be registered", mux.Vars(r)["role"])}
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: ok})
}

func (h *handler) unregisterValidator(w http.ResponseWriter, r *http.Request) {
	ok, err := h.bridge.UnregisterValidator(r.Context(), caller(r), mux.Vars(r)["identity"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: ok})
}

func (h *handler) receive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var msg ir.Message
	if err := decode(w, r, &msg); err != nil {
		writeError(w, err)
		return
	}
	receipt, err := h.bridge.ReceiveMessage(r.Context(), caller(r), id, msg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *handler) pending(w http.ResponseWriter, r *http.Request) {
	slots, err := h.bridge.PendingMessages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *handler) executable(w http.ResponseWriter, r *http.Request) {
	entries, err := h.bridge.ExecutableMessages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) execute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.bridge.ExecuteMessage(r.Context(), mux.Vars(r)["chain"], id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) dispatchLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	records, err := h.bridge.DispatchLog(r.Context(), mux.Vars(r)["chain"], id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) send(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	entry, err := h.bridge.SendMessage(r.Context(), caller(r), req.ToChain, req.Content, req.Session)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *handler) sent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.bridge.SentMessages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) sentTo(w http.ResponseWriter, r *http.Request) {
	entries, err := h.bridge.SentMessagesTo(r.Context(), mux.Vars(r)["chain"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *handler) sentCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.bridge.SentMessageCount(r.Context(), mux.Vars(r)["chain"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: count})
}

func (h *handler) sentByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	msg, err := h.bridge.SentMessageByID(r.Context(), mux.Vars(r)["chain"], id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *handler) latestID(w http.ResponseWriter, r *http.Request) {
	id, err := h.bridge.LatestMessageID(r.Context(), mux.Vars(r)["chain"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *handler) finalReceivedID(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := h.bridge.FinalReceivedMessageID(r.Context(), vars["chain"], vars["validator"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *handler) portingTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := h.bridge.MsgPortingTask(r.Context(), vars["chain"], vars["validator"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *handler) clearReceived(w http.ResponseWriter, r *http.Request) {
	var req ChainsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ok, err := h.bridge.ClearReceivedMessage(r.Context(), caller(r), req.Chains)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: ok})
}

func (h *handler) clearSent(w http.ResponseWriter, r *http.Request) {
	var req ChainsRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	ok, err := h.bridge.ClearSentMessage(r.Context(), caller(r), req.Chains)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: ok})
}
