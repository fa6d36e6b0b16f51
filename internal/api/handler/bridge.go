package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cohortlabs/oracle/internal/api/middleware"
	"github.com/cohortlabs/oracle/internal/api/response"
	"github.com/cohortlabs/oracle/internal/bridge"
	"github.com/cohortlabs/oracle/internal/command"
	"github.com/cohortlabs/oracle/internal/intent"
	"github.com/cohortlabs/oracle/internal/member"
)

// SignatureVerifier checks that an interaction came from the chat platform.
type SignatureVerifier interface {
	Verify(signature, timestamp string, body []byte) error
}

// MemberResolver maps a chat account to a community member.
type MemberResolver interface {
	GetByDiscordID(ctx context.Context, discordID string) (*member.Member, error)
}

// CommandRunner executes parsed commands.
type CommandRunner interface {
	Execute(ctx context.Context, d *intent.Descriptor, scope command.Scope) (*command.Result, error)
}

// BridgeHandler handles slash-command webhooks from the chat platform.
type BridgeHandler struct {
	verifier SignatureVerifier
	members  MemberResolver
	commands CommandRunner
}

// NewBridgeHandler creates a new BridgeHandler.
func NewBridgeHandler(verifier SignatureVerifier, members MemberResolver, commands CommandRunner) *BridgeHandler {
	return &BridgeHandler{
		verifier: verifier,
		members:  members,
		commands: commands,
	}
}

// Interactions handles POST /bridge/interactions.
func (h *BridgeHandler) Interactions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_BODY", "Request body could not be read", requestID)
		return
	}

	sig := r.Header.Get("X-Signature-Ed25519")
	ts := r.Header.Get("X-Signature-Timestamp")
	if err := h.verifier.Verify(sig, ts, body); err != nil {
		slog.Warn("bridge signature rejected", "error", err, "requestId", requestID)
		response.Err(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Request signature is invalid", requestID)
		return
	}

	var in bridge.Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	switch in.Type {
	case bridge.InteractionPing:
		writeReply(w, bridge.Pong())
		return
	case bridge.InteractionCommand:
		if in.Data == nil {
			response.Err(w, http.StatusBadRequest, "INVALID_INTERACTION", "Command interaction has no data", requestID)
			return
		}
	default:
		response.Err(w, http.StatusBadRequest, "INVALID_INTERACTION", "Unsupported interaction type", requestID)
		return
	}

	writeReply(w, bridge.Message(h.runCommand(r.Context(), &in, requestID)))
}

func (h *BridgeHandler) runCommand(ctx context.Context, in *bridge.Interaction, requestID string) string {
	logger := slog.With("requestId", requestID, "command", in.Data.Name)

	d, err := bridge.ToDescriptor(in.Data.Name, in.Data.Options)
	if err != nil {
		return "❌ Unknown command."
	}

	invoker := in.InvokerID()
	if invoker == "" {
		return "❌ Could not tell who sent this command."
	}
	m, err := h.members.GetByDiscordID(ctx, invoker)
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return "❌ Your chat account is not linked to a community profile yet."
		}
		logger.Error("resolving bridge member failed", "error", err)
		return "❌ Something went wrong looking up your profile."
	}

	res, err := h.commands.Execute(ctx, d, command.Scope{Role: m.Role, TeamID: m.TeamID, UserID: &m.ID})
	if err != nil {
		var verr *command.ValidationError
		if errors.As(err, &verr) {
			return "❌ " + verr.Message
		}
		logger.Error("bridge command failed", "error", err)
		return "❌ Something went wrong running that command."
	}
	if !res.Executed {
		return "Nothing to do."
	}
	logger.Info("bridge command executed", "action", res.Action, "failed", res.Failed())
	return res.Message
}

func writeReply(w http.ResponseWriter, reply bridge.Reply) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		slog.Error("failed to encode bridge reply", "error", err)
	}
}
