package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cohortlabs/oracle/internal/api/middleware"
	"github.com/cohortlabs/oracle/internal/api/response"
	"github.com/cohortlabs/oracle/internal/api/validation"
	"github.com/cohortlabs/oracle/internal/member"
	"github.com/cohortlabs/oracle/internal/oracle"
)

// OracleService answers validated Oracle requests.
type OracleService interface {
	Handle(ctx context.Context, req oracle.Request) *oracle.Response
}

type profileRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Skills          []string `json:"skills"`
	HelpNeeded      []string `json:"help_needed"`
	ExperienceLevel string   `json:"experience_level"`
	Bio             string   `json:"bio"`
}

type oracleRequest struct {
	Query          string                `json:"query"`
	Role           string                `json:"role"`
	TeamID         string                `json:"teamId"`
	UserID         string                `json:"userId"`
	UserProfile    *profileRequest       `json:"userProfile"`
	ContextRequest oracle.ContextRequest `json:"contextRequest"`
}

// OracleHandler handles POST /oracle.
type OracleHandler struct {
	service OracleService
}

// NewOracleHandler creates a new OracleHandler.
func NewOracleHandler(service OracleService) *OracleHandler {
	return &OracleHandler{service: service}
}

// Ask handles POST /oracle. Once the request is valid the answer is always
// a 200; pipeline failures surface as a low-confidence answer.
func (h *OracleHandler) Ask(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req oracleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	v := validation.OracleRequest{
		Query:                req.Query,
		Role:                 req.Role,
		TeamID:               req.TeamID,
		UserID:               req.UserID,
		HasProfile:           req.UserProfile != nil,
		NeedsTeamContext:     isSet(req.ContextRequest.NeedsTeamContext),
		NeedsPersonalization: isSet(req.ContextRequest.NeedsPersonalization),
	}
	if req.UserProfile != nil {
		v.ProfileID = req.UserProfile.ID
	}
	if fieldErrors := validation.ValidateOracleRequest(v); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	resp := h.service.Handle(r.Context(), oracle.Request{
		RequestID: requestID,
		Query:     strings.TrimSpace(req.Query),
		Role:      req.Role,
		TeamID:    parseOptionalUUID(req.TeamID),
		UserID:    parseOptionalUUID(req.UserID),
		Profile:   toMember(req.UserProfile),
		Context:   req.ContextRequest,
	})

	response.Success(w, http.StatusOK, resp, requestID)
}

func isSet(b *bool) bool {
	return b != nil && *b
}

// parseOptionalUUID expects an already validated value.
func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func toMember(p *profileRequest) *member.Member {
	if p == nil {
		return nil
	}
	m := &member.Member{
		Name:            p.Name,
		Role:            p.Role,
		Skills:          p.Skills,
		HelpNeeded:      p.HelpNeeded,
		ExperienceLevel: p.ExperienceLevel,
		Bio:             p.Bio,
	}
	if id := parseOptionalUUID(p.ID); id != nil {
		m.ID = *id
	}
	return m
}
