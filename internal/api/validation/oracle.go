package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cohortlabs/oracle/internal/member"
)

// MaxQueryLength is the longest query the Oracle accepts, in characters.
const MaxQueryLength = 1000

// OracleRequest mirrors the fields needed for Oracle request validation.
type OracleRequest struct {
	Query                string
	Role                 string
	TeamID               string
	UserID               string
	ProfileID            string
	HasProfile           bool
	NeedsTeamContext     bool
	NeedsPersonalization bool
}

// ValidateOracleRequest validates an Oracle request before any work is done.
func ValidateOracleRequest(req OracleRequest) []FieldError {
	var errs []FieldError

	query := strings.TrimSpace(req.Query)
	if query == "" {
		errs = append(errs, FieldError{Field: "query", Code: CodeRequired, Message: "query is required"})
	} else if utf8.RuneCountInString(query) > MaxQueryLength {
		errs = append(errs, FieldError{Field: "query", Code: CodeTooLong, Message: fmt.Sprintf("query must be at most %d characters", MaxQueryLength)})
	}

	if req.Role == "" {
		errs = append(errs, FieldError{Field: "role", Code: CodeRequired, Message: "role is required"})
	} else if !member.ValidRole(req.Role) {
		errs = append(errs, FieldError{Field: "role", Code: CodeInvalid, Message: "role must be one of: " + strings.Join(member.Roles, ", ")})
	}

	errs = append(errs, validateUUID("teamId", req.TeamID)...)
	errs = append(errs, validateUUID("userId", req.UserID)...)
	errs = append(errs, validateUUID("userProfile.id", req.ProfileID)...)

	if req.NeedsTeamContext && req.TeamID == "" {
		errs = append(errs, FieldError{Field: "teamId", Code: CodeRequired, Message: "teamId is required when needsTeamContext is set"})
	}
	if req.NeedsPersonalization && !req.HasProfile {
		errs = append(errs, FieldError{Field: "userProfile", Code: CodeRequired, Message: "userProfile is required when needsPersonalization is set"})
	}

	return errs
}

func validateUUID(field, value string) []FieldError {
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return []FieldError{{Field: field, Code: CodeFormat, Message: field + " must be a valid UUID"}}
	}
	return nil
}
