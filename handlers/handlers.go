// Package handlers holds the thin HTTP layer: decode, call a service, map the result.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/middleware"
	"github.com/rede-abrigo/admin-backend/services/audit"
)

// maxBodyBytes bounds admin request bodies; a full overlay document is a few KB
const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON document from the request body
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// actorFromRequest describes the caller for audit records
func actorFromRequest(r *http.Request) audit.Actor {
	actor := audit.Actor{
		RequestID: middleware.GetRequestIDFromContext(r.Context()),
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if userID := middleware.GetUserIDFromContext(r.Context()); userID != nil {
		actor.UserID = *userID
	}
	return actor
}

// callerID returns the authenticated user ID, or uuid.Nil when the route is unauthenticated
func callerID(r *http.Request) uuid.UUID {
	if userID := middleware.GetUserIDFromContext(r.Context()); userID != nil {
		return *userID
	}
	return uuid.Nil
}
