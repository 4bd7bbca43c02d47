package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/retrostore/retrostore-backend/api/middleware"
	"github.com/retrostore/retrostore-backend/api/responses"
	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
	"github.com/retrostore/retrostore-backend/pkg/logger"
)

// requireUser returns the authenticated caller or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return uuid.Nil, false
	}
	return userID, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
