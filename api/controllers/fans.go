package controllers

import (
	"net/http"

	"github.com/stagepass/stagepass-backend/api/responses"
	"github.com/stagepass/stagepass-backend/api/validators"
	engagementsvc "github.com/stagepass/stagepass-backend/internal/engagement"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

const maxTopFansLimit = 100

// TopFans ranks the artist's fans by lifetime spend.
func TopFans(svc engagementsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "engagement service unavailable"))
			return
		}

		artistID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, maxTopFansLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fans, err := svc.TopFans(r.Context(), artistID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, fans)
	}
}
