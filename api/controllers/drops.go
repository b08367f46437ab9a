package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagepass/stagepass-backend/api/responses"
	"github.com/stagepass/stagepass-backend/api/validators"
	dropsvc "github.com/stagepass/stagepass-backend/internal/drops"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// ArtistCreateDrop creates a draft drop.
func ArtistCreateDrop(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		artistID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input dropsvc.CreateDropInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		drop, err := svc.Create(r.Context(), artistID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, drop)
	}
}

// ArtistUpdateDrop edits a draft drop, replacing items wholesale when given.
func ArtistUpdateDrop(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		artistID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := pathUUID(chi.URLParam(r, "dropId"), "drop id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input dropsvc.UpdateDropInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		drop, err := svc.Update(r.Context(), artistID, dropID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drop)
	}
}

// ArtistListDrops lists the authenticated artist's drops.
func ArtistListDrops(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		artistID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		drops, err := svc.ListByArtist(r.Context(), artistID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drops)
	}
}

// ArtistPublishDrop moves a draft drop to scheduled or live.
func ArtistPublishDrop(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		artistID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := pathUUID(chi.URLParam(r, "dropId"), "drop id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		drop, err := svc.Publish(r.Context(), artistID, dropID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drop)
	}
}

// ArtistCancelDrop terminally cancels a drop.
func ArtistCancelDrop(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		artistID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := pathUUID(chi.URLParam(r, "dropId"), "drop id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		drop, err := svc.Cancel(r.Context(), artistID, dropID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, drop)
	}
}

// ArtistDeleteDrop removes a draft drop and its items.
func ArtistDeleteDrop(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		artistID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := pathUUID(chi.URLParam(r, "dropId"), "drop id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), artistID, dropID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DropView is the gated public read. Anonymous viewers are allowed through;
// the gate decides what they see.
func DropView(svc dropsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "drop service unavailable"))
			return
		}

		viewerID, err := optionalActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dropID, err := pathUUID(chi.URLParam(r, "dropId"), "drop id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.View(r.Context(), dropID, viewerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
