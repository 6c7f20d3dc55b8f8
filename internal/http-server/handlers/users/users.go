package users

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"botadmin/entity"
	"botadmin/impl/core"
	"botadmin/lib/api/cont"
	"botadmin/lib/api/response"
	"botadmin/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Users() []core.UserEntry
	AccessSnapshot() entity.AccessDocument
	BanUser(id int64) error
	UnbanUser(id int64) error
}

// AccessSets is the authorized and banned membership without code records.
type AccessSets struct {
	AuthorizedUsers []int64 `json:"authorized_users"`
	BannedUsers     []int64 `json:"banned_users"`
}

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := handler.Users()
		log.With(
			sl.Module("http.handlers.users"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int("count", len(users)),
		).Debug("users listed")
		render.JSON(w, r, response.List(users, len(users)))
	}
}

func Access(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := handler.AccessSnapshot()
		render.JSON(w, r, response.Ok(AccessSets{
			AuthorizedUsers: doc.AuthorizedUsers,
			BannedUsers:     doc.BannedUsers,
		}))
	}
}

func Ban(log *slog.Logger, handler Core) http.HandlerFunc {
	return change(log, "ban", handler.BanUser)
}

func Unban(log *slog.Logger, handler Core) http.HandlerFunc {
	return change(log, "unban", handler.UnbanUser)
}

func change(log *slog.Logger, action string, apply func(int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.users")
		userId := chi.URLParam(r, "id")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user", cont.GetPrincipal(r.Context())),
			slog.String("target", userId),
			slog.String("action", action),
		)

		id, err := strconv.ParseInt(userId, 10, 64)
		if err == nil {
			err = apply(id)
		} else {
			err = core.ErrInvalidUser
		}
		switch {
		case errors.Is(err, core.ErrInvalidUser):
			logger.Warn("invalid user id")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid user id"))
			return
		case errors.Is(err, core.ErrProtectedUser):
			logger.Warn("refused to change an admin")
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error(err.Error()))
			return
		case err != nil:
			logger.Error("changing user access", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		logger.Info("user access changed")

		render.JSON(w, r, response.Ok(nil))
	}
}
