package broadcasts

import (
	"log/slog"
	"net/http"

	"botadmin/internal/store"
	"botadmin/lib/api/cont"
	"botadmin/lib/api/response"
	"botadmin/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Broadcasts() []store.BroadcastItem
	DeleteBroadcast(id string) bool
}

func List(_ *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := handler.Broadcasts()
		render.JSON(w, r, response.List(items, len(items)))
	}
}

// Delete forgets the broadcast; messages already delivered stay in the chats.
func Delete(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		logger := log.With(
			sl.Module("http.handlers.broadcasts"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user", cont.GetPrincipal(r.Context())),
			slog.String("broadcast", id),
		)

		if !handler.DeleteBroadcast(id) {
			logger.Debug("broadcast not found")
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("Broadcast not found"))
			return
		}
		logger.Info("broadcast deleted")

		render.JSON(w, r, response.Ok(nil))
	}
}
