package errors

import (
	"log/slog"
	"net/http"

	"botadmin/lib/api/response"
	"botadmin/lib/sl"

	"github.com/go-chi/render"
)

func NotFound(log *slog.Logger) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.errors"))
	return func(w http.ResponseWriter, r *http.Request) {
		logger.With(slog.String("path", r.URL.Path)).Debug("resource not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("Requested resource not found"))
	}
}
