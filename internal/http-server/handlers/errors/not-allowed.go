package errors

import (
	"log/slog"
	"net/http"

	"botadmin/lib/api/response"
	"botadmin/lib/sl"

	"github.com/go-chi/render"
)

func NotAllowed(log *slog.Logger) http.HandlerFunc {
	logger := log.With(sl.Module("http.handlers.errors"))
	return func(w http.ResponseWriter, r *http.Request) {
		logger.With(slog.String("method", r.Method), slog.String("path", r.URL.Path)).Debug("method not allowed")
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("Method not allowed"))
	}
}
