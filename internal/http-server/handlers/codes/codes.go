package codes

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

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	Codes(used bool) []entity.AccessCode
	GenerateCodes(issuerId int64, issuerName string, count int) ([]entity.AccessCode, error)
}

// List returns active codes, or used codes with ?used=true.
func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.codes")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		used := false
		if value := r.URL.Query().Get("used"); value != "" {
			var err error
			used, err = strconv.ParseBool(value)
			if err != nil {
				logger.Warn("invalid used flag", slog.String("used", value))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid used flag"))
				return
			}
		}

		codes := handler.Codes(used)
		logger.With(slog.Bool("used", used), slog.Int("count", len(codes))).Debug("codes listed")
		render.JSON(w, r, response.List(codes, len(codes)))
	}
}

// Generate issues ?count=N codes on behalf of ?issuer=<id>.
func Generate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.codes")
		principal := cont.GetPrincipal(r.Context())

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("user", principal),
		)

		query := r.URL.Query()
		count, err := strconv.Atoi(query.Get("count"))
		if err != nil {
			logger.Warn("invalid count", slog.String("count", query.Get("count")))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Invalid count"))
			return
		}
		var issuer int64
		if value := query.Get("issuer"); value != "" {
			issuer, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				logger.Warn("invalid issuer", slog.String("issuer", value))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("Invalid issuer"))
				return
			}
		}

		codes, err := handler.GenerateCodes(issuer, principal, count)
		if errors.Is(err, core.ErrInvalidCount) {
			logger.Warn("generate codes", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		if err != nil {
			logger.Error("generate codes", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error(fmt.Sprintf("Generate codes: %v", err)))
			return
		}
		logger.With(slog.Int("count", len(codes)), slog.Int64("issuer", issuer)).Info("codes issued")

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.List(codes, len(codes)))
	}
}
