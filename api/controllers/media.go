package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

// ImageDestroyer removes a hosted image by public id.
type ImageDestroyer interface {
	Destroy(ctx context.Context, publicID string) (string, error)
}

type destroyRequest struct {
	PublicID string `json:"publicId"`
}

// MediaDestroy proxies an image deletion to the image host. Responses use the
// bare {result} / {error} shape the admin panel expects.
func MediaDestroy(images ImageDestroyer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			responses.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Solo se admite POST"})
			return
		}
		var body destroyRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			responses.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "JSON inválido"})
			return
		}
		if images == nil {
			responses.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Cloudinary no está configurado correctamente"})
			return
		}

		result, err := images.Destroy(r.Context(), body.PublicID)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed == nil {
				typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "No se pudo eliminar la imagen")
			}
			if typed.Status() >= http.StatusInternalServerError {
				logg.Error(logg.WithField(r.Context(), "public_id", body.PublicID), "media.destroy_failed", err)
			}
			responses.WriteJSON(w, typed.Status(), map[string]string{"error": typed.Message()})
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]string{"result": result})
	}
}
