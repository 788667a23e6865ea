package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/api/validators"
	"github.com/diegojoyero/joyeria-backend/internal/catalogeditor"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
)

const (
	maxImageBytes  = 10 << 20
	maxImportBytes = 5 << 20
)

func AdminProductList(editor *catalogeditor.Editor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog editor unavailable"))
			return
		}
		material, err := validators.ParseQueryMaterial(r, "material")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := editor.List(r.Context(), material)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminProductStageDraft merges the body into the pending edits of a product.
func AdminProductStageDraft(editor *catalogeditor.Editor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog editor unavailable"))
			return
		}
		id, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var patch catalogeditor.Draft
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := editor.StageDraft(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func AdminProductDiscardDraft(editor *catalogeditor.Editor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog editor unavailable"))
			return
		}
		id, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		editor.Discard(id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdminProductStageImage expects a multipart form with the photo under "image".
func AdminProductStageImage(editor *catalogeditor.Editor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog editor unavailable"))
			return
		}
		id, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		img, err := readFormFile(w, r, "image", maxImageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if img == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "La imagen es obligatoria.").WithDetails(map[string]any{"field": "image"}))
			return
		}
		row, err := editor.StageImage(r.Context(), id, *img)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

func AdminProductSave(editor *catalogeditor.Editor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog editor unavailable"))
			return
		}
		id, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		saved, err := editor.Save(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, saved)
	}
}

// AdminProductCreate accepts either a JSON draft or a multipart form with the
// draft JSON under "product" and an optional photo under "image".
func AdminProductCreate(editor *catalogeditor.Editor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog editor unavailable"))
			return
		}

		var (
			draft catalogeditor.Draft
			img   *catalogeditor.StagedImage
		)
		if isMultipart(r) {
			var err error
			img, err = readFormFile(w, r, "image", maxImageBytes)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := json.Unmarshal([]byte(r.FormValue("product")), &draft); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product payload").WithDetails(map[string]any{"field": "product"}))
				return
			}
		} else if err := validators.DecodeJSONBody(r, &draft); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := editor.Create(r.Context(), draft, img)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminProductDelete(editor *catalogeditor.Editor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if editor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog editor unavailable"))
			return
		}
		id, err := productIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := editor.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdminProductImport loads a CSV export under the multipart field "file".
// Rows without a material fall back to the material query, then gold.
func AdminProductImport(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		material, err := validators.ParseQueryMaterial(r, "material")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fallback := enums.MaterialGold
		if material != nil {
			fallback = *material
		}

		file, err := readFormFile(w, r, "file", maxImportBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if file == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file is required").WithDetails(map[string]any{"field": "file"}))
			return
		}

		result, err := svc.ImportCSV(r.Context(), bytes.NewReader(file.Data), fallback)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func productIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "productId")))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return id, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// readFormFile returns nil without error when the field is absent.
func readFormFile(w http.ResponseWriter, r *http.Request, field string, limit int64) (*catalogeditor.StagedImage, error) {
	if !isMultipart(r) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "multipart form expected")
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upload").WithDetails(map[string]any{"field": field})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if int64(len(data)) > limit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload too large").WithDetails(map[string]any{"field": field, "max_bytes": limit})
	}
	return &catalogeditor.StagedImage{Data: data, Filename: header.Filename}, nil
}
