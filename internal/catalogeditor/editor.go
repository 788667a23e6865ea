package catalogeditor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diegojoyero/joyeria-backend/internal/activity"
	product "github.com/diegojoyero/joyeria-backend/internal/products"
	"github.com/diegojoyero/joyeria-backend/pkg/cloudinary"
	"github.com/diegojoyero/joyeria-backend/pkg/db/models"
	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStore is the authoritative product table.
type ProductStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListAll(ctx context.Context, material *enums.Material) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImageStore hosts product photos.
type ImageStore interface {
	Upload(ctx context.Context, in cloudinary.UploadInput) (*cloudinary.UploadResult, error)
	Destroy(ctx context.Context, publicID string) (string, error)
}

type activityRecorder interface {
	Record(ctx context.Context, action enums.ActivityAction, title, description string) (*activity.EntryDTO, error)
}

// StagedImage is a photo waiting for the next save.
type StagedImage struct {
	Data     []byte
	Filename string
}

// Row is a product as the editor shows it: the draft merged over the stored row.
type Row struct {
	product.ProductDTO
	Dirty       bool   `json:"dirty"`
	StagedImage string `json:"stagedImage,omitempty"`
}

// Editor keeps pending edits over the product table. Saves are last write wins.
type Editor struct {
	store    ProductStore
	images   ImageStore
	activity activityRecorder
	logg     *logger.Logger
	now      func() time.Time

	mu     sync.Mutex
	drafts map[uuid.UUID]Draft
	staged map[uuid.UUID]StagedImage
}

// NewEditor builds an editor. images and recorder may be nil.
func NewEditor(store ProductStore, images ImageStore, recorder activityRecorder, logg *logger.Logger) (*Editor, error) {
	if store == nil {
		return nil, fmt.Errorf("product store required")
	}
	return &Editor{
		store:    store,
		images:   images,
		activity: recorder,
		logg:     logg,
		now:      time.Now,
		drafts:   map[uuid.UUID]Draft{},
		staged:   map[uuid.UUID]StagedImage{},
	}, nil
}

// List returns every product of material with pending drafts merged in.
func (e *Editor) List(ctx context.Context, material *enums.Material) ([]Row, error) {
	rows, err := e.store.ListAll(ctx, material)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "No se pudo cargar el catálogo.")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, e.rowLocked(row))
	}
	return out, nil
}

// StageDraft merges patch into the pending draft of id.
func (e *Editor) StageDraft(ctx context.Context, id uuid.UUID, patch Draft) (*Row, error) {
	stored, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.drafts[id].Merge(patch)
	if field, msg := validate(next.Apply(*stored)); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
	}
	e.drafts[id] = next
	row := e.rowLocked(*stored)
	return &row, nil
}

// StageImage holds a photo for id until the next save.
func (e *Editor) StageImage(ctx context.Context, id uuid.UUID, img StagedImage) (*Row, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	stored, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.staged[id] = img
	row := e.rowLocked(*stored)
	return &row, nil
}

// Discard drops the draft and staged photo of id.
func (e *Editor) Discard(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.drafts, id)
	delete(e.staged, id)
}

// Save uploads the staged photo, if any, then commits the merged draft. A
// failed upload leaves the draft and the photo staged. The draft is cleared
// only once the update succeeds.
func (e *Editor) Save(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	stored, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	draft := e.drafts[id]
	img, hasImage := e.staged[id]
	e.mu.Unlock()

	if hasImage {
		material := draft.Apply(*stored).Material
		uploaded, err := e.upload(ctx, img, material)
		if err != nil {
			return nil, err
		}
		draft.ImageURL = &uploaded.SecureURL
		draft.ImagePublicID = &uploaded.PublicID

		e.mu.Lock()
		e.drafts[id] = e.drafts[id].Merge(Draft{ImageURL: draft.ImageURL, ImagePublicID: draft.ImagePublicID})
		delete(e.staged, id)
		e.mu.Unlock()
	}

	next := draft.Apply(*stored)
	if field, msg := validate(next); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
	}
	next.UpdatedAt = e.now().UTC()

	if err := e.store.Update(ctx, &next); err != nil {
		if hasImage {
			ctx = e.logg.WithFields(ctx, map[string]any{"product_id": id.String(), "public_id": *draft.ImagePublicID})
			e.logg.Error(ctx, "catalog.update_after_upload_failed", err)
		}
		return nil, lookupError(err, "No se pudo actualizar el producto.")
	}

	e.mu.Lock()
	delete(e.drafts, id)
	e.mu.Unlock()

	e.record(ctx, enums.ActivityActionUpdate, "Ficha de producto actualizada", next.Name+" fue editado desde el panel.")
	dto := product.FromModel(next)
	return &dto, nil
}

// Create uploads img when given and inserts the new product.
func (e *Editor) Create(ctx context.Context, draft Draft, img *StagedImage) (*product.ProductDTO, error) {
	now := e.now().UTC()
	base := models.Product{
		ID:        uuid.New(),
		Material:  enums.MaterialGold,
		Category:  product.DefaultCategory,
		Status:    enums.ProductStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	next := draft.Apply(base)
	if strings.TrimSpace(next.Category) == "" {
		next.Category = product.DefaultCategory
	}
	if field, msg := validate(next); field != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"field": field})
	}

	if img != nil {
		if err := checkImage(*img); err != nil {
			return nil, err
		}
		uploaded, err := e.upload(ctx, *img, next.Material)
		if err != nil {
			return nil, err
		}
		next.ImageURL = uploaded.SecureURL
		next.ImagePublicID = &uploaded.PublicID
	} else if next.ImagePublicID == nil && next.ImageURL != "" {
		if id := cloudinary.ExtractPublicIDFromURL(next.ImageURL); id != "" {
			next.ImagePublicID = &id
		}
	}

	if err := e.store.Create(ctx, &next); err != nil {
		if img != nil {
			ctx = e.logg.WithField(ctx, "public_id", *next.ImagePublicID)
			e.logg.Error(ctx, "catalog.create_after_upload_failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "No se pudo crear el producto.")
	}

	e.record(ctx, enums.ActivityActionCreate, "Nuevo producto publicado", next.Name+" está disponible en el catálogo.")
	dto := product.FromModel(next)
	return &dto, nil
}

// Delete removes the product and then tries to destroy its photo. A failed
// destroy is logged and does not fail the delete.
func (e *Editor) Delete(ctx context.Context, id uuid.UUID) error {
	stored, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return lookupError(err, "No se pudo eliminar el producto.")
	}
	e.Discard(id)

	publicID := ""
	if stored.ImagePublicID != nil {
		publicID = *stored.ImagePublicID
	}
	if publicID == "" {
		publicID = cloudinary.ExtractPublicIDFromURL(stored.ImageURL)
	}
	if publicID != "" && e.images != nil {
		if _, err := e.images.Destroy(ctx, publicID); err != nil {
			e.logg.Warn(e.logg.WithFields(ctx, map[string]any{"public_id": publicID, "error": err.Error()}), "No se pudo eliminar la imagen de Cloudinary")
		}
	}

	e.record(ctx, enums.ActivityActionDelete, "Producto eliminado", stored.Name+" se ocultó del catálogo.")
	return nil
}

func (e *Editor) upload(ctx context.Context, img StagedImage, material enums.Material) (*cloudinary.UploadResult, error) {
	if e.images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConfigMissing, "Cloudinary no está configurado.")
	}
	res, err := e.images.Upload(ctx, cloudinary.UploadInput{
		File:     bytes.NewReader(img.Data),
		Filename: img.Filename,
		Material: material,
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "No se pudo subir la imagen.")
		}
		return nil, err
	}
	return res, nil
}

func (e *Editor) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	stored, err := e.store.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "No se pudo cargar el producto.")
	}
	return stored, nil
}

func (e *Editor) rowLocked(stored models.Product) Row {
	draft, dirty := e.drafts[stored.ID]
	row := Row{ProductDTO: product.FromModel(draft.Apply(stored)), Dirty: dirty && !draft.Empty()}
	if img, ok := e.staged[stored.ID]; ok {
		row.StagedImage = img.Filename
		row.Dirty = true
	}
	return row
}

func (e *Editor) record(ctx context.Context, action enums.ActivityAction, title, description string) {
	if e.activity == nil {
		return
	}
	if _, err := e.activity.Record(ctx, action, title, description); err != nil {
		e.logg.Warn(e.logg.WithField(ctx, "error", err.Error()), "catalog.activity_failed")
	}
}

func checkImage(img StagedImage) error {
	if len(img.Data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "La imagen es obligatoria.")
	}
	if !cloudinary.AllowedMime(img.Data) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Formato no permitido. Usa JPG, PNG, WebP o AVIF.")
	}
	return nil
}

func lookupError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
