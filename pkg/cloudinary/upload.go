package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
)

const (
	defaultMaxUploadMB = 5
	defaultBaseName    = "producto"
	defaultSlug        = "pieza"
	brandTag           = "diego-joyero"
)

var allowedMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/avif"}

// UploadInput is one product photo to store.
type UploadInput struct {
	File     io.Reader
	Filename string
	Material enums.Material
}

// UploadResult is what the catalog keeps about a stored photo.
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
}

// Upload validates the photo and sends it as an unsigned upload under
// <base folder>/oro|plata.
func (c *Client) Upload(ctx context.Context, in UploadInput) (res *UploadResult, err error) {
	defer func() { c.record("upload", err) }()

	if !c.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeConfigMissing, "Cloudinary no está configurado. Define CLOUDINARY_CLOUD_NAME y CLOUDINARY_UPLOAD_PRESET.")
	}
	if in.File == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "La imagen es obligatoria.")
	}

	maxBytes := int64(c.maxUploadMB()) * 1024 * 1024
	data, err := io.ReadAll(io.LimitReader(in.File, maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "No se pudo leer la imagen.")
	}

	if !AllowedMime(data) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Formato no permitido. Usa JPG, PNG, WebP o AVIF.")
	}
	if int64(len(data)) > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("La imagen supera los %d MB permitidos.", c.maxUploadMB()))
	}

	material := in.Material
	if !material.IsValid() {
		material = enums.MaterialGold
	}

	ext, baseName := splitFilename(in.Filename)
	folder := c.BaseFolder() + "/" + material.FolderName()
	publicID := fmt.Sprintf("%s-%s-%s", c.stamp(), c.randomID(), Slug(baseName))
	expectedID := folder + "/" + publicID

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	filename := in.Filename
	if strings.TrimSpace(filename) == "" {
		filename = baseName + "." + ext
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
	}
	if _, err := part.Write(data); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
	}
	fields := [][2]string{
		{"upload_preset", c.cfg.UploadPreset},
		{"public_id", publicID},
		{"context", "alt=" + baseName},
		{"tags", brandTag + "," + material.String()},
		{"folder", folder},
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload form")
	}

	req, err := newFormRequest(ctx, c.endpoint("upload"), body, writer.FormDataContentType())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload request")
	}

	raw, err := c.send(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "No se pudo contactar a Cloudinary. Verifica tu conexión.")
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		PublicID  string `json:"public_id"`
		Error     *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw.body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "Cloudinary respondió con un formato inesperado.")
	}
	if !raw.ok() {
		msg := fmt.Sprintf("Cloudinary devolvió %d.", raw.status)
		if payload.Error != nil && payload.Error.Message != "" {
			msg = payload.Error.Message
		}
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, msg).WithDetails(map[string]any{"status": raw.status})
	}

	url := payload.SecureURL
	if url == "" {
		url = payload.URL
	}
	if url == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "Cloudinary no devolvió la URL de la imagen.")
	}
	if payload.PublicID == "" {
		payload.PublicID = expectedID
	}

	return &UploadResult{SecureURL: url, PublicID: payload.PublicID, Format: ext}, nil
}

// AllowedMime reports whether the sniffed content type is an accepted photo format.
func AllowedMime(data []byte) bool {
	detected := mimetype.Detect(data)
	for _, allowed := range allowedMimeTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

func (c *Client) maxUploadMB() int {
	if c.cfg.MaxUploadMB <= 0 {
		return defaultMaxUploadMB
	}
	return c.cfg.MaxUploadMB
}

// stamp renders the ISO-8601 UTC time with separators removed: yyyymmddhhmmssmmm.
func (c *Client) stamp() string {
	return strings.ReplaceAll(c.now().UTC().Format("20060102150405.000"), ".", "")
}

func splitFilename(name string) (ext, base string) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		name = ""
	}
	ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		ext = "jpg"
	}
	base = strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = defaultBaseName
	}
	return ext, base
}

func randomChunk() string {
	return uuid.NewString()[:8]
}
