package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
)

// Destroy removes an image with a signed request and returns the host's result field.
func (c *Client) Destroy(ctx context.Context, publicID string) (result string, err error) {
	defer func() { c.record("destroy", err) }()

	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "publicId es obligatorio")
	}
	if c == nil || !c.cfg.DestroyConfigured() {
		return "", pkgerrors.New(pkgerrors.CodeConfigMissing, "Cloudinary no está configurado correctamente")
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	signed := map[string]string{
		"invalidate": "true",
		"public_id":  publicID,
		"timestamp":  timestamp,
	}
	form := url.Values{}
	for key, value := range signed {
		form.Set(key, value)
	}
	form.Set("api_key", c.cfg.APIKey)
	form.Set("signature", Sign(signed, c.cfg.APISecret))

	req, err := newFormRequest(ctx, c.endpoint("destroy"), bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build destroy request")
	}

	raw, err := c.send(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "No se pudo contactar Cloudinary")
	}

	var payload struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw.body, &payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "Cloudinary respondió con un formato inesperado")
	}
	if !raw.ok() {
		msg := "No se pudo eliminar la imagen"
		if payload.Error != nil && payload.Error.Message != "" {
			msg = payload.Error.Message
		}
		return "", pkgerrors.New(pkgerrors.CodeUpstream, msg).WithStatus(raw.status)
	}
	if payload.Result == "" {
		return "ok", nil
	}
	return payload.Result, nil
}

// Sign computes the API signature: sha1 over the sorted key=value pairs joined
// with '&' followed by the secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
