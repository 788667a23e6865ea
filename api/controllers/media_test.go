package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
)

type stubDestroyer struct {
	result string
	err    error
	got    string
}

func (s *stubDestroyer) Destroy(_ context.Context, publicID string) (string, error) {
	s.got = publicID
	return s.result, s.err
}

func destroy(t *testing.T, images ImageDestroyer, method, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(method, "/media/destroy", strings.NewReader(body))
	rec := httptest.NewRecorder()
	MediaDestroy(images, nil).ServeHTTP(rec, req)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestMediaDestroyRejectsOtherMethods(t *testing.T) {
	rec, payload := destroy(t, &stubDestroyer{}, http.MethodGet, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	assert.Equal(t, "Solo se admite POST", payload["error"])
}

func TestMediaDestroyRejectsInvalidJSON(t *testing.T) {
	rec, payload := destroy(t, &stubDestroyer{}, http.MethodPost, "{nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "JSON inválido", payload["error"])
}

func TestMediaDestroyMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"missing id", pkgerrors.New(pkgerrors.CodeValidation, "publicId es obligatorio"), http.StatusBadRequest, "publicId es obligatorio"},
		{"no config", pkgerrors.New(pkgerrors.CodeConfigMissing, "Cloudinary no está configurado correctamente"), http.StatusInternalServerError, "Cloudinary no está configurado correctamente"},
		{"unreachable", pkgerrors.New(pkgerrors.CodeUpstream, "No se pudo contactar Cloudinary"), http.StatusBadGateway, "No se pudo contactar Cloudinary"},
		{"upstream status", pkgerrors.New(pkgerrors.CodeUpstream, "Invalid Signature").WithStatus(http.StatusUnauthorized), http.StatusUnauthorized, "Invalid Signature"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, payload := destroy(t, &stubDestroyer{err: tc.err}, http.MethodPost, `{"publicId":"x"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.msg, payload["error"])
		})
	}
}

func TestMediaDestroySuccess(t *testing.T) {
	images := &stubDestroyer{result: "ok"}
	rec, payload := destroy(t, images, http.MethodPost, `{"publicId":"diego-joyero/oro/anillo"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", payload["result"])
	assert.Equal(t, "diego-joyero/oro/anillo", images.got)
}
