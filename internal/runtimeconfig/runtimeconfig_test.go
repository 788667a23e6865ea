package runtimeconfig

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestResolveFallsBackToViteNames(t *testing.T) {
	cfg := Resolve(mapLookup(map[string]string{
		"SUPABASE_URL":               "  https://api.diegojoyero.pe ",
		"VITE_SUPABASE_URL":          "https://ignored.example",
		"VITE_SUPABASE_ANON_KEY":     "anon",
		"CLOUDINARY_CLOUD_NAME":      "   ",
		"VITE_CLOUDINARY_CLOUD_NAME": "",
		"CLOUDINARY_UPLOAD_PRESET":   "joyas",
	}))

	require.NotNil(t, cfg.SupabaseURL)
	assert.Equal(t, "https://api.diegojoyero.pe", *cfg.SupabaseURL)
	require.NotNil(t, cfg.SupabaseAnonKey)
	assert.Equal(t, "anon", *cfg.SupabaseAnonKey)
	assert.Nil(t, cfg.Cloudinary.CloudName)
	assert.Equal(t, "joyas", *cfg.Cloudinary.UploadPreset)
	assert.Equal(t, DefaultBaseFolder, cfg.Cloudinary.BaseFolder)
}

func TestResolveCustomFolder(t *testing.T) {
	cfg := Resolve(mapLookup(map[string]string{"VITE_CLOUDINARY_FOLDER": "Tienda"}))
	assert.Equal(t, "Tienda", cfg.Cloudinary.BaseFolder)
}

func TestLoaderCachesFirstResult(t *testing.T) {
	values := map[string]string{"SUPABASE_URL": "https://one.example"}
	loader := NewLoader(WithLookup(mapLookup(values)))

	first := loader.Load()
	values["SUPABASE_URL"] = "https://two.example"
	second := loader.Load()
	assert.Equal(t, *first.SupabaseURL, *second.SupabaseURL)
}

func TestLoaderDevAndOverride(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"SUPABASE_URL":      "https://prod.example",
		"VITE_SUPABASE_URL": "http://localhost:54321",
	})
	dev := NewLoader(WithLookup(lookup), WithDev(true)).Load()
	assert.Equal(t, "http://localhost:54321", *dev.SupabaseURL)

	url := "https://pinned.example"
	pinned := NewLoader(WithLookup(lookup), WithOverride(Config{SupabaseURL: &url})).Load()
	assert.Equal(t, url, *pinned.SupabaseURL)
}

func TestHandlerSetsNoStore(t *testing.T) {
	loader := NewLoader(WithLookup(mapLookup(map[string]string{})))
	rec := httptest.NewRecorder()
	Handler(loader).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runtime-config", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body["supabaseUrl"])
	cloud := body["cloudinary"].(map[string]any)
	assert.Equal(t, DefaultBaseFolder, cloud["baseFolder"])
}

func TestHandlerEncodesBlankValuesAsNull(t *testing.T) {
	loader := NewLoader(WithLookup(mapLookup(map[string]string{
		"SUPABASE_URL":             "",
		"SUPABASE_ANON_KEY":        "  ",
		"VITE_SUPABASE_ANON_KEY":   "anon-dev",
		"CLOUDINARY_UPLOAD_PRESET": "\t",
	})))
	rec := httptest.NewRecorder()
	Handler(loader).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runtime-config", nil))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body, "supabaseUrl")
	assert.JSONEq(t, `null`, string(body["supabaseUrl"]))
	assert.JSONEq(t, `"anon-dev"`, string(body["supabaseAnonKey"]))

	var cloud map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body["cloudinary"], &cloud))
	require.Contains(t, cloud, "cloudName")
	assert.JSONEq(t, `null`, string(cloud["cloudName"]))
	assert.JSONEq(t, `null`, string(cloud["uploadPreset"]))
}
