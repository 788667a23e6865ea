package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestDecodeRejectsNonArray(t *testing.T) {
	if _, err := Decode([]byte(`{"items":[]}`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestDecodeDropsDuplicatesAndZeroQuantities(t *testing.T) {
	lines, err := Decode([]byte(`[{"id":"a","quantity":1},{"id":"a","quantity":3},{"id":"b","quantity":0}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestEncodeNilIsEmptyArray(t *testing.T) {
	data, err := Encode(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [], got %s", data)
	}
}

type fakeKV struct {
	values map[string]string
	ttl    time.Duration
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value.(string)
	f.ttl = ttl
	return nil
}

func TestRedisStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := &fakeKV{}
	storage, err := NewRedisStorage(kv, "dj:cart:diego-joyero-cart:v1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := storage.Load(ctx)
	if err != nil || data != nil {
		t.Fatalf("expected missing key to load nil, got %q %v", data, err)
	}

	if err := storage.Save(ctx, []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if kv.values["dj:cart:diego-joyero-cart:v1"] != "[]" || kv.ttl != time.Hour {
		t.Fatalf("unexpected stored value %+v", kv)
	}
}

func TestNewRedisStorageValidates(t *testing.T) {
	if _, err := NewRedisStorage(nil, "k", 0); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewRedisStorage(&fakeKV{}, "", 0); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
