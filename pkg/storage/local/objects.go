package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Ramsey-B/clover/pkg/kv"
	"github.com/Ramsey-B/clover/pkg/signer"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// FilesPath is the route that serves blobs held by an ObjectStore.
const FilesPath = "/api/v1/files/"

type blob struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ObjectStore keeps attachment blobs in the key-value store next to the collections and
// hands out download links signed by signer.
type ObjectStore struct {
	store   kv.Store
	prefix  string
	signer  *signer.Signer
	baseURL string
}

func NewObjectStore(store kv.Store, keyPrefix string, s *signer.Signer, publicURL string) *ObjectStore {
	return &ObjectStore{
		store:   store,
		prefix:  keyPrefix + "-objects/",
		signer:  s,
		baseURL: strings.TrimSuffix(publicURL, "/") + FilesPath,
	}
}

func (o *ObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	raw, err := json.Marshal(blob{ContentType: contentType, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode blob: %w", err)
	}

	entry, err := o.store.Get(ctx, o.prefix+key)
	if err != nil {
		return fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	if _, err := o.store.CompareAndSwap(ctx, o.prefix+key, entry.Version, raw); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

func (o *ObjectStore) Remove(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = o.prefix + key
	}
	return o.store.Delete(ctx, prefixed...)
}

func (o *ObjectStore) SignURLs(_ context.Context, keys []string) (map[string]string, error) {
	urls := make(map[string]string, len(keys))
	for _, key := range keys {
		token, err := o.signer.Sign(key)
		if err != nil {
			return nil, err
		}
		urls[key] = o.baseURL + escapePath(key) + "?token=" + url.QueryEscape(token)
	}
	return urls, nil
}

// Open returns the blob stored under key. A missing blob is a NotFound error.
func (o *ObjectStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	entry, err := o.store.Get(ctx, o.prefix+key)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	if !entry.Exists() {
		return nil, "", storage.NotFound("file", key)
	}

	var b blob
	if err := json.Unmarshal(entry.Value, &b); err != nil {
		return nil, "", fmt.Errorf("failed to decode blob %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(b.Data)), b.ContentType, nil
}

// Verify checks a download token presented for key.
func (o *ObjectStore) Verify(key, token string) error {
	return o.signer.Verify(token, key)
}

func escapePath(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
