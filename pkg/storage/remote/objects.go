package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ramsey-B/clover/pkg/httpclient"
)

// ObjectStore keeps blobs in a bucket of the hosted storage service.
type ObjectStore struct {
	api    *api
	bucket string
	ttl    time.Duration
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func (o *ObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	headers := o.api.headers(ctx)
	headers["Content-Type"] = contentType
	headers["x-upsert"] = "false"

	req, err := httpclient.NewRequest(ctx, http.MethodPost, o.api.baseURL, "/storage/v1/object/"+o.bucket+"/"+escapeKey(key), nil, body, headers)
	if err != nil {
		return err
	}
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := o.api.client.Do(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return parseUpstreamError(resp)
	}
	return nil
}

func (o *ObjectStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return o.api.doJSON(ctx, http.MethodDelete, "/storage/v1/object/"+o.bucket, nil, map[string]any{"prefixes": keys}, nil, nil)
}

type signedObject struct {
	Path      string  `json:"path"`
	SignedURL string  `json:"signedURL"`
	Error     *string `json:"error"`
}

// SignURLs signs every key with a single request.
func (o *ObjectStore) SignURLs(ctx context.Context, keys []string) (map[string]string, error) {
	payload := map[string]any{
		"expiresIn": int(o.ttl.Seconds()),
		"paths":     keys,
	}

	var signed []signedObject
	if err := o.api.doJSON(ctx, http.MethodPost, "/storage/v1/object/sign/"+o.bucket, nil, payload, nil, &signed); err != nil {
		return nil, o.api.fail(ctx, err, "sign attachment urls", "attachment", "")
	}

	urls := make(map[string]string, len(signed))
	for _, object := range signed {
		if object.Error != nil || object.SignedURL == "" {
			continue
		}
		urls[object.Path] = fmt.Sprintf("%s/storage/v1%s", strings.TrimSuffix(o.api.baseURL, "/"), object.SignedURL)
	}
	return urls, nil
}
