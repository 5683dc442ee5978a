package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	appcontext "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// foreignKeyViolation is the Postgres error code PostgREST reports when a row references a missing parent.
const foreignKeyViolation = "23503"

// api sends authenticated requests to the hosted REST and storage surfaces.
type api struct {
	client  *httpclient.Client
	baseURL string
	anonKey string
	logger  ectologger.Logger
}

// upstreamError is a non-2xx answer from the hosted service.
type upstreamError struct {
	status  int
	code    string
	message string
}

func (e *upstreamError) Error() string {
	if e.code != "" {
		return fmt.Sprintf("upstream returned %d (%s): %s", e.status, e.code, e.message)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.status, e.message)
}

// headers returns the auth headers for the caller in ctx. The caller's own token is used when
// present so row-level policies apply to them; otherwise requests go out as the anonymous role.
func (a *api) headers(ctx context.Context) map[string]string {
	token := appcontext.GetAccessToken(ctx)
	if token == "" {
		token = a.anonKey
	}
	return map[string]string{
		"apikey":        a.anonKey,
		"Authorization": "Bearer " + token,
		"Accept":        "application/json",
	}
}

func (a *api) do(ctx context.Context, method, path string, query url.Values, body io.Reader, extra map[string]string) (*httpclient.Response, error) {
	headers := a.headers(ctx)
	for key, value := range extra {
		headers[key] = value
	}

	req, err := httpclient.NewRequest(ctx, method, a.baseURL, path, query, body, headers)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, parseUpstreamError(resp)
	}
	return resp, nil
}

func (a *api) doJSON(ctx context.Context, method, path string, query url.Values, payload any, extra map[string]string, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := httpclient.JSONBody(payload)
		if err != nil {
			return err
		}
		body = encoded
		if extra == nil {
			extra = map[string]string{}
		}
		extra["Content-Type"] = "application/json"
	}

	resp, err := a.do(ctx, method, path, query, body, extra)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return httpclient.Decode(resp, out)
}

func parseUpstreamError(resp *httpclient.Response) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(resp.Body, &payload)

	message := payload.Message
	if message == "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &upstreamError{status: resp.StatusCode, code: payload.Code, message: message}
}

// fail logs err and converts it to the error callers see. A foreign-key violation means the
// referenced parent is gone and is reported as NotFound(entity, id).
func (a *api) fail(ctx context.Context, err error, action, entity, id string) error {
	a.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
		"entity": entity,
		"id":     id,
	}).Errorf("Failed to %s", action)

	var upstream *upstreamError
	if errors.As(err, &upstream) {
		if upstream.code == foreignKeyViolation {
			return storage.NotFound(entity, id)
		}
		return httperror.NewHTTPError(upstream.status, upstream.message).AddMetaValue("code", upstream.code)
	}
	return httperror.NewHTTPErrorf(http.StatusBadGateway, "failed to %s: %v", action, err)
}

func eq(value string) string {
	return "eq." + value
}

// in builds a PostgREST in.(...) filter with every value quoted.
func in(values []string) string {
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// rowBody encodes v as a column map without the fields that are assembled on read.
func rowBody(v any, virtual ...string) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	row := map[string]any{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&row); err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	for _, key := range virtual {
		delete(row, key)
	}
	return row, nil
}
