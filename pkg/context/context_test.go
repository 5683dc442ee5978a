package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetAccessToken(ctx))

	ctx = SetRequestID(ctx, "req-1")
	ctx = SetUserID(ctx, "user-1")
	ctx = SetEmail(ctx, "owner@example.com")
	ctx = SetAccessToken(ctx, "token")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "owner@example.com", GetEmail(ctx))
	assert.Equal(t, "token", GetAccessToken(ctx))
	assert.Empty(t, GetRoute(ctx))
}
