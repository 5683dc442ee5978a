package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, flush, err := New(Config{AppName: "clover", Level: "debug", Pretty: true})
	require.NoError(t, err)
	require.NotNil(t, logger)
	flush()
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestLevelDefaultsToInfo(t *testing.T) {
	z, err := newZap(Config{})
	require.NoError(t, err)
	assert.True(t, z.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, z.Core().Enabled(zapcore.DebugLevel))
}
