package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferLogger_CapturesLevels(t *testing.T) {
	buf := NewBufferLogger()

	buf.Debug("probe %s", "/mnt/t")
	buf.Info("mounted")
	buf.Warn("unmount failed")
	buf.Error("no address")

	require.Len(t, buf.Messages, 4)
	assert.Equal(t, "probe /mnt/t", buf.Messages[0].Message)
	assert.True(t, buf.HasLevel("debug"))
	assert.True(t, buf.HasLevel("info"))
	assert.True(t, buf.HasLevel("warn"))
	assert.True(t, buf.HasLevel("error"))
	assert.False(t, buf.HasLevel("fatal"))
}

func TestBufferLogger_Clear(t *testing.T) {
	buf := NewBufferLogger()
	buf.Info("x")

	buf.Clear()

	assert.Empty(t, buf.Messages)
}

func TestPrefixed(t *testing.T) {
	buf := NewBufferLogger()
	log := Prefixed(buf, "[host ab12cd34]")

	log.Debug("Mount volume: %s", "mount -o ...")
	log.Warn("unmount failed")

	require.Len(t, buf.Messages, 2)
	assert.Equal(t, "[host ab12cd34] Mount volume: mount -o ...", buf.Messages[0].Message)
	assert.Equal(t, "[host ab12cd34] unmount failed", buf.Messages[1].Message)
}

func TestNoop_DiscardsEverything(t *testing.T) {
	log := Noop()

	// Must not panic or print.
	log.Debug("d")
	log.Info("i")
	log.Warn("w")
	log.Error("e")
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	buf := NewBufferLogger()
	SetDefault(buf)

	Default().Info("hello")

	assert.True(t, buf.HasLevel("info"))
}
