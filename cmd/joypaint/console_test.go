package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joypaint/joypaint/internal/controller"
	"github.com/joypaint/joypaint/internal/drawing"
	"github.com/joypaint/joypaint/internal/storage/memory"
)

func newTestConsole(t *testing.T) (*console, *bytes.Buffer, context.Context) {
	t.Helper()
	ctrl, err := controller.New(controller.Config{}, controller.Deps{
		Catalog: drawing.Builtin(),
		Store:   memory.New(),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = ctrl.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	var out bytes.Buffer
	return newConsole(ctrl, &out), &out, ctx
}

func TestConsoleFillAndStatus(t *testing.T) {
	c, out, ctx := newTestConsole(t)

	require.NoError(t, c.execute(ctx, "color 1"))
	require.NoError(t, c.execute(ctx, "move 300 240"))
	require.NoError(t, c.execute(ctx, "press b"))
	require.NoError(t, c.execute(ctx, "status"))

	assert.Contains(t, out.String(), "drawing: human (1 filled")
	assert.Contains(t, out.String(), "message: Filled head")
}

func TestConsoleRecordAndPlay(t *testing.T) {
	c, out, ctx := newTestConsole(t)

	require.NoError(t, c.execute(ctx, "record"))
	require.NoError(t, c.execute(ctx, "press A"))
	require.NoError(t, c.execute(ctx, "stoprec"))
	assert.Contains(t, out.String(), "recorded session 1")

	require.NoError(t, c.execute(ctx, "sessions"))
	assert.Contains(t, out.String(), "human")

	require.NoError(t, c.execute(ctx, "play 1"))
	c.wg.Wait()
	assert.Contains(t, out.String(), "session 1 finished")
}

func TestConsoleErrors(t *testing.T) {
	c, _, ctx := newTestConsole(t)

	assert.ErrorIs(t, c.execute(ctx, "quit"), errQuit)
	assert.NoError(t, c.execute(ctx, "   "))
	assert.Error(t, c.execute(ctx, "press Z"))
	assert.Error(t, c.execute(ctx, "color x"))
	assert.Error(t, c.execute(ctx, "move 1"))
	assert.Error(t, c.execute(ctx, "play 0"))
	assert.Error(t, c.execute(ctx, "pause"))
	assert.Error(t, c.execute(ctx, "endround"))
	assert.Error(t, c.execute(ctx, "dance"))
}

func TestConsoleRound(t *testing.T) {
	c, out, ctx := newTestConsole(t)

	require.NoError(t, c.execute(ctx, "round 30"))
	require.NoError(t, c.execute(ctx, "endround"))
	assert.Contains(t, out.String(), "round: 0/6 regions")
}

func TestConsoleSave(t *testing.T) {
	c, _, ctx := newTestConsole(t)
	path := filepath.Join(t.TempDir(), "canvas.png")

	require.NoError(t, c.execute(ctx, "save "+path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
}

func TestConsoleRunQuits(t *testing.T) {
	c, _, ctx := newTestConsole(t)

	quit := make(chan struct{})
	go c.run(ctx, bytes.NewBufferString("mode\nquit\nmode\n"), func() { close(quit) })

	select {
	case <-quit:
	case <-time.After(2 * time.Second):
		t.Fatal("quit not called")
	}
}
