package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStream_NumbersEvents(t *testing.T) {
	w := httptest.NewRecorder()
	stream, err := openEventStream(context.Background(), w)
	require.NoError(t, err)

	require.NoError(t, stream.send(eventStep, map[string]string{"step": "extract"}))
	require.NoError(t, stream.fail("Pipeline failed"))

	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))
	assert.Equal(t,
		"id: 1\nevent: step\ndata: {\"step\":\"extract\"}\n\n"+
			"id: 2\nevent: error\ndata: {\"error\":\"Pipeline failed\"}\n\n",
		w.Body.String())
}

func TestEventStream_StopsAfterDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()
	stream, err := openEventStream(ctx, w)
	require.NoError(t, err)

	cancel()
	assert.ErrorIs(t, stream.send(eventComplete, "done"), context.Canceled)
	assert.Empty(t, w.Body.String())
}

func TestOpenEventStream_RequiresFlusher(t *testing.T) {
	w := httptest.NewRecorder()
	_, err := openEventStream(context.Background(), struct{ http.ResponseWriter }{w})
	assert.ErrorIs(t, err, errNoFlush)
	assert.Empty(t, w.Header().Get("Content-Type"))
}
