package net

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"FadingInk/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stroke(id string) StrokeMessage {
	return StrokeMessage{
		ID:      id,
		Site:    "site-" + id,
		Lamport: 7,
		Segment: state.Segment{Color: state.Red, Points: []state.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}},
	}
}

func dialTest(t *testing.T, srv *httptest.Server) (*Client, chan StrokeMessage) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ink"
	c, err := Dial(t.Context(), url, nil)
	require.NoError(t, err)

	got := make(chan StrokeMessage, 4)
	c.OnStroke = func(s StrokeMessage) { got <- s }
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c, got
}

func receive(t *testing.T, ch chan StrokeMessage) StrokeMessage {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stroke")
	}
	return StrokeMessage{}
}

func TestHubRelaysBetweenPeers(t *testing.T) {
	hub := NewHub(nil)
	atHost := make(chan StrokeMessage, 4)
	hub.OnStroke = func(s StrokeMessage) { atHost <- s }
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	var last atomic.Int32
	hub.OnPeers = func(n int) { last.Store(int32(n)) }

	a, gotA := dialTest(t, srv)
	_, gotB := dialTest(t, srv)
	require.Eventually(t, func() bool { return hub.peerCount() == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return last.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	sent := stroke("a1")
	require.NoError(t, a.Send(sent))

	assert.Equal(t, sent, receive(t, atHost))
	assert.Equal(t, sent, receive(t, gotB))
	select {
	case s := <-gotA:
		t.Fatalf("sender got its own stroke back: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}

	local := stroke("host1")
	hub.Broadcast(local)
	assert.Equal(t, local, receive(t, gotA))
	assert.Equal(t, local, receive(t, gotB))
}

func TestHubDropsInvalidStrokes(t *testing.T) {
	hub := NewHub(nil)
	atHost := make(chan StrokeMessage, 4)
	hub.OnStroke = func(s StrokeMessage) { atHost <- s }
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a, _ := dialTest(t, srv)
	bad := stroke("bad")
	bad.Segment.Points = nil
	require.NoError(t, a.Send(bad))
	require.NoError(t, a.Send(stroke("good")))

	assert.Equal(t, "good", receive(t, atHost).ID)
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	hub := NewHub(nil)

	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- Serve(ctx, ln, "/ink", hub) }()

	url := HubURL(ln.Addr().String(), "ink")
	var c *Client
	require.Eventually(t, func() bool {
		c, err = Dial(t.Context(), url, nil)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return hub.peerCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Equal(t, 0, hub.peerCount())
	_ = c.Close()
}

func TestShareLinks(t *testing.T) {
	link := ShareLink("192.168.1.20", 8888)
	assert.Equal(t, "fadingink://192.168.1.20:8888", link)
	assert.True(t, IsShareLink(link))

	addr, err := ParseShareLink(link + "/")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:8888", addr)

	for _, bad := range []string{"http://x:1", "fadingink://nohost", "fadingink://h:port", "fadingink://h:99999"} {
		_, err := ParseShareLink(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "ws://h:1/ink", HubURL("h:1", "ink"))
	assert.Equal(t, "ws://h:1/ink", HubURL("h:1", "/ink"))
	assert.NotEmpty(t, OutgoingIP())
}

func TestStrokeMessageValidate(t *testing.T) {
	assert.NoError(t, stroke("x").Validate())
	assert.Error(t, StrokeMessage{Segment: stroke("x").Segment}.Validate())
	empty := stroke("x")
	empty.Segment.Points = nil
	assert.ErrorIs(t, empty.Validate(), errEmptyStroke)

	long := stroke("long")
	long.Segment.Points = make([]state.Point, MaxPoints)
	assert.NoError(t, long.Validate())
	long.Segment.Points = append(long.Segment.Points, state.Point{})
	assert.ErrorIs(t, long.Validate(), errTooManyPoints)
}

func TestHubDisconnectsOversizedMessages(t *testing.T) {
	hub := NewHub(nil)
	atHost := make(chan StrokeMessage, 4)
	hub.OnStroke = func(s StrokeMessage) { atHost <- s }
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a, _ := dialTest(t, srv)
	require.Eventually(t, func() bool { return hub.peerCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	huge := stroke("huge")
	huge.Segment.Points = make([]state.Point, 40000)
	for i := range huge.Segment.Points {
		huge.Segment.Points[i] = state.Point{X: 100000 + i, Y: 100000 + i}
	}
	_ = a.Send(huge)

	require.Eventually(t, func() bool { return hub.peerCount() == 0 }, 5*time.Second, 10*time.Millisecond)
	select {
	case s := <-atHost:
		t.Fatalf("oversized stroke delivered: %s", s.ID)
	default:
	}
}
