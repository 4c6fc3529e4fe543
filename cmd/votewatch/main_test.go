package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchURL(t *testing.T) {
	u := watchURL("api.example.com", 12, true, "abc")
	assert.Equal(t, "wss://api.example.com/ws/hilos/12?token=abc", u.String())

	u = watchURL("localhost:8080", 3, false, "")
	assert.Equal(t, "ws://localhost:8080/ws/hilos/3", u.String())
}

func TestVoteFeed_Format(t *testing.T) {
	var feed voteFeed
	line, ok := feed.format([]byte(`{"type":"hilo_vote_updated","payload":{"hilo_id":4,"vote_count":-2,"version":3}}`))
	assert.True(t, ok)
	assert.Contains(t, line, "hilo 4: -2")

	line, ok = feed.format([]byte(`{"error":"hilo not found"}`))
	assert.True(t, ok)
	assert.Equal(t, "error: hilo not found", line)

	_, ok = feed.format([]byte(`{"type":"dropped"}`))
	assert.False(t, ok)
	_, ok = feed.format([]byte(`not json`))
	assert.False(t, ok)
}

func TestVoteFeed_DropsStaleUpdates(t *testing.T) {
	var feed voteFeed

	// snapshot of a hilo nobody has voted on yet
	line, ok := feed.format([]byte(`{"type":"hilo_vote_updated","payload":{"hilo_id":1,"vote_count":0,"version":0}}`))
	require.True(t, ok)
	assert.Contains(t, line, "hilo 1: 0")

	line, ok = feed.format([]byte(`{"type":"hilo_vote_updated","payload":{"hilo_id":1,"vote_count":7,"version":7}}`))
	require.True(t, ok)
	assert.Contains(t, line, "hilo 1: 7")

	_, ok = feed.format([]byte(`{"type":"hilo_vote_updated","payload":{"hilo_id":1,"vote_count":6,"version":6}}`))
	assert.False(t, ok, "older version arriving late must not overwrite the newer count")
	_, ok = feed.format([]byte(`{"type":"hilo_vote_updated","payload":{"hilo_id":1,"vote_count":7,"version":7}}`))
	assert.False(t, ok)

	line, ok = feed.format([]byte(`{"type":"hilo_vote_updated","payload":{"hilo_id":1,"vote_count":8,"version":8}}`))
	require.True(t, ok)
	assert.Contains(t, line, "hilo 1: 8")
}
