package semantic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/poiesic/spelite/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe(t *testing.T) {
	w, err := NewWorker(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer w.Close()

	in := strings.NewReader("not json\n" +
		`{"id":"1","type":"PING"}` + "\n" +
		`{"id":"2","type":"SEARCH","query":"fire","documents":["Fireball"]}` + "\n")
	var out bytes.Buffer
	require.NoError(t, Serve(context.Background(), w, in, &out))

	var msgs []Message
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var m Message
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		msgs = append(msgs, m)
	}
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{ID: "1", Type: MessagePong}, msgs[0])
	assert.Equal(t, "2", msgs[1].ID)
	assert.Equal(t, MessageError, msgs[1].Type)
}

func TestStreamTransportDiscardsMalformed(t *testing.T) {
	in := strings.NewReader("garbage\n" + `{"id":"x","type":"PONG"}` + "\n")
	tr := NewStreamTransport(in, io.Discard, nil)

	var got []Message
	for m := range tr.Messages() {
		got = append(got, m)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)

	assert.ErrorIs(t, tr.Send(context.Background(), Request{Type: RequestPing}), ErrWorkerTerminated)
	assert.NoError(t, tr.Close())
}

func TestBridgeOverStream(t *testing.T) {
	ctx := context.Background()
	w, err := NewWorker(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer w.Close()

	reqR, reqW := io.Pipe()
	msgR, msgW := io.Pipe()
	served := make(chan error, 1)
	go func() {
		err := Serve(ctx, w, reqR, msgW)
		msgW.Close()
		served <- err
	}()

	b, err := NewBridge(NewStreamTransport(msgR, reqW, reqW.Close))
	require.NoError(t, err)

	require.NoError(t, b.Ping(ctx))
	ready, err := b.InitModel(ctx)
	require.NoError(t, err)
	assert.True(t, ready)

	results, err := b.Search(ctx, "bright streak of fire", spellDocs)
	require.NoError(t, err)
	require.Len(t, results, len(spellDocs))
	assert.Equal(t, 0, results[0].Index)

	require.NoError(t, b.Close())
	assert.NoError(t, <-served)
}
