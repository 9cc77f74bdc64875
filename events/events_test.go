package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []Event
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) {
	r.events = append(r.events, e)
}

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiSkipsNilAndFansOut(t *testing.T) {
	a, b := &recordingPublisher{}, &recordingPublisher{}
	p := Multi(a, nil, b)

	p.Publish(context.Background(), New(MatchStarted, 3, nil))

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Equal(t, "tournament_3", a.events[0].Room())
}

func TestNATSPublisherSubjectAndPayload(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn, "arena.", discardLogger())

	p.Publish(context.Background(), New(MatchFinished, 42, map[string]int{"match_id": 7}))

	require.Len(t, conn.subjects, 1)
	assert.Equal(t, "arena.42.match_finished", conn.subjects[0])

	var decoded Event
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	assert.Equal(t, MatchFinished, decoded.Type)
	assert.Equal(t, 42, decoded.TournamentID)
}

func TestNATSPublisherDefaultPrefixAndErrorIsLogged(t *testing.T) {
	conn := &fakeConn{err: errors.New("connection closed")}
	p := NewNATSPublisher(conn, "", discardLogger())

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), New(TournamentStarted, 1, nil))
	})
	assert.Equal(t, "tournaments.1.tournament_started", conn.subjects[0])
}
