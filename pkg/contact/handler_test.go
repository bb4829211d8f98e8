package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	got []Submission
	err error
}

func (m *memSink) Submit(_ context.Context, s Submission) error {
	if m.err != nil {
		return m.err
	}
	m.got = append(m.got, s)
	return nil
}

type panicSink struct{}

func (panicSink) Submit(context.Context, Submission) error { panic("sink exploded") }

func post(t *testing.T, h *Handler, body string) (int, response) {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)

	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), "body: %s", rr.Body.String())
	return rr.Code, resp
}

const valid = `{"name":"Ana","email":"ana@example.es","eventDate":"2026-06-20","location":"Madrid","route":"Iglesia - finca","message":"Hola"}`

func TestAccepted(t *testing.T) {
	sink := &memSink{}
	h := NewHandler(sink, nil)
	h.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	code, resp := post(t, h, valid)
	assert.Equal(t, 200, code)
	assert.True(t, resp.Success)
	assert.Equal(t, MsgAccepted, resp.Message)

	require.Len(t, sink.got, 1)
	s := sink.got[0]
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, "Iglesia - finca", s.Route)
	assert.Equal(t, time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC), s.Received)
}

func TestInvalidEmailNeverReachesSink(t *testing.T) {
	sink := &memSink{}
	h := NewHandler(sink, nil)

	code, resp := post(t, h, `{"name":"Ana","email":"not-an-email","eventDate":"2026-06-20","location":"Madrid"}`)
	assert.Equal(t, 400, code)
	assert.Equal(t, MsgEmail, resp.Error)
	assert.False(t, resp.Success)
	assert.Empty(t, sink.got)
}

func TestMissingFields(t *testing.T) {
	for name, body := range map[string]string{
		"no name":     `{"email":"ana@example.es","eventDate":"2026-06-20","location":"Madrid"}`,
		"empty place": `{"name":"Ana","email":"ana@example.es","eventDate":"2026-06-20","location":""}`,
		"no date":     `{"name":"Ana","email":"ana@example.es","location":"Madrid"}`,
		"no email":    `{"name":"Ana","eventDate":"2026-06-20","location":"Madrid"}`,
		"empty":       `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			sink := &memSink{}
			code, resp := post(t, NewHandler(sink, nil), body)
			assert.Equal(t, 400, code)
			assert.Equal(t, MsgMissing, resp.Error)
			assert.Empty(t, sink.got)
		})
	}
}

func TestValuesAreCheckedAsSubmitted(t *testing.T) {
	sink := &memSink{}
	h := NewHandler(sink, nil)

	code, resp := post(t, h, `{"name":"Ana","email":" ana@example.es ","eventDate":"2026-06-20","location":"Madrid"}`)
	assert.Equal(t, 400, code)
	assert.Equal(t, MsgEmail, resp.Error)
	assert.Empty(t, sink.got)

	code, resp = post(t, h, `{"name":"   ","email":"ana@example.es","eventDate":"2026-06-20","location":" Madrid "}`)
	assert.Equal(t, 200, code)
	assert.True(t, resp.Success)
	require.Len(t, sink.got, 1)
	assert.Equal(t, "   ", sink.got[0].Name)
	assert.Equal(t, " Madrid ", sink.got[0].Location)
}

func TestMissingBeatsBadEmail(t *testing.T) {
	err := NewValidator().Validate(&Submission{Email: "nope"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, MsgMissing, ve.Message)
	assert.ElementsMatch(t, []string{"name", "eventDate", "location"}, ve.Fields)
}

func TestEmailPattern(t *testing.T) {
	v := NewValidator()
	for email, ok := range map[string]bool{
		"a@b.co":          true,
		"novios@boda.es":  true,
		"a.b+c@d.e.f":     true,
		"no-at.example":   false,
		"a@nodot":         false,
		"a b@example.com": false,
		"@example.com":    false,
	} {
		s := &Submission{Name: "n", Email: email, EventDate: "d", Location: "l"}
		err := v.Validate(s)
		assert.Equal(t, ok, err == nil, "email %q: %v", email, err)
	}
}

func TestMalformedBody(t *testing.T) {
	sink := &memSink{}
	code, resp := post(t, NewHandler(sink, nil), `{"name":`)
	assert.Equal(t, 400, code)
	assert.Equal(t, MsgBadBody, resp.Error)
	assert.Empty(t, sink.got)
}

func TestSinkFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHandler(&memSink{err: errors.New("smtp down")}, reg)

	code, resp := post(t, h, valid)
	assert.Equal(t, 500, code)
	assert.Equal(t, MsgInternal, resp.Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.outcomes.WithLabelValues("error")))

	code, resp = post(t, NewHandler(panicSink{}, nil), valid)
	assert.Equal(t, 500, code)
	assert.Equal(t, MsgInternal, resp.Error)
}

func TestOutcomeMetrics(t *testing.T) {
	h := NewHandler(LogSink{}, prometheus.NewRegistry())
	post(t, h, valid)
	post(t, h, `{}`)
	post(t, h, `{}`)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.outcomes.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.outcomes.WithLabelValues("invalid")))
}
