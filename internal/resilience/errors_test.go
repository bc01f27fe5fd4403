package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestUpstream_ErrorMessage(t *testing.T) {
	err := Upstream("gleif", 503, []byte(`{"error":"maintenance"}`))
	assert.EqualError(t, err, `gleif: unexpected status 503: {"error":"maintenance"}`)
}

func TestUpstream_TrimsLongBody(t *testing.T) {
	body := strings.Repeat("x", 4096)
	err := Upstream("serp", 500, []byte(body))

	var upstream *UpstreamStatusError
	assert.ErrorAs(t, err, &upstream)
	assert.Len(t, upstream.Body, maxBodySnippet)
}

func TestIsTransient_UpstreamStatus(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{408, true},
		{429, true},
		{500, true},
		{502, true},
		{504, true},
		{400, false},
		{401, false},
		{404, false},
		{422, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := Upstream("companies_house", tt.status, []byte("body"))
			assert.Equal(t, tt.want, IsTransient(err))
		})
	}
}

func TestIsTransient_WrappedUpstreamStatus(t *testing.T) {
	err := eris.Wrap(Upstream("gdelt", 429, nil), "gdelt: list articles")
	assert.True(t, IsTransient(err))

	err = eris.Wrap(Upstream("gdelt", 404, nil), "gdelt: list articles")
	assert.False(t, IsTransient(err))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline reached" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient_NetworkTimeout(t *testing.T) {
	assert.True(t, IsTransient(timeoutErr{}))
	assert.True(t, IsTransient(fmt.Errorf("do request: %w", timeoutErr{})))
}

func TestIsTransient_DNS(t *testing.T) {
	assert.True(t, IsTransient(&net.DNSError{Err: "server misbehaving", IsTemporary: true}))
	assert.True(t, IsTransient(&net.DNSError{Err: "no such host", IsNotFound: true}))
	assert.False(t, IsTransient(&net.DNSError{Err: "invalid name"}))
}

func TestIsTransient_ConnectionErrors(t *testing.T) {
	assert.True(t, IsTransient(syscall.ECONNRESET))
	assert.True(t, IsTransient(syscall.ECONNREFUSED))
	assert.True(t, IsTransient(syscall.EPIPE))
	assert.True(t, IsTransient(errors.New("net/http: TLS handshake timeout")))
}

func TestIsTransient_PermanentErrors(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("invalid registry payload")))
	assert.False(t, IsTransient(eris.New("sourcing: gleif bulk upsert")))
}
