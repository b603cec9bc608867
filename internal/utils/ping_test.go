package utils

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceAddress(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"http://render.local/render", "render.local:80"},
		{"https://render.local", "render.local:443"},
		{"http://127.0.0.1:8080/x", "127.0.0.1:8080"},
		{"tcp://db:5432", "db:5432"},
		{"grpc://db", "db:80"},
	}
	for _, tt := range tests {
		address, err := ServiceAddress(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.expected, address, tt.url)
	}

	_, err := ServiceAddress("/no/host")
	assert.Error(t, err)
	_, err = ServiceAddress("http://[::1")
	assert.Error(t, err)
}

func TestPingService(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := "http://" + listener.Addr().String()

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	assert.NoError(t, PingService(url, time.Second))

	require.NoError(t, listener.Close())
	assert.Error(t, PingService(url, time.Second))
}
