package targets

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAddress(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
		wantErr  bool
	}{
		{endpoint: "http://127.0.0.1:8000/v1/netconflogs", want: "127.0.0.1:8000"},
		{endpoint: "http://collector/v1/netconflogs", want: "collector:80"},
		{endpoint: "https://collector/v1/netconflogs", want: "collector:443"},
		{endpoint: "http://[::1]:8000/v1/netconflogs", want: "[::1]:8000"},
		{endpoint: "ftp://collector/x", wantErr: true},
		{endpoint: "/v1/netconflogs", wantErr: true},
		{endpoint: "http://%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			got, err := dialAddress(tt.endpoint)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollectorTarget_Check(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	endpoint := "http://" + addr + "/v1/netconflogs"
	var ups, downs int
	target := NewCollectorTarget(func() string { return endpoint }, CollectorCallbacks{
		OnUp:   func() { ups++ },
		OnDown: func() { downs++ },
	}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res := target.Check(ctx)
	assert.True(t, res.Healthy)
	assert.NoError(t, res.Error)
	assert.Equal(t, addr, target.Address())

	ln.Close()
	res = target.Check(ctx)
	assert.False(t, res.Healthy)
	assert.Error(t, res.Error)

	endpoint = "not a url"
	res = target.Check(ctx)
	assert.False(t, res.Healthy)

	target.OnUp()
	target.OnDown()
	assert.Equal(t, 1, ups)
	assert.Equal(t, 1, downs)
	assert.Equal(t, "collector", target.Name())
	assert.True(t, target.Critical())
}
