package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRoundTrips(t *testing.T) {
	c := encoding.GetCodec("json")
	require.NotNil(t, c, "the json codec must be registered by this package's init")

	in := &PublishRequest{Entries: []PublishEntry{{Domain: "a.com", Url: "u1"}}}
	data, err := c.Marshal(in)
	require.NoError(t, err)

	out := new(PublishRequest)
	require.NoError(t, c.Unmarshal(data, out))
	require.Equal(t, in, out)
}
