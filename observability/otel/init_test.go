package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = secret ,broken,=nokey, tenant=cover ,")
	require.Equal(t, map[string]string{"api-key": "secret", "tenant": "cover"}, got)
	require.Empty(t, ParseHeaders(""))
}

func TestInitValidatesConfig(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)

	_, err = Init(context.Background(), Config{ServiceName: "cover", SampleRatio: 1.5})
	require.Error(t, err)
}

func TestInitWithoutSignalsIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "cover-gateway"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
