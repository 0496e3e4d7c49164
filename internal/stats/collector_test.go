package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector()
	c.AddBytesScanned(1024)
	c.AddLinesIndexed(3)
	c.AddRequests(5)
	c.AddLinesServed(4)
	c.AddNotFound(1)
	c.AddBytesServed(128)
	c.SetBuildDuration(2 * time.Second)

	s := c.Snapshot()
	assert.Equal(t, int64(1024), s.BytesScanned)
	assert.Equal(t, int64(3), s.LinesIndexed)
	assert.Equal(t, int64(5), s.Requests)
	assert.Equal(t, int64(4), s.LinesServed)
	assert.Equal(t, int64(1), s.NotFound)
	assert.Equal(t, int64(128), s.BytesServed)
	assert.Equal(t, 2*time.Second, s.BuildDuration)
	assert.GreaterOrEqual(t, s.Uptime, time.Duration(0))
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{10 * 1024 * 1024 * 1024, "10.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}
