package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	tests := []struct {
		args []string
		use  string
	}{
		{[]string{"index"}, "index"},
		{[]string{"tools"}, "tools"},
		{[]string{"memory", "stats"}, "stats [sessionId]"},
		{[]string{"memory", "clear"}, "clear [sessionId]"},
		{[]string{"events", "tail"}, "tail"},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			cmd, _, err := RootCmd.Find(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.use, cmd.Use)
		})
	}
}

func TestMemoryStatsRequiresSession(t *testing.T) {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs([]string{"memory", "stats"})
	t.Cleanup(func() { RootCmd.SetArgs(nil) })

	err := RootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"chunks": 3}))
	assert.JSONEq(t, `{"chunks":3}`, buf.String())
}
