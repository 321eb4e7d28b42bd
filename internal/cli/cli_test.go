package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{
		{"start"},
		{"serve"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"worker", "run"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		require.NotNil(t, cmd.RunE, path)
	}

	down, _, err := root.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	require.NotNil(t, down.Flags().Lookup("steps"))
	require.NotNil(t, down.Flags().Lookup("all"))
}
