package browser

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFor(t *testing.T) {
	tests := []struct {
		goos     string
		wantArgs []string
		wantErr  bool
	}{
		{goos: "darwin", wantArgs: []string{"open", "https://example.com"}},
		{goos: "linux", wantArgs: []string{"xdg-open", "https://example.com"}},
		{goos: "windows", wantArgs: []string{"rundll32", "url.dll,FileProtocolHandler", "https://example.com"}},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			s := &System{goos: tt.goos, command: exec.Command}
			cmd, err := s.commandFor(" https://example.com ")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, cmd.Args)
		})
	}
}

func TestOpenRequiresURL(t *testing.T) {
	assert.Error(t, NewSystem().Open("  "))
}
