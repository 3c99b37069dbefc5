package cli

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"release build", "1.4.0"},
		{"dev build", "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := version
			SetVersion(tt.version)
			defer SetVersion(original)

			out, err := execute(t, "version")
			require.NoError(t, err)

			assert.Contains(t, out, "docugraph version "+tt.version)
			assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
		})
	}
}

func TestVersionCmd_NeedsNoServices(t *testing.T) {
	setupTestServices(t, nil)
	connected = nil

	_, err := execute(t, "version", "extra")
	assert.Error(t, err, "version takes no arguments")

	_, err = execute(t, "version")
	assert.NoError(t, err)
}
