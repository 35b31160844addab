package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion_PrefersLdflags(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	Version = "v1.2.3"
	assert.Equal(t, "v1.2.3", GetVersion())
}

func TestGetShortVersion(t *testing.T) {
	originalVersion, originalCommit := Version, GitCommit
	t.Cleanup(func() {
		Version = originalVersion
		GitCommit = originalCommit
	})

	Version = "v1.2.3"

	GitCommit = ""
	assert.Equal(t, "v1.2.3", GetShortVersion())

	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v1.2.3-0123456", GetShortVersion())
}

func TestGet(t *testing.T) {
	info := Get()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}
