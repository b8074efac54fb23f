package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUndefinedByDefault(t *testing.T) {
	assert.False(t, IsDefined(Semver()))
	assert.False(t, IsDefined(Commit()))
}

func TestIsDefined(t *testing.T) {
	original := semver
	defer func() { semver = original }()

	semver = "v1.2.3"
	assert.True(t, IsDefined(Semver()))
	assert.Equal(t, "v1.2.3", Semver())
}
