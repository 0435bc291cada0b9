package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	assert.Equal(t, "@alice", Profile{ID: "1", Handle: "alice"}.Label())
	assert.Equal(t, "@bob", Node{ID: "2", Handle: "bob"}.Label())
	assert.Equal(t, "@", Node{ID: "3"}.Label())
}
