package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	SetLocales("en-US")

	assert.Equal("line 3 'x' bad", From("line %d '%v' %v", 3, "x", "bad"))
	assert.Equal("0041", From("%04X", 0x41))
}

func TestSetLocalesEmpty(t *testing.T) {
	assert := assert.New(t)

	SetLocales()
	assert.NotNil(printer)
	assert.Equal("halted", From("halted"))
}
