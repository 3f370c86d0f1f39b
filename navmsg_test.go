// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//

package gpsins

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreambleAndHOWOnAllOnesBuffer(t *testing.T) {
	assert := assert.New(t)
	buf := make([]byte, 300/8+1)
	for i := range buf {
		buf[i] = 0xFF
	}
	r := NewByteReader(buf)

	assert.Equal(0xFF, preamble(r))
	assert.Equal((1<<lenHOW)-1, how(r))
}
