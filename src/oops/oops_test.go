package oops

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var SampleErrorValue = errors.New("some error occurred that you should handle")

type SampleErrorType struct {
	Message string
}

func (s SampleErrorType) Error() string {
	return s.Message
}

func init() {
	zerolog.ErrorStackMarshaler = ZerologStackMarshaler
}

func TestNew(t *testing.T) {
	t.Run("errors.Is", func(t *testing.T) {
		err := New(SampleErrorValue, "test error")
		assert.ErrorIs(t, err, SampleErrorValue)
	})
	t.Run("errors.As", func(t *testing.T) {
		err := New(SampleErrorType{Message: "some fancy error type has occurred"}, "test error")
		var sErr SampleErrorType
		assert.True(t, errors.As(err, &sErr))
	})
	t.Run("message", func(t *testing.T) {
		assert.Equal(t, "failed to load: some error occurred that you should handle", New(SampleErrorValue, "failed to %s", "load").Error())
		assert.Equal(t, "nothing wrapped", New(nil, "nothing wrapped").Error())
	})
	t.Run("stack starts at caller", func(t *testing.T) {
		err := New(nil, "boom").(*Error)
		if assert.NotEmpty(t, err.Stack) {
			assert.Contains(t, err.Stack[0].Function, "TestNew")
		}
	})
}

func TestStackMarshaler(t *testing.T) {
	inner := New(SampleErrorValue, "inner")
	outer := New(inner, "outer")

	assert.Equal(t, inner.(*Error).Stack, ZerologStackMarshaler(outer))
	assert.Nil(t, ZerologStackMarshaler(SampleErrorValue))
}
