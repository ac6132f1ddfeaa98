package brest_test

import (
	"fmt"
	"testing"

	"github.com/advdv/brest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	err1 := brest.NewError(brest.CodeBadRequest, errors.New("foo"))
	require.Equal(t, brest.Code(400), err1.Code())
	require.Equal(t, brest.CodeBadRequest, brest.CodeOf(err1))
	require.Equal(t, "Bad Request: foo", err1.Error())
	require.Nil(t, err1.Allowed())

	require.Equal(t, brest.CodeUnknown, brest.CodeOf(errors.New("bar")))
	require.Equal(t, "Unknown: rab", brest.NewError(900, errors.New("rab")).Error())

	wrapped := fmt.Errorf("handler: %w", err1)
	require.Equal(t, brest.CodeBadRequest, brest.CodeOf(wrapped))
}

func TestErrorBufferFull(t *testing.T) {
	require.Equal(t, brest.CodeInsufficientStorage, brest.CodeOf(brest.ErrBufferFull))
	require.Equal(t, "Insufficient Storage: response buffer limit exceeded", brest.ErrBufferFull.Error())
}
