package chat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	req := require.New(t)

	err := fmt.Errorf("handler: %w", E(InsufficientFunds, "chat.SendMessage", nil))
	req.Equal(InsufficientFunds, KindOf(err))
	req.ErrorIs(err, ErrInsufficientFunds)
	req.NotErrorIs(err, ErrUserNotFound)

	req.Equal(KindUnknown, KindOf(errors.New("plain")))
	req.Equal(KindUnknown, KindOf(nil))
}

func TestErrorUnwrapsCause(t *testing.T) {
	req := require.New(t)
	cause := errors.New("socket closed")

	err := E(StoreError, "store.SaveUser", cause)
	req.ErrorIs(err, cause)
	req.Equal("store.SaveUser: store error: socket closed", err.Error())
	req.Equal("op: not found", E(NotFound, "op", nil).Error())
}
