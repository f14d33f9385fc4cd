package mongostore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Tyrowin/coinchat/internal/chat"
)

// Error mapping runs without a server, unlike the store tests.

func TestFindUserError(t *testing.T) {
	req := require.New(t)

	req.ErrorIs(findUserError(mongo.ErrNoDocuments), chat.ErrNotFound)

	down := errors.New("connection refused")
	err := findUserError(down)
	req.ErrorIs(err, down)
	req.Equal(chat.KindUnknown, chat.KindOf(err))
}

func TestCreateUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected chat.Kind
	}{
		{
			name:     "duplicate username",
			err:      mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}},
			expected: chat.Conflict,
		},
		{
			name:     "other write error",
			err:      mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121, Message: "Document failed validation"}}},
			expected: chat.KindUnknown,
		},
		{
			name:     "network failure",
			err:      errors.New("connection reset"),
			expected: chat.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := createUserError(tt.err)
			require.Error(t, err)
			require.Equal(t, tt.expected, chat.KindOf(err))
		})
	}

	require.NoError(t, createUserError(nil))
}
