package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRejection(t *testing.T) {
	require.True(t, IsRejection(ErrRateLimited))
	require.True(t, IsRejection(fmt.Errorf("%w: 1.234", ErrInvalidAmount)))
	require.False(t, IsRejection(ErrPersistence))
	require.False(t, IsRejection(ErrListingNotFound))
	require.False(t, IsRejection(nil))
}

func TestUserMessage(t *testing.T) {
	require.Equal(t, "You cannot bid on your own listing.", UserMessage(ErrSelfListingBid))
	require.Equal(t, "Could not process bid. Please try again.",
		UserMessage(fmt.Errorf("%w: %w", ErrPersistence, errors.New("deadlock"))))
	require.Equal(t, "Bid must be higher than the current highest bid.",
		UserMessage(errors.Join(ErrPersistence, ErrBelowCurrentBid)))
	require.Equal(t, "Something went wrong.", UserMessage(errors.New("boom")))
	require.Empty(t, UserMessage(nil))
}
