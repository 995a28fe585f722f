package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldContinue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.True(t, ShouldContinue(ctx))

	cancel()
	assert.False(t, ShouldContinue(ctx))
}

func TestContainsString(t *testing.T) {
	list := []string{"bullish", "bearish", "neutral"}

	assert.True(t, ContainsString(list, "bearish"))
	assert.False(t, ContainsString(list, "mixed"))
	assert.False(t, ContainsString(nil, "bearish"))
}

func TestCleanToValidUTF8(t *testing.T) {
	assert.Equal(t, "hello", CleanToValidUTF8("hel\x00lo"))
	assert.Equal(t, "ab", CleanToValidUTF8("a\xffb"))
	assert.Equal(t, "", CleanToValidUTF8(""))
}
