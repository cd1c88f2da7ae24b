package pagecount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The default layout budgets 3643 characters and change per page, so 3643
// still fits one page and 3644 spills onto a second.
const pageBudgetChars = 3643

func estimateTextString(s string) Result {
	return New().Estimate([]byte(s), "note.txt")
}

func TestTextEmpty(t *testing.T) {
	res := estimateTextString("")
	require.True(t, res.Known)
	assert.Equal(t, FormatText, res.Format)
	assert.Equal(t, 1, res.Pages)
}

func TestTextPageBoundary(t *testing.T) {
	res := estimateTextString(strings.Repeat("a", pageBudgetChars))
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)

	res = estimateTextString(strings.Repeat("a", pageBudgetChars+1))
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

func TestTextMultiplePages(t *testing.T) {
	res := estimateTextString(strings.Repeat("a", 5*pageBudgetChars))
	require.True(t, res.Known)
	assert.Equal(t, 5, res.Pages)
}

// Doubling short content does not change the estimate while it still fits
// inside one page's character budget.
func TestTextDoublingBelowBudget(t *testing.T) {
	content := strings.Repeat("lorem ipsum ", 100)
	require.Less(t, 2*len(content), pageBudgetChars+1)

	res := estimateTextString(content)
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)

	res = estimateTextString(content + content)
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)
}

// Characters are counted as runes, not bytes, so multibyte text paginates
// the same as ASCII of equal length.
func TestTextMultibyteRunes(t *testing.T) {
	res := estimateTextString(strings.Repeat("é", pageBudgetChars+1))
	require.True(t, res.Known)
	assert.Equal(t, 2, res.Pages)
}

// Invalid UTF-8 bytes are dropped rather than counted or rejected.
func TestTextInvalidBytesSkipped(t *testing.T) {
	data := append([]byte(strings.Repeat("a", pageBudgetChars)), 0xFF, 0xFE, 0xFF)
	res := New().Estimate(data, "binaryish.log")
	require.True(t, res.Known)
	assert.Equal(t, 1, res.Pages)
}

func TestValidRuneCount(t *testing.T) {
	assert.Equal(t, 0, validRuneCount(nil))
	assert.Equal(t, 5, validRuneCount([]byte("hello")))
	assert.Equal(t, 3, validRuneCount([]byte("héé")))
	assert.Equal(t, 2, validRuneCount([]byte{'a', 0xFF, 'b'}))
	// A replacement character in the input is a real rune, not an error.
	assert.Equal(t, 1, validRuneCount([]byte("�")))
}
