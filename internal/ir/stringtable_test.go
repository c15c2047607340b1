package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringTableInterning(t *testing.T) {
	tbl := NewStringTable()

	h := tbl.Intern("hello")
	w := tbl.Intern("world")
	hAgain := tbl.Intern("hello")

	require.Equal(t, h, hAgain)
	require.NotEqual(t, h, w)

	got, err := tbl.Get(h)
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	got, err = tbl.Get(w)
	require.NoError(t, err)
	require.Equal(t, "world", got)

	got, err = tbl.Get(0)
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestStringTableEmptyStringIsZero(t *testing.T) {
	tbl := NewStringTable()
	require.Equal(t, StringId(0), tbl.Intern(""))
}

func TestStringTableOutOfRange(t *testing.T) {
	tbl := NewStringTable()
	_, err := tbl.Get(StringId(42))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestStringTableContains(t *testing.T) {
	tbl := NewStringTable()
	require.False(t, tbl.Contains("foo"))
	tbl.Intern("foo")
	require.True(t, tbl.Contains("foo"))
}

func TestStringTableClear(t *testing.T) {
	tbl := NewStringTable()
	tbl.Intern("a")
	tbl.Intern("b")
	require.Equal(t, 3, tbl.Size())

	tbl.Clear()
	require.Equal(t, 1, tbl.Size())
	require.Equal(t, StringId(1), tbl.Intern("a"))
}

func TestStringTableDenseIds(t *testing.T) {
	tbl := NewStringTable()
	a := tbl.Intern("a")
	b := tbl.Intern("b")
	c := tbl.Intern("c")
	require.Equal(t, StringId(1), a)
	require.Equal(t, StringId(2), b)
	require.Equal(t, StringId(3), c)
}
