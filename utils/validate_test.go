package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	for _, ok := range []string{"a@b.co", "first.last+tag@mail.example.org", " padded@example.com "} {
		assert.True(t, IsValidEmail(ok), ok)
	}
	for _, bad := range []string{"", "plain", "a@b", "@example.com", "a b@example.com", "a@example.c"} {
		assert.False(t, IsValidEmail(bad), bad)
	}
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}

func TestIsValidPassword(t *testing.T) {
	assert.False(t, IsValidPassword("12345"))
	assert.True(t, IsValidPassword("123456"))
	assert.True(t, IsValidPassword(strings.Repeat("x", 72)))
	assert.False(t, IsValidPassword(strings.Repeat("x", 73)))
}

func TestWithinLength(t *testing.T) {
	assert.True(t, WithinLength(strings.Repeat("a", 100), 100))
	assert.False(t, WithinLength(strings.Repeat("a", 101), 100))
	assert.True(t, WithinLength(strings.Repeat("é", 100), 100), "counts characters, not bytes")
	assert.True(t, WithinLength("  "+strings.Repeat("a", 100)+"  ", 100), "surrounding space is trimmed")
	assert.False(t, WithinLength("   ", 100))
	assert.False(t, WithinLength("", 100))
}

func TestParseEventDate(t *testing.T) {
	want := time.Date(2030, 5, 17, 18, 30, 0, 0, time.UTC)

	for _, in := range []string{"2030-05-17T18:30:00Z", "2030-05-17T20:30:00+02:00", "2030-05-17T18:30", "2030-05-17 18:30", "2030-05-17T18:30:00"} {
		got, err := ParseEventDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	got, err := ParseEventDate("2030-05-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 17, 0, 0, 0, 0, time.UTC), got)

	for _, bad := range []string{"", "tomorrow", "17/05/2030", "2030-13-01"} {
		_, err := ParseEventDate(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestPaging(t *testing.T) {
	tests := []struct {
		limit, offset     string
		wantLim, wantOffs int
	}{
		{"", "", 20, 0},
		{"5", "10", 5, 10},
		{"0", "-3", 20, 0},
		{"500", "2", 100, 2},
		{"abc", "xyz", 20, 0},
	}
	for _, tt := range tests {
		l, o := Paging(tt.limit, tt.offset, 20, 100)
		assert.Equal(t, tt.wantLim, l, "limit %q", tt.limit)
		assert.Equal(t, tt.wantOffs, o, "offset %q", tt.offset)
	}
}
