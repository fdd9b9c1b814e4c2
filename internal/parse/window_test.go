package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWindow(t *testing.T) {
	now := time.Date(2024, 7, 1, 15, 30, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		from      string
		until     string
		expected  Window
		expectErr bool
	}{
		{
			name: "defaults to eight weeks from today",
			expected: Window{
				From:  time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
				Until: time.Date(2024, 8, 26, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "explicit from keeps eight week span",
			from: "2024-09-01",
			expected: Window{
				From:  time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
				Until: time.Date(2024, 10, 27, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "explicit range",
			from:  "2024-09-01",
			until: "2024-09-15",
			expected: Window{
				From:  time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
				Until: time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:      "malformed from",
			from:      "01/09/2024",
			expectErr: true,
		},
		{
			name:      "malformed until",
			until:     "next week",
			expectErr: true,
		},
		{
			name:      "inverted range",
			from:      "2024-09-15",
			until:     "2024-09-01",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			window, err := ParseWindow(tc.from, tc.until, now)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, window)
			}
		})
	}
}
