package schedule

import "testing"

func TestRewriteContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		failures int
		want     string
	}{
		{
			name:     "first failure leaves content untouched",
			content:  "Water the plants",
			failures: 1,
			want:     "Water the plants",
		},
		{
			name:     "second failure appends suffix only",
			content:  "Water the plants",
			failures: 2,
			want:     "Water the plants (Failed 2x)",
		},
		{
			name:     "third failure adds marker and suffix",
			content:  "Water the plants",
			failures: 3,
			want:     "\U0001F504Water the plants (Failed 3x)",
		},
		{
			name:     "old suffix is replaced, not accumulated",
			content:  "Water the plants (Failed 2x)",
			failures: 3,
			want:     "\U0001F504Water the plants (Failed 3x)",
		},
		{
			name:     "old marker and suffix are both stripped",
			content:  "\U0001F504Water the plants (Failed 3x)",
			failures: 4,
			want:     "\U0001F504Water the plants (Failed 4x)",
		},
		{
			name:     "stale annotations stripped when count is low",
			content:  "\U0001F504Water the plants (Failed 5x)",
			failures: 1,
			want:     "Water the plants",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteContent(tt.content, tt.failures); got != tt.want {
				t.Errorf("RewriteContent(%q, %d) = %q, want %q", tt.content, tt.failures, got, tt.want)
			}
		})
	}
}
