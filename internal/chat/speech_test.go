package chat

import "testing"

func TestSpeechText(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{
			name:   "cut at heading",
			answer: "Dear friend,\n\nGod loves you.\n\n**Relevant Scriptures (సంబంధిత లేఖనాలు):**\n- John 3:16",
			want:   "Dear friend,\n\nGod loves you.",
		},
		{
			name:   "bold removed",
			answer: "**Opening**: peace be with you",
			want:   "Opening: peace be with you",
		},
		{
			name:   "no heading",
			answer: "  only an answer  ",
			want:   "only an answer",
		},
		{
			name:   "first heading wins",
			answer: "A Relevant Scriptures B Relevant Scriptures C",
			want:   "A",
		},
		{
			name:   "heading only",
			answer: "**Relevant Scriptures:** John 3:16",
			want:   "",
		},
		{
			name:   "empty",
			answer: "",
			want:   "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SpeechText(tc.answer); got != tc.want {
				t.Errorf("SpeechText(%q) = %q, want %q", tc.answer, got, tc.want)
			}
		})
	}
}
