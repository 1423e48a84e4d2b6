package channel

import "testing"

func TestStripMarkdown(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "*Hello* _there_ ~friend~ `code`", want: "Hello there friend code"},
		{in: "no markup at all", want: "no markup at all"},
		{in: "**double** __markers__", want: "double markers"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := StripMarkdown(tc.in); got != tc.want {
			t.Fatalf("StripMarkdown(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStripMarkdownIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"*a* _b_", "plain", "`x` ~y~ *z*", "nested *_~`mess`~_*"}
	for _, in := range inputs {
		once := StripMarkdown(in)
		if twice := StripMarkdown(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
