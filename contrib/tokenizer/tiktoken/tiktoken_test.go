package tiktoken

import "testing"

// The BPE ranks are fetched on first use, so the test skips when they are not
// reachable.
func TestCountTokens(t *testing.T) {
	tok, err := NewTiktokenTokenizer("")
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	if n := tok.CountTokens(""); n != 0 {
		t.Fatalf("expected 0 tokens for empty text, got %d", n)
	}
	short := tok.CountTokens("hello")
	long := tok.CountTokens("hello world, this is a somewhat longer sentence")
	if short < 1 || long <= short {
		t.Fatalf("unexpected counts: short=%d long=%d", short, long)
	}
}
