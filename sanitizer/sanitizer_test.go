package sanitizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy PolicyPreset
		input  string
		want   string
	}{
		{"raw passthrough", PolicyRaw, "a\tb<c>", "a\tb<c>"},
		{"txt clean", PolicyTxt, "plain text", "plain text"},
		{"txt newline", PolicyTxt, "line1\nline2", "line1<0a>line2"},
		{"txt tab", PolicyTxt, "a\tb", "a<09>b"},
		{"txt keeps unicode", PolicyTxt, "héllo 世界", "héllo 世界"},
		{"markup clean", PolicyMarkup, "nothing special", "nothing special"},
		{"markup entities", PolicyMarkup, `<a href="x">'&'</a>`, "&lt;a href=&quot;x&quot;&gt;&#39;&amp;&#39;&lt;/a&gt;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New().Policy(tt.policy)
			assert.Equal(t, tt.want, s.Sanitize(tt.input))
		})
	}
}

func TestCustomRules(t *testing.T) {
	t.Run("strip control", func(t *testing.T) {
		s := New().Rule(FilterControl, TransformStrip)
		assert.Equal(t, "ab", s.Sanitize("a\x00\x1bb"))
	})

	t.Run("first rule wins", func(t *testing.T) {
		s := New().
			Rule(FilterControl, TransformStrip).
			Rule(FilterNonPrintable, TransformHexEncode)
		assert.Equal(t, "ab", s.Sanitize("a\nb"))
	})

	t.Run("combined filters", func(t *testing.T) {
		s := New().Rule(FilterControl|FilterMarkupSpecial, TransformStrip)
		assert.Equal(t, "ab", s.Sanitize("<a\n>b"))
	})

	t.Run("no rules", func(t *testing.T) {
		assert.Equal(t, "a\nb", New().Sanitize("a\nb"))
	})

	t.Run("unknown policy ignored", func(t *testing.T) {
		assert.Equal(t, "<x>", New().Policy("unknown").Sanitize("<x>"))
	})
}

func TestConcurrentSanitize(t *testing.T) {
	s := New().Policy(PolicyMarkup)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, "&lt;b&gt;", s.Sanitize("<b>"))
			}
		}()
	}
	wg.Wait()
}

func BenchmarkSanitizeMarkup(b *testing.B) {
	s := New().Policy(PolicyMarkup)
	input := "[net] connection to <host> failed & will retry"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Sanitize(input)
	}
}
