package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	cases := map[string]struct {
		in, want string
	}{
		"nul and controls": {"ab\x00cd\x01\x02\n\txy", "abcd\n\txy"},
		"empty":            {"", ""},
		"crlf":             {"line one\r\nline two\rthree", "line one\nline two\nthree"},
		"blank runs":       {"para one\n\n\n\n\npara two", "para one\n\npara two"},
		"soft hyphen":      {"trans\u00adformer", "transformer"},
		"bom and c1":       {"\ufeffAttention\u0085 is all", "Attention is all"},
		"invalid utf8":     {"ok\xffok", "okok"},
		"outer space":      {"  \n title \n ", "title"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeText(tc.in))
		})
	}
}
