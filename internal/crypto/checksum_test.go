package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivationChecksum(t *testing.T) {
	cases := []struct {
		prefix string
		want   byte
	}{
		{"AAAAAAAAAAAAAAAAAAA", 'E'},
		{"ZZZZZZZZZZZZZZZZZZZ", 'U'},
		{"QRSTUVWXYZ234567ABC", 'T'},
		{"MWMTMWMTMWMTMWMTMWM", 'J'},
	}
	for _, c := range cases {
		got := ActivationChecksum(c.prefix)
		assert.Equalf(t, c.want, got, "checksum(%q)", c.prefix)
	}
}

func TestActivationChecksumRejectsWrongChecksum(t *testing.T) {
	// SC2: this prefix's correct checksum is 'E', not 'A'.
	assert.NotEqual(t, byte('A'), ActivationChecksum("AAAAAAAAAAAAAAAAAAA"))
}
