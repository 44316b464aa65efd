package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en-US", "en-US"},
		{"ko-KR", "ko-KR"},
		{"ko_KR.UTF-8", "ko-KR"},
		{"de_DE@euro", "de-DE"},
		{"C", fallbackLocale},
		{"POSIX", fallbackLocale},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveLocale(tt.in))
		})
	}
}
