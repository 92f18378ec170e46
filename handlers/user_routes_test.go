package handlers

import "testing"

func TestClampLimit(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 10},
		{"abc", 10},
		{"0", 10},
		{"-5", 10},
		{"1", 1},
		{"25", 25},
		{"100", 100},
		{"5000", 100},
	}
	for _, c := range cases {
		if got := clampLimit(c.raw); got != c.want {
			t.Errorf("clampLimit(%q) = %d, want %d", c.raw, got, c.want)
		}
	}
}
