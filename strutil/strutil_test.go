// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package strutil

import "testing"

func TestIsValidIPAddress(t *testing.T) {
	valid := []string{
		"192.168.1.1", "10.0.0.1", "172.16.0.1", "8.8.8.8",
		"127.0.0.1", "255.255.255.255", "0.0.0.0", "1.2.3.4",
		"192.0.2.1", "198.51.100.1",
		"2001:0db8:85a3:0000:0000:8a2e:0370:7334",
		"fe80:0000:0000:0000:0204:61ff:fe9d:f156",
		"2001:db8:85a3::8a2e:370:7334", "fe80::204:61ff:fe9d:f156",
		"::1", "::",
		"::ffff:192.168.1.1", "::ffff:c0a8:0101",
		"fe80::1",
	}
	for _, s := range valid {
		if !IsValidIPAddress(s) {
			t.Errorf("IsValidIPAddress(%q) = false, want true", s)
		}
	}

	invalid := []string{
		"",
		"256.1.1.1", "1.1.1", "1.1.1.1.1", "abc.def.ghi.jkl", "192.168.-1.1",
		"gggg::1", "2001:db8:::1", "2001:db8:85a3::8a2e:370g:7334",
		"localhost", "example.com", "www.google.com",
		"192.168.1.1:8080", "[::1]:8080",
	}
	for _, s := range invalid {
		if IsValidIPAddress(s) {
			t.Errorf("IsValidIPAddress(%q) = true, want false", s)
		}
	}
}

func TestValidateAndNormalizeIP(t *testing.T) {
	cases := []struct{ in, want string }{
		{"192.168.1.1", "192.168.1.1"},
		{"127.0.0.1", "127.0.0.1"},
		{"2001:0db8:0000:0000:0000:0000:0000:0001", "2001:db8::1"},
		{"2001:db8::1", "2001:db8::1"},
		{"::1", "::1"},
		{"::", "::"},
	}
	for _, c := range cases {
		got, ok := ValidateAndNormalizeIP(c.in)
		if !ok {
			t.Errorf("ValidateAndNormalizeIP(%q): not ok", c.in)
			continue
		}
		if got != c.want {
			t.Errorf("ValidateAndNormalizeIP(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	if got, ok := ValidateAndNormalizeIP("::ffff:192.168.1.1"); !ok || !contains(got, "192.168.1.1") {
		t.Errorf("ValidateAndNormalizeIP(::ffff:192.168.1.1) = %q, ok=%v, want substring 192.168.1.1", got, ok)
	}

	for _, s := range []string{"", "256.1.1.1", "1.1.1", "gggg::1", "example.com"} {
		if _, ok := ValidateAndNormalizeIP(s); ok {
			t.Errorf("ValidateAndNormalizeIP(%q): expected not ok", s)
		}
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}

func TestParseIPPort(t *testing.T) {
	cases := []struct {
		in       string
		wantIP   string
		wantPort uint16
	}{
		{"192.168.1.1:8080", "192.168.1.1", 8080},
		{"127.0.0.1:9590", "127.0.0.1", 9590},
		{"10.0.0.1:1", "10.0.0.1", 1},
		{"10.0.0.1:65535", "10.0.0.1", 65535},
		{"10.0.0.1:53", "10.0.0.1", 53},
		{"10.0.0.1:80", "10.0.0.1", 80},
		{"10.0.0.1:443", "10.0.0.1", 443},
		{"[2001:db8::1]:8080", "2001:db8::1", 8080},
		{"[::1]:9590", "::1", 9590},
		{"[2001:0db8:85a3:0000:0000:8a2e:0370:7334]:8333", "2001:db8:85a3::8a2e:370:7334", 8333},
		{"[fe80::1]:8080", "fe80::1", 8080},
		{"192.168.1.1:0080", "192.168.1.1", 80},
	}
	for _, c := range cases {
		ip, port, ok := ParseIPPort(c.in)
		if !ok {
			t.Errorf("ParseIPPort(%q): not ok", c.in)
			continue
		}
		if ip != c.wantIP || port != c.wantPort {
			t.Errorf("ParseIPPort(%q) = (%q, %d), want (%q, %d)", c.in, ip, port, c.wantIP, c.wantPort)
		}
	}

	if ip, port, ok := ParseIPPort("[::ffff:192.168.1.1]:8080"); !ok || port != 8080 {
		t.Errorf("ParseIPPort(IPv4-mapped) = (%q, %d, %v), want port 8080", ip, port, ok)
	}
}

func TestParseIPPortRejectsInvalid(t *testing.T) {
	invalid := []string{
		"",
		"192.168.1.1", "2001:db8::1",
		"192.168.1.1:0",
		"192.168.1.1:-1",
		"192.168.1.1:65536", ":99999",
		":abc", ":80x",
		"192.168.1.1 8080",
		"192.168.1.1:8080:9590",
		"2001:db8::1:8080",
		"[2001:db8::1:8080", "2001:db8::1]:8080",
		"256.1.1.1:8080", "1.1.1:8080",
		"[gggg::1]:8080", "[2001:db8:::1]:8080",
		"localhost:8080", "example.com:8080",
		"http://192.168.1.1:8080", "192.168.1.1:8080/path",
		"[]:8080",
		" 192.168.1.1:8080", "192.168.1.1:8080 ", "192.168.1.1 : 8080",
	}
	for _, s := range invalid {
		if _, _, ok := ParseIPPort(s); ok {
			t.Errorf("ParseIPPort(%q): expected not ok", s)
		}
	}

	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'x'
	}
	if _, _, ok := ParseIPPort(string(long)); ok {
		t.Fatalf("ParseIPPort(long garbage): expected not ok")
	}
}

func TestNormalizeAddress(t *testing.T) {
	cases := []struct{ in, want string }{
		{"127.0.0.1", "127.0.0.1:8444"},
		{"127.0.0.1:1234", "127.0.0.1:1234"},
		{":8444", ":8444"},
		{"[::1]", "[::1]:8444"},
		{"[::1]:1234", "[::1]:1234"},
		{"2001:db8::1", "[2001:db8::1]:8444"},
	}
	for _, c := range cases {
		got, err := NormalizeAddress(c.in, "8444")
		if err != nil {
			t.Errorf("NormalizeAddress(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeAddressRejectsInvalid(t *testing.T) {
	invalid := []string{
		"example.com", "example.com:8444",
		"192.168.1.1:0", "192.168.1.1:99999", "192.168.1.1:abc",
		"256.1.1.1",
	}
	for _, s := range invalid {
		if _, err := NormalizeAddress(s, "8444"); err == nil {
			t.Errorf("NormalizeAddress(%q): expected an error", s)
		}
	}
}

func TestParseByteSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100", 100},
		{"10MB", 10_000_000},
		{"1KiB", 1024},
		{"2GiB", 2 * 1024 * 1024 * 1024},
	}
	for _, c := range cases {
		got, err := ParseByteSize(c.in)
		if err != nil {
			t.Fatalf("ParseByteSize(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseByteSizeRejectsGarbage(t *testing.T) {
	if _, err := ParseByteSize("abc"); err == nil {
		t.Fatalf("expected an error for a non-numeric size")
	}
	if _, err := ParseByteSize("10XB"); err == nil {
		t.Fatalf("expected an error for an unknown unit")
	}
}
