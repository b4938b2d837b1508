package sigcheck

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

import (
	"github.com/hashicorp/errwrap"
)

func TestTypicalRecordParseTxtRecord(t *testing.T) {
	record := "0.99.2:58:23602:1501176540:1:63:46223:307"
	versions, err := parseTxtRecord(record)

	if err != nil {
		t.Fatalf("Failed to parse: %v\n%v", record, err)
	}

	if versions.ClamAVVersion != "0.99.2" {
		t.Errorf("Didn't parse ClamAV version correctly. Expected 0.99.2. "+
			"Actually: %v", versions.ClamAVVersion)
	}

	if versions.DailyVersion != 23602 {
		t.Errorf("Didn't parse daily version correctly. Expected 23602. "+
			"Actually: %v", versions.DailyVersion)
	}

	if versions.MainVersion != 58 {
		t.Errorf("Didn't parse main version correctly. Expected 58. "+
			"Actually: %v", versions.MainVersion)
	}

	expectedPublishedAt := time.Date(2017, time.July, 27, 17, 29, 0, 0, time.UTC)

	if !versions.PublishedAt.Equal(expectedPublishedAt) {
		t.Errorf("Didn't parse publish time correctly. Expected %v. "+
			"Actually: %v", expectedPublishedAt, versions.PublishedAt)
	}
}

func TestMinimalRecordParseTxtRecord(t *testing.T) {
	record := "0.0.0:1:2"
	versions, err := parseTxtRecord(record)

	if err != nil {
		t.Fatalf("Failed to parse: %v\n%v", record, err)
	}

	if versions.MainVersion != 1 || versions.DailyVersion != 2 {
		t.Errorf("Didn't parse versions correctly. Expected main=1 daily=2. "+
			"Actually: main=%v daily=%v", versions.MainVersion, versions.DailyVersion)
	}

	if !versions.PublishedAt.IsZero() {
		t.Errorf("Expected no publish time. Actually: %v", versions.PublishedAt)
	}
}

func TestInvalidTimestampParseTxtRecord(t *testing.T) {
	record := "0.103.8:62:27000:yesterday:1:90:49192:334"
	versions, err := parseTxtRecord(record)

	if err != nil {
		t.Fatalf("A malformed publish time should be ignored. %v", err)
	}

	if versions.DailyVersion != 27000 || !versions.PublishedAt.IsZero() {
		t.Errorf("Unexpected parse result: %+v", versions)
	}
}

func TestInvalidFieldsParseTxtRecord(t *testing.T) {
	cases := []struct {
		record string
		kind   SignatureKind
		prefix string
	}{
		{"", Daily, "Error parsing daily version"},
		{"1234567890123456789", Daily, "Error parsing daily version"},
		{"0.0.0:58", Daily, "Error parsing daily version"},
		{"0.0.0:1:BBBB:1:1:1:1:1", Daily, "Error parsing daily version"},
		{"0.0.0:1:-5:1", Daily, "Error parsing daily version"},
		{"0.0.0:1: 5:1", Daily, "Error parsing daily version"},
		{"0.0.0:AAA:1:1:1:1:1:1", Main, "Error parsing main version"},
		{"0.0.0::1", Main, "Error parsing main version"},
		{"0.0.0:AAA:BBB", Daily, "Error parsing daily version"},
	}

	for _, c := range cases {
		_, err := parseTxtRecord(c.record)

		if err == nil {
			t.Errorf("Expected error parsing record [%v]", c.record)
			continue
		}

		if !strings.HasPrefix(err.Error(), c.prefix) {
			t.Errorf("Record [%v]\nExpected error prefix: %v\nActual error: %v",
				c.record, c.prefix, err)
		}

		fieldErr, ok := errwrap.GetType(err, &versionFieldError{}).(*versionFieldError)

		if !ok {
			t.Errorf("Record [%v] error doesn't carry the invalid field: %v", c.record, err)
			continue
		}

		if fieldErr.Kind != c.kind {
			t.Errorf("Record [%v]\nExpected kind: %v\nActual kind  : %v",
				c.record, c.kind, fieldErr.Kind)
		}
	}
}

func TestParseVersion(t *testing.T) {
	valid := map[string]uint64{
		"0":                   0,
		"58":                  58,
		"23538":               23538,
		"007":                 7,
		"9223372036854775807": 9223372036854775807,
	}

	for value, expected := range valid {
		actual, err := parseVersion(value)

		if err != nil || actual != expected {
			t.Errorf("Expected [%v] to parse as %v. Actually: %v, %v", value, expected, actual, err)
		}
	}

	for _, value := range []string{"", " 58", "58\n", "5.8", "+58", "-1", "abc",
		"9223372036854775808", "18446744073709551615", "99999999999999999999999"} {
		if _, err := parseVersion(value); err == nil {
			t.Errorf("Expected [%q] to be rejected", value)
		}
	}
}

func TestNameserverAddress(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1":      "127.0.0.1:53",
		"127.0.0.1:5353": "127.0.0.1:5353",
		"ns.example.com": "ns.example.com:53",
		"::1":            "[::1]:53",
		"[::1]":          "[::1]:53",
		"[::1]:5353":     "[::1]:5353",
	}

	for nameserver, expected := range cases {
		if actual := nameserverAddress(nameserver); actual != expected {
			t.Errorf("Nameserver [%v]\nExpected: %v\nActual  : %v", nameserver, expected, actual)
		}
	}
}

func TestUnreachablePublishedRecord(t *testing.T) {
	source := &DNSVersionSource{
		Domain: DefaultDNSDomain,
		Resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				return nil, errors.New("network is unreachable")
			},
		},
	}

	_, err := source.PublishedRecord(context.Background())

	if err == nil {
		t.Fatal("Expected error resolving TXT record without a network")
	}

	if !strings.HasPrefix(err.Error(), "Unable to resolve TXT record for [current.cvd.clamav.net]") {
		t.Errorf("Expected error was not thrown. Actual error: %v", err)
	}
}

func TestSystemResolverNewDNSVersionSource(t *testing.T) {
	source := NewDNSVersionSource("example.com", "")

	if source.Resolver != net.DefaultResolver {
		t.Error("Expected the system resolver when no nameserver is given")
	}

	if custom := NewDNSVersionSource("example.com", "127.0.0.1"); custom.Resolver == net.DefaultResolver {
		t.Error("Expected a dedicated resolver when a nameserver is given")
	}
}
