package sigcheck

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

import (
	"github.com/hashicorp/errwrap"
)

import (
	"github.com/dekobon/check-clamav-signatures/utils"
)

// DefaultDNSDomain is the domain ClamAV publishes the current signature
// versions on.
const DefaultDNSDomain = "current.cvd.clamav.net"

var versionPattern = regexp.MustCompile(`^[0-9]+$`)

// PublishedVersionSource retrieves the record describing the currently
// published signature versions.
type PublishedVersionSource interface {
	PublishedRecord(ctx context.Context) (string, error)
}

// DNSVersionSource is a PublishedVersionSource that reads the TXT record
// ClamAV publishes in DNS.
type DNSVersionSource struct {
	Domain   string
	Resolver *net.Resolver
}

// NewDNSVersionSource creates a source for the given domain. When nameserver
// is empty the system resolver is used, otherwise every query is sent to it.
func NewDNSVersionSource(domain string, nameserver string) *DNSVersionSource {
	source := &DNSVersionSource{Domain: domain, Resolver: net.DefaultResolver}

	if nameserver != "" {
		address := nameserverAddress(nameserver)
		dialer := net.Dialer{}

		source.Resolver = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
				return dialer.DialContext(ctx, network, address)
			},
		}
	}

	return source
}

// Function that appends the default DNS port to a nameserver that doesn't
// specify one.
func nameserverAddress(nameserver string) string {
	if _, _, err := net.SplitHostPort(nameserver); err == nil {
		return nameserver
	}

	return net.JoinHostPort(strings.Trim(nameserver, "[]"), "53")
}

// PublishedRecord retrieves the value of the DNS TXT record published by
// ClamAV.
func (d *DNSVersionSource) PublishedRecord(ctx context.Context) (string, error) {
	mirrorTxtRecords, err := d.Resolver.LookupTXT(ctx, d.Domain)

	if err != nil {
		msg := fmt.Sprintf("Unable to resolve TXT record for [%v]. {{err}}", d.Domain)
		return "", errwrap.Wrapf(msg, err)
	}

	if len(mirrorTxtRecords) < 1 {
		return "", fmt.Errorf("No TXT records returned for [%v]", d.Domain)
	}

	return mirrorTxtRecords[0], nil
}

// Function that parses the DNS TXT record published by ClamAV for the latest
// signature versions. The record is colon delimited, for example:
//
//	0.103.8:62:27000:1690000000:1:90:49192:334
//
// Field 2 is the main version and field 3 the daily version. The daily
// version is validated first.
func parseTxtRecord(mirrorTxtRecord string) (SignatureVersions, error) {
	var versions SignatureVersions

	s := strings.Split(strings.TrimSpace(mirrorTxtRecord), ":")

	daily, err := parseVersionField(s, 2, Daily)

	if err != nil {
		return versions, errwrap.Wrapf("Error parsing daily version. {{err}}", err)
	}

	mainv, err := parseVersionField(s, 1, Main)

	if err != nil {
		return versions, errwrap.Wrapf("Error parsing main version. {{err}}", err)
	}

	versions = SignatureVersions{
		ClamAVVersion: s[0],
		MainVersion:   mainv,
		DailyVersion:  daily,
	}

	// The publish time is informational only
	if len(s) > 3 && versionPattern.MatchString(s[3]) {
		if seconds, err := strconv.ParseUint(s[3], 10, 64); err == nil {
			versions.PublishedAt = utils.ParseUnixTimeStamp(seconds)
		}
	}

	return versions, nil
}

func parseVersionField(fields []string, index int, kind SignatureKind) (uint64, error) {
	value := ""

	if index < len(fields) {
		value = fields[index]
	}

	version, err := parseVersion(value)

	if err != nil {
		return 0, errwrap.Wrap(&versionFieldError{Kind: kind, Value: value}, err)
	}

	return version, nil
}

// Function that converts a version to an integer, accepting only strings of
// ASCII digits. Versions must fit in an int64 so that deltas between them
// never overflow.
func parseVersion(value string) (uint64, error) {
	if !versionPattern.MatchString(value) {
		return 0, fmt.Errorf("Version [%v] is not numeric", value)
	}

	version, err := strconv.ParseInt(value, 10, 64)

	if err != nil {
		msg := fmt.Sprintf("Error converting [%v] to 64-bit integer. {{err}}", value)
		return 0, errwrap.Wrapf(msg, err)
	}

	return uint64(version), nil
}
