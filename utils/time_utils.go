package utils

import "time"

// ClamAVTimeLayout is the layout sigtool uses when printing build times.
const ClamAVTimeLayout = "02 Jan 2006 15:04 -0700"

// ParseClamAVTimeStamp parses a build time as printed by sigtool.
func ParseClamAVTimeStamp(timeString string) (time.Time, error) {
	return time.Parse(ClamAVTimeLayout, timeString)
}

// ParseUnixTimeStamp parses a count of seconds since the epoch as published
// in the ClamAV DNS TXT record.
func ParseUnixTimeStamp(seconds uint64) time.Time {
	return time.Unix(int64(seconds), 0).UTC()
}
