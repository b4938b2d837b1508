package sigcheck

import (
	"time"
)

// SignatureKind identifies one of the two independently versioned signature
// databases the check inspects.
type SignatureKind int

const (
	// Daily is the frequently updated daily signature database.
	Daily SignatureKind = iota
	// Main is the base signature database.
	Main
)

func (k SignatureKind) String() string {
	switch k {
	case Daily:
		return "daily"
	case Main:
		return "main"
	default:
		return "unknown"
	}
}

// SignatureVersions is for storing the parsed results of the signature versions
// published in ClamAV's TXT record.
type SignatureVersions struct {
	ClamAVVersion string
	MainVersion   uint64
	DailyVersion  uint64
	PublishedAt   time.Time
}

// SignatureInfo is for storing a signature file's metadata as reported by
// sigtool. Version is kept as the raw text so that it can be validated by
// the caller.
type SignatureInfo struct {
	File      string
	BuildTime time.Time
	Version   string
	MD5       string
	Verified  bool
}
