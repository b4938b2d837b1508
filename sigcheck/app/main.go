package main

import (
	"os"
)

import (
	"github.com/dekobon/check-clamav-signatures/sigcheck"
	"github.com/dekobon/check-clamav-signatures/utils"
)

var githash = "unknown"
var buildstamp = "unknown"
var appversion = "1.2.0"

// Main entry point to the check application. The exit code follows the
// Nagios plugin convention.
func main() {
	appVersionInfo := utils.AppVersionInfo{
		AppName:       sigcheck.AppName,
		AppVersion:    appversion,
		GitCommitHash: githash,
		UTCBuildTime:  buildstamp,
	}

	os.Exit(sigcheck.Run(os.Args, appVersionInfo))
}
