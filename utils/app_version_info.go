package utils

// AppVersionInfo is a data structure that represents the version information
// we want to display to users.
type AppVersionInfo struct {
	AppName       string
	AppVersion    string
	GitCommitHash string
	UTCBuildTime  string
}

// String returns the single line printed for --version.
func (v AppVersionInfo) String() string {
	return v.AppName + " " + v.AppVersion
}
