package sigcheck

import (
	"path/filepath"
)

import (
	"github.com/dekobon/check-clamav-signatures/utils"
)

// Candidate file names in order of preference. The two kinds prefer
// opposite extensions.
var (
	dailyFilenames = []string{"daily.cld", "daily.cvd"}
	mainFilenames  = []string{"main.cvd", "main.cld"}
)

// SignatureFilenames returns the candidate file names for the given kind in
// order of preference.
func SignatureFilenames(kind SignatureKind) []string {
	switch kind {
	case Daily:
		return dailyFilenames
	case Main:
		return mainFilenames
	default:
		return nil
	}
}

// LocateSignature returns the path of the first candidate file for kind that
// exists in dataFilePath.
func LocateSignature(dataFilePath string, kind SignatureKind) (string, bool) {
	for _, filename := range SignatureFilenames(kind) {
		localFilePath := filepath.Join(dataFilePath, filename)

		if utils.Exists(localFilePath) && !utils.IsDir(localFilePath) {
			return localFilePath, true
		}
	}

	return "", false
}
