package utils

import (
	"os"
)

import (
	"golang.org/x/sys/unix"
)

// Exists function that determines if a given path exists.
func Exists(filePath string) (exists bool) {
	exists = true

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		exists = false
	}

	return exists
}

// IsDir function that determines if a given path exists and is a directory.
func IsDir(filePath string) bool {
	stat, err := os.Stat(filePath)

	if err != nil {
		return false
	}

	return stat.IsDir()
}

// IsExecutable function that determines if a given path is a regular file
// that the current user can execute.
func IsExecutable(filePath string) bool {
	stat, err := os.Stat(filePath)

	if err != nil || !stat.Mode().IsRegular() {
		return false
	}

	return unix.Access(filePath, unix.X_OK) == nil
}
