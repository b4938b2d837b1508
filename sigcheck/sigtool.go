package sigcheck

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

import (
	"github.com/hashicorp/errwrap"
	"go.uber.org/zap"
)

import (
	"github.com/dekobon/check-clamav-signatures/utils"
)

// VersionReader extracts metadata, and in particular the version, from an
// installed signature file.
type VersionReader interface {
	ReadSignatureInfo(ctx context.Context, localFilePath string) (SignatureInfo, error)
}

// SigtoolReader is a VersionReader backed by the ClamAV sigtool executable.
type SigtoolReader struct {
	SigtoolPath string
	Logger      *zap.SugaredLogger
}

// ReadSignatureInfo runs sigtool -i against the given file and parses the
// metadata it prints.
func (s *SigtoolReader) ReadSignatureInfo(ctx context.Context, localFilePath string) (SignatureInfo, error) {
	info := SignatureInfo{}
	metadata, err := s.readMetadataFromSigtool(ctx, localFilePath)

	if err != nil {
		return info, err
	}

	info.File = metadata["file"]
	info.Version = metadata["version"]
	info.MD5 = metadata["md5"]
	info.Verified = metadata[verifiedKey] == "true"

	if buildTime, present := metadata["build time"]; present {
		parsed, err := utils.ParseClamAVTimeStamp(buildTime)

		if err != nil {
			s.logger().Debugf("Unable to parse build time [%v] of file [%v]: %v",
				buildTime, localFilePath, err)
		} else {
			info.BuildTime = parsed.UTC()
		}
	}

	if !info.Verified {
		s.logger().Debugf("The file [%v] was not reported as verified by sigtool",
			localFilePath)
	}

	return info, nil
}

func (s *SigtoolReader) logger() *zap.SugaredLogger {
	if s.Logger == nil {
		return zap.NewNop().Sugar()
	}

	return s.Logger
}

func (s *SigtoolReader) readMetadataFromSigtool(ctx context.Context, localFilePath string) (map[string]string, error) {
	cmd := exec.CommandContext(ctx, s.SigtoolPath, "-i", localFilePath)
	stdout, err := cmd.StdoutPipe()

	if err != nil {
		return nil, errwrap.Wrapf("Error instantiating sigtool command. {{err}}", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errwrap.Wrapf("Error running sigtool. {{err}}", err)
	}

	metadata, parseErr := parseMetadata(stdout)

	// Drain anything left so that sigtool is never blocked on a full pipe
	io.Copy(io.Discard, stdout)

	if err := cmd.Wait(); err != nil {
		msg := fmt.Sprintf("Error running sigtool against [%v]. {{err}}", localFilePath)
		return nil, errwrap.Wrapf(msg, err)
	}

	if parseErr != nil {
		return nil, parseErr
	}

	return metadata, nil
}

const verifiedKey = "verification ok"

// Function that parses the "Key: value" lines printed by sigtool -i into a
// map keyed by the lower cased key.
func parseMetadata(reader io.Reader) (map[string]string, error) {
	delim := ":"
	scanner := bufio.NewScanner(reader)
	entries := make(map[string]string)

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "Verification OK") {
			entries[verifiedKey] = "true"
			continue
		}

		parts := strings.SplitN(line, delim, 2)

		if len(parts) < 2 {
			continue
		}

		entries[strings.ToLower(strings.TrimSpace(parts[0]))] = strings.TrimSpace(parts[1])
	}

	if err := scanner.Err(); err != nil {
		return nil, errwrap.Wrapf("Error parsing sigtool output. {{err}}", err)
	}

	return entries, nil
}

// FindExecutable finds the path to a utility on the local system. The
// current directory is searched first followed by each element of envPath.
func FindExecutable(execName string, envPath string) (string, error) {
	separator := string(os.PathSeparator)
	localPath := "." + separator + execName

	if utils.IsExecutable(localPath) {
		execPath, err := filepath.Abs(localPath)

		if err == nil {
			return execPath, nil
		}
	}

	for _, pathElement := range filepath.SplitList(envPath) {
		if pathElement == "" {
			continue
		}

		execPath := pathElement + separator + execName

		if utils.IsExecutable(execPath) {
			return execPath, nil
		}
	}

	return "", errors.New("The executable " + execName + " was not found in the " +
		"current directory nor in the system path.")
}
