package sigcheck

import (
	"context"
	"fmt"
	"os"
)

import (
	"github.com/hashicorp/errwrap"
	"go.uber.org/zap"
)

import (
	"github.com/dekobon/check-clamav-signatures/utils"
)

const sigtoolExecName = "sigtool"

// Result is the outcome of a single check. Message is the exact line written
// for the monitoring system.
type Result struct {
	Status         Status
	Message        string
	InstalledDaily uint64
	InstalledMain  uint64
	DailyDelta     int64
	MainDelta      int64
	Published      SignatureVersions
}

func (r Result) String() string {
	return r.Message
}

// Checker verifies that the installed signature databases are current.
//
// Versions and Published may be left nil, in which case the sigtool and DNS
// backed implementations are used.
type Checker struct {
	Config         Config
	Dependencies   []string
	FindExecutable func(execName string) (string, error)
	Versions       VersionReader
	Published      PublishedVersionSource
	Logger         *zap.SugaredLogger
}

// NewChecker creates a Checker wired to the real sigtool executable and the
// DNS resolver.
func NewChecker(config Config, logger *zap.SugaredLogger) *Checker {
	return &Checker{
		Config:       config,
		Dependencies: []string{sigtoolExecName},
		FindExecutable: func(execName string) (string, error) {
			return FindExecutable(execName, os.Getenv("PATH"))
		},
		Published: NewDNSVersionSource(config.DNSDomain, config.Nameserver),
		Logger:    logger,
	}
}

// Check runs every step of the check in order and stops at the first
// failure, which is reported as UNKNOWN.
func (c *Checker) Check(ctx context.Context) Result {
	result, err := c.check(ctx)

	if err != nil {
		return c.unknown(err)
	}

	c.logger().Debugf("Check complete: status=%v daily_delta=%v main_delta=%v",
		result.Status, result.DailyDelta, result.MainDelta)

	return result
}

func (c *Checker) check(ctx context.Context) (Result, error) {
	cfg := c.Config

	dependencies, err := c.findDependencies()

	if err != nil {
		return Result{}, err
	}

	if !utils.IsDir(cfg.SignatureDir) {
		return Result{}, failure(nil, "Unable to locate ClamAV lib directory")
	}

	c.logger().Debugf("Signature directory: %v", cfg.SignatureDir)

	dailyPath, found := LocateSignature(cfg.SignatureDir, Daily)

	if !found {
		return Result{}, failure(nil, "Unable to locate installed daily signatures")
	}

	mainPath, found := LocateSignature(cfg.SignatureDir, Main)

	if !found {
		return Result{}, failure(nil, "Unable to locate installed main signatures")
	}

	reader := c.versionReader(dependencies)

	installedDaily, err := c.installedVersion(ctx, reader, Daily, dailyPath)

	if err != nil {
		return Result{}, err
	}

	installedMain, err := c.installedVersion(ctx, reader, Main, mainPath)

	if err != nil {
		return Result{}, err
	}

	published, err := c.publishedVersions(ctx)

	if err != nil {
		return Result{}, err
	}

	result := Result{
		InstalledDaily: installedDaily,
		InstalledMain:  installedMain,
		DailyDelta:     delta(published.DailyVersion, installedDaily),
		MainDelta:      delta(published.MainVersion, installedMain),
		Published:      published,
	}

	result.Status = classify(result.DailyDelta, result.MainDelta,
		cfg.CriticalDelta, cfg.WarningDelta)
	result.Message = formatMessage(result)

	return result, nil
}

// Function that resolves every dependency to a path. An explicitly
// configured sigtool path is used as is rather than searched for.
func (c *Checker) findDependencies() (map[string]string, error) {
	paths := make(map[string]string, len(c.Dependencies))

	for _, execName := range c.Dependencies {
		if execName == sigtoolExecName && c.Config.SigtoolPath != "" {
			if !utils.IsExecutable(c.Config.SigtoolPath) {
				return nil, failure(nil, "Missing dependency: %v", execName)
			}

			paths[execName] = c.Config.SigtoolPath
			continue
		}

		execPath, err := c.findExecutable(execName)

		if err != nil {
			return nil, failure(err, "Missing dependency: %v", execName)
		}

		c.logger().Debugf("Executable %v found at path: %v", execName, execPath)
		paths[execName] = execPath
	}

	return paths, nil
}

func (c *Checker) findExecutable(execName string) (string, error) {
	if c.FindExecutable == nil {
		return FindExecutable(execName, os.Getenv("PATH"))
	}

	return c.FindExecutable(execName)
}

func (c *Checker) versionReader(dependencies map[string]string) VersionReader {
	if c.Versions != nil {
		return c.Versions
	}

	sigtoolPath, present := dependencies[sigtoolExecName]

	if !present {
		sigtoolPath = sigtoolExecName
	}

	return &SigtoolReader{SigtoolPath: sigtoolPath, Logger: c.logger()}
}

// Function that reads the installed version of a signature file. A failure
// to run the reader is not terminal by itself: the version is then empty and
// is rejected by the numeric validation.
func (c *Checker) installedVersion(ctx context.Context, reader VersionReader,
	kind SignatureKind, localFilePath string) (uint64, error) {

	info, err := reader.ReadSignatureInfo(ctx, localFilePath)

	if err != nil {
		c.logger().Debugf("Unable to read %v signature metadata from [%v]: %v",
			kind, localFilePath, err)
		info = SignatureInfo{}
	}

	version, parseErr := parseVersion(info.Version)

	if parseErr != nil {
		if err != nil {
			parseErr = errwrap.Wrap(parseErr, err)
		}

		return 0, failure(parseErr, "Unable to establish installed %v signatures version", kind)
	}

	c.logger().Debugf("Installed %v signatures [%v]: version=%v build_time=%v verified=%v",
		kind, localFilePath, version, info.BuildTime, info.Verified)

	return version, nil
}

func (c *Checker) publishedVersions(ctx context.Context) (SignatureVersions, error) {
	source := c.Published

	if source == nil {
		source = NewDNSVersionSource(c.Config.DNSDomain, c.Config.Nameserver)
	}

	record, err := source.PublishedRecord(ctx)

	if err != nil {
		return SignatureVersions{}, failure(err, "DNS query to %v failed", c.Config.DNSDomain)
	}

	c.logger().Debugf("TXT record for [%v]: %v", c.Config.DNSDomain, record)

	versions, err := parseTxtRecord(record)

	if err != nil {
		kind := Daily

		if fieldErr, ok := errwrap.GetType(err, &versionFieldError{}).(*versionFieldError); ok {
			kind = fieldErr.Kind
		}

		return SignatureVersions{}, failure(err,
			"Unable to establish current %v signatures version from DNS query", kind)
	}

	c.logger().Debugf("TXT record values parsed: clamav=%v main=%v daily=%v published=%v",
		versions.ClamAVVersion, versions.MainVersion, versions.DailyVersion, versions.PublishedAt)

	return versions, nil
}

func (c *Checker) unknown(err error) Result {
	f, ok := err.(*checkFailure)

	if !ok {
		f = failure(err, "%v", err)
	}

	if f.Cause != nil {
		c.logger().Debugf("Check aborted: %v\n%v", f.Message, f.Cause.ErrorStack())
	}

	return Result{
		Status:  Unknown,
		Message: fmt.Sprintf("%v: %v", Unknown, f.Message),
	}
}

func (c *Checker) logger() *zap.SugaredLogger {
	if c.Logger == nil {
		return zap.NewNop().Sugar()
	}

	return c.Logger
}

// Function that computes how many versions the installed copy is behind the
// published one. The result is negative when the installed copy is ahead.
func delta(published uint64, installed uint64) int64 {
	return int64(published) - int64(installed)
}

// Function that classifies the version deltas. Any main version gap is
// critical regardless of the thresholds.
func classify(dailyDelta int64, mainDelta int64, criticalDelta uint64, warningDelta uint64) Status {
	switch {
	case mainDelta > 0:
		return Critical
	case exceeds(dailyDelta, criticalDelta):
		return Critical
	case exceeds(dailyDelta, warningDelta):
		return Warning
	default:
		return OK
	}
}

func exceeds(delta int64, threshold uint64) bool {
	return delta > 0 && uint64(delta) > threshold
}

func formatMessage(r Result) string {
	summary := "Signatures expired"

	if r.Status == OK {
		summary = "Signatures up to date"
	}

	return fmt.Sprintf("%v: %v; daily version: %v (%v behind), main version: %v (%v behind)",
		r.Status, summary, r.InstalledDaily, r.DailyDelta, r.InstalledMain, r.MainDelta)
}
