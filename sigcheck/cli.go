package sigcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

import (
	"github.com/pborman/getopt"
	"go.uber.org/zap"
)

import (
	"github.com/dekobon/check-clamav-signatures/utils"
)

// AppName is the name the plugin is installed and invoked as.
const AppName = "check_clamav_signatures"

// App binds the check to its process environment.
type App struct {
	Stdout      io.Writer
	Stderr      io.Writer
	VersionInfo utils.AppVersionInfo
	NewChecker  func(config Config, logger *zap.SugaredLogger) *Checker
}

// Run is the functional entry point to the application. It parses args
// (including the program name) and returns the plugin exit code.
func Run(args []string, versionInfo utils.AppVersionInfo) int {
	app := App{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		VersionInfo: versionInfo,
		NewChecker:  NewChecker,
	}

	return app.Run(context.Background(), args)
}

// cliOptions holds the option set for a single invocation along with the
// values it parses into.
type cliOptions struct {
	set *getopt.Set

	help       bool
	version    bool
	verbose    bool
	configFile string

	config Config
	seen   map[string]getopt.Option
}

func newCliOptions() *cliOptions {
	defaults := DefaultConfig()
	o := &cliOptions{
		set:    getopt.New(),
		config: defaults,
		seen:   make(map[string]getopt.Option),
	}

	o.set.SetProgram("./" + AppName)

	o.seen["path"] = o.set.StringVarLong(&o.config.SignatureDir, "path", 'p',
		"Path to ClamAV lib directory (default: "+defaults.SignatureDir+")", "dir")
	o.seen["critical"] = o.set.Uint64VarLong(&o.config.CriticalDelta, "critical", 'c',
		"Daily versions behind before reporting CRITICAL (default: 0)", "n")
	o.seen["warning"] = o.set.Uint64VarLong(&o.config.WarningDelta, "warning", 'w',
		"Daily versions behind before reporting WARNING (default: 0)", "n")
	o.seen["domain"] = o.set.StringVarLong(&o.config.DNSDomain, "clamav-dns-db-info-domain", 'i',
		"DNS domain to verify the virus database version via TXT record "+
			"(default: "+defaults.DNSDomain+")", "domain")
	o.seen["nameserver"] = o.set.StringVarLong(&o.config.Nameserver, "nameserver", 'n',
		"Send the TXT record query to this nameserver instead of the system resolver", "host[:port]")
	o.seen["sigtool"] = o.set.StringVarLong(&o.config.SigtoolPath, "sigtool-path", 's',
		"Path to the sigtool executable (default: search the current directory and PATH)", "file")
	o.set.StringVarLong(&o.configFile, "config-file", 'f',
		"YAML file to read settings from", "file")
	o.set.BoolVarLong(&o.verbose, "verbose", 'v',
		"Enable verbose mode with additional debugging information on stderr")
	o.set.BoolVarLong(&o.version, "version", 'V', "Display the version and exit")
	o.set.BoolVarLong(&o.help, "help", 'h', "Display this help and exit")

	return o
}

// Function that builds the final configuration. Settings are layered from
// lowest to highest precedence: defaults, config file, environment and then
// any flag given explicitly on the command line.
func (o *cliOptions) resolveConfig() (Config, error) {
	config := DefaultConfig()

	if o.configFile != "" {
		fromFile, err := LoadConfigFile(o.configFile, config)

		if err != nil {
			return config, err
		}

		config = fromFile
	}

	config, err := ParseEnvVars(config)

	if err != nil {
		return config, err
	}

	if o.seen["path"].Seen() {
		config.SignatureDir = o.config.SignatureDir
	}

	if o.seen["critical"].Seen() {
		config.CriticalDelta = o.config.CriticalDelta
	}

	if o.seen["warning"].Seen() {
		config.WarningDelta = o.config.WarningDelta
	}

	if o.seen["domain"].Seen() {
		config.DNSDomain = o.config.DNSDomain
	}

	if o.seen["nameserver"].Seen() {
		config.Nameserver = o.config.Nameserver
	}

	if o.seen["sigtool"].Seen() {
		config.SigtoolPath = o.config.SigtoolPath
	}

	config.Verbose = o.verbose

	return config, nil
}

func (o *cliOptions) printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: ./%v [OPTIONS]\n\n", AppName)
	fmt.Fprintln(w, "Checks that the installed ClamAV daily and main signatures are current")
	fmt.Fprintf(w, "by comparing their versions against the %v TXT record.\n\n", DefaultDNSDomain)
	fmt.Fprintln(w, "Options:")
	o.set.PrintOptions(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  ./%v\n", AppName)
	fmt.Fprintf(w, "  ./%v -p /var/clamav -w 1 -c 3\n", AppName)
	fmt.Fprintf(w, "  ./%v --path /var/lib/clamav --warning 2 --critical 5\n", AppName)
}

// Run parses args and runs the check, writing the status line to Stdout.
func (a *App) Run(ctx context.Context, args []string) int {
	options := newCliOptions()

	if err := options.set.Getopt(args, nil); err != nil {
		return a.usageError(options, args, err)
	}

	if options.help {
		options.printUsage(a.Stdout)
		return OK.ExitCode()
	}

	if options.version {
		fmt.Fprintln(a.Stdout, a.VersionInfo.String())
		return OK.ExitCode()
	}

	if remaining := options.set.Args(); len(remaining) > 0 {
		fmt.Fprintf(a.Stderr, "%v: Unrecognised argument: %v\n", Unknown, remaining[0])
		options.printUsage(a.Stderr)
		return Unknown.ExitCode()
	}

	config, err := options.resolveConfig()

	if err != nil {
		fmt.Fprintf(a.Stdout, "%v: %v\n", Unknown, err)
		return Unknown.ExitCode()
	}

	logger := utils.NewLogger(config.Verbose, a.Stderr)
	defer logger.Sync()

	logger.Debugf("%v version: %v, git commit: %v, built: %v", AppName,
		a.VersionInfo.AppVersion, a.VersionInfo.GitCommitHash, a.VersionInfo.UTCBuildTime)
	logger.Debugf("Configuration: %+v", config)

	newChecker := a.NewChecker

	if newChecker == nil {
		newChecker = NewChecker
	}

	result := newChecker(config, logger).Check(ctx)
	fmt.Fprintln(a.Stdout, result.String())

	return result.Status.ExitCode()
}

// Function that reports a command line parsing failure. Unknown options are
// reported with the argument as given, anything else with getopt's message.
func (a *App) usageError(options *cliOptions, args []string, err error) int {
	if getoptErr, ok := err.(*getopt.Error); ok && getoptErr.ErrorCode == getopt.UnknownOption {
		fmt.Fprintf(a.Stderr, "%v: Unrecognised argument: %v\n", Unknown,
			rejectedArgument(args, getoptErr.Name))
	} else {
		fmt.Fprintf(a.Stderr, "%v: %v\n", Unknown, err)
	}

	options.printUsage(a.Stderr)

	return Unknown.ExitCode()
}

// Function that finds the command line token an unknown option name came
// from, so that "--bogus=1" is echoed back whole.
func rejectedArgument(args []string, name string) string {
	if len(args) > 0 {
		args = args[1:]
	}

	for _, arg := range args {
		if arg == "--" {
			break
		}

		if arg == name || (strings.HasPrefix(name, "--") && strings.HasPrefix(arg, name+"=")) {
			return arg
		}
	}

	return name
}
