// Package main generates configuration downlinks for Nanothings Nanotag sensors.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/viam-modules/nanotag/codec"
	"github.com/viam-modules/nanotag/downlink"
	"github.com/viam-modules/nanotag/nanotag"
	"github.com/viam-modules/nanotag/output"
	"go.viam.com/rdk/logging"
	"go.viam.com/utils"
)

const loggerName = "nanotag-config"

// Arguments are the command line flags.
type Arguments struct {
	Preset      string `flag:"preset,usage=preset configuration (30sec|1min|5min|30min|1hour)"`
	Record      string `flag:"record,usage=record period (1-65535)"`
	Report      string `flag:"report,usage=report period (1-65535)"`
	Unit        string `flag:"unit,usage=time unit for periods (minutes|seconds)"`
	Format      string `flag:"format,usage=output format (text|json|yaml)"`
	Network     string `flag:"network,usage=print queue requests for network servers (chirpstack|ttn|helium|all)"`
	Unconfirmed bool   `flag:"unconfirmed,usage=queue the downlink unconfirmed"`
	Verify      bool   `flag:"verify,usage=check the payload against the embedded javascript codec"`
	Codec       bool   `flag:"codec,usage=print the javascript encodeDownlink codec and exit"`
	Debug       bool   `flag:"debug,usage=enable debug logging"`
}

// UsageError reports missing or conflicting command line arguments.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string {
	return "usage: " + e.msg
}

func newUsageError(format string, args ...interface{}) error {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	logger := logging.NewBlankLogger(loggerName)
	logger.AddAppender(logging.NewWriterAppender(os.Stderr))
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	return runWithArgs(ctx, args, os.Stdout, logger)
}

func runWithArgs(ctx context.Context, args []string, stdout io.Writer, logger logging.Logger) error {
	if helpRequested(args) {
		return writeUsage(args[0], stdout)
	}

	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return newUsageError("%s", err)
	}

	if argsParsed.Debug {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.INFO)
	}

	if argsParsed.Codec {
		_, err := io.WriteString(stdout, codec.Script())
		return err
	}

	format, err := output.ParseFormat(argsParsed.Format)
	if err != nil {
		return newUsageError("%s", err)
	}

	var networks []downlink.Network
	if argsParsed.Network != "" {
		networks, err = downlink.ParseNetworks(argsParsed.Network)
		if err != nil {
			return newUsageError("%s", err)
		}
	}

	name, req, err := resolveRequest(argsParsed)
	if err != nil {
		return err
	}

	payload, err := req.Encode()
	if err != nil {
		return err
	}
	logger.Debugf("encoded %+v as %s on port %d", req, payload.Hex(), payload.Port)

	if argsParsed.Verify {
		if err := codec.Verify(ctx, req, payload, logger); err != nil {
			return fmt.Errorf("codec verification failed: %w", err)
		}
		logger.Info("payload matches the embedded codec")
	}

	reqs, err := downlink.CreateQueueRequests(networks, payload, !argsParsed.Unconfirmed)
	if err != nil {
		return err
	}

	return output.Write(stdout, format, output.NewBundle(name, req, payload), reqs)
}

// helpRequested reports whether a help flag appears before any "--" terminator.
func helpRequested(args []string) bool {
	for _, arg := range args[1:] {
		switch arg {
		case "--":
			return false
		case "-h", "-help", "--help":
			return true
		}
	}
	return false
}

// writeUsage prints the flag usage. utils.ParseFlags returns the usage text as
// the error for a help flag.
func writeUsage(name string, stdout io.Writer) error {
	var unused Arguments
	err := utils.ParseFlags([]string{name, "-h"}, &unused)
	if err == nil {
		return nil
	}
	_, werr := io.WriteString(stdout, err.Error())
	return werr
}

// resolveRequest picks the preset or custom configuration from the arguments.
// The returned name is empty for custom configurations.
func resolveRequest(args Arguments) (string, nanotag.ConfigRequest, error) {
	custom := args.Record != "" || args.Report != "" || args.Unit != ""

	switch {
	case args.Preset != "" && custom:
		return "", nanotag.ConfigRequest{}, newUsageError("--preset cannot be combined with --record, --report or --unit")
	case args.Preset != "":
		req, err := nanotag.ResolvePreset(args.Preset)
		if err != nil {
			return "", nanotag.ConfigRequest{}, err
		}
		return args.Preset, req, nil
	case !custom:
		return "", nanotag.ConfigRequest{}, newUsageError("either --preset or --record, --report and --unit is required")
	case args.Record == "" || args.Report == "" || args.Unit == "":
		return "", nanotag.ConfigRequest{}, newUsageError("custom configuration requires --record, --report and --unit")
	}

	record, err := strconv.Atoi(args.Record)
	if err != nil {
		return "", nanotag.ConfigRequest{}, newUsageError("--record must be an integer, got %q", args.Record)
	}
	report, err := strconv.Atoi(args.Report)
	if err != nil {
		return "", nanotag.ConfigRequest{}, newUsageError("--report must be an integer, got %q", args.Report)
	}

	return "", nanotag.ConfigRequest{
		RecordPeriod: record,
		ReportPeriod: report,
		TimeUnit:     nanotag.ParseTimeUnit(args.Unit),
	}, nil
}
