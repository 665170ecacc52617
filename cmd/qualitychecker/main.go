package main

import (
	"github.com/alecthomas/kong"
	"github.com/block/qualitychecker/pkg/buildinfo"
)

// Populated with -ldflags by the release build.
var (
	version string
	commit  string
	date    string
)

var cli struct {
	Audit   AuditCmd   `cmd:"" help:"Audit store tables and write the quality report."`
	Checks  ChecksCmd  `cmd:"" help:"List the available checks."`
	Version VersionCmd `cmd:"" help:"Print build information."`
}

func main() {
	buildinfo.Set(version, commit, date)
	ctx := kong.Parse(&cli,
		kong.Name("qualitychecker"),
		kong.Description("Data-quality audit of staging and store tables in Vertica and Greenplum"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
