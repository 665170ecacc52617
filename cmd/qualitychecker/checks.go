package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/block/qualitychecker/pkg/buildinfo"
	"github.com/block/qualitychecker/pkg/check"
)

// ChecksCmd prints the check catalog.
type ChecksCmd struct{}

func (c *ChecksCmd) Run() error {
	return printChecks(os.Stdout, check.All())
}

func printChecks(w io.Writer, defs []check.Definition) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCOPE\tNEEDS\tOUTPUTS")
	for _, def := range defs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			def.ID, def.Name, def.Scope, needs(def), strings.Join(def.Outputs, ", "))
	}
	return tw.Flush()
}

func needs(def check.Definition) string {
	var n []string
	if def.RequiresPrimaryKey {
		if def.StagingKey {
			n = append(n, "staging pk")
		} else {
			n = append(n, "pk")
		}
	}
	if def.RequiresStaging {
		n = append(n, "staging")
	}
	if def.TextOnly {
		n = append(n, "text")
	}
	if def.BestEffort {
		n = append(n, "best effort")
	}
	if len(n) == 0 {
		return "-"
	}
	return strings.Join(n, ", ")
}

type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Println(buildinfo.Get().String())
	return nil
}
