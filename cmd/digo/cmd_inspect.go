package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/centraunit/digo"
	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
)

// digo inspect: build the sample graph and list its bindings.
func newInspectCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Eagerly build the sample container and list every binding",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, _, err := flags.setup()
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if err := c.Eager(); err != nil {
				return err
			}
			newRequest, err := digo.Get[digo.Factory[*Request]](c)
			if err != nil {
				return err
			}
			req, err := newRequest("/", 3)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "container %s (%s)\n\n", c.Name(), c.ID())
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TYPE\tKIND\tOWNERSHIP\tENTRIES\tCONSTRUCTED")
			fmt.Fprintln(w, "----\t----\t---------\t-------\t-----------")
			for _, b := range c.Bindings() {
				kind := "single"
				if b.Multibinding {
					kind = "multi"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", b.Type, kind, b.Ownership, b.Entries, b.Constructed)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nsample request: %s\n", req.Render("world"))
			return nil
		},
	}
}

// digo arena: print the arena layout of the sample container.
func newArenaCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "arena",
		Short: "Print the arena layout of the sample container",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, _, err := flags.setup()
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if err := c.Eager(); err != nil {
				return err
			}
			usage := c.ArenaUsage()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "capacity %s, used %s\n\n",
				units.BytesSize(float64(usage.Capacity)), units.BytesSize(float64(usage.Used)))
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "#\tOFFSET\tSIZE\tALIGN\tTYPE")
			for _, o := range usage.Objects {
				fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", o.Index, o.Offset, o.Size, o.Align, o.Type)
			}
			return w.Flush()
		},
	}
}
