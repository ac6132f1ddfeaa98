package main

import (
	"github.com/advdv/brest"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// staticFlags select what is served.
type staticFlags struct {
	root   string
	prefix string
	queue  string
}

func (f *staticFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.root, "root", "r", ".", "Directory or file to serve")
	cmd.Flags().StringVarP(&f.prefix, "prefix", "p", "/", "Path prefix the files are served under")
	cmd.Flags().StringVarP(&f.queue, "queue", "q", "", "Worker queue file reads run on (inline when empty)")
}

// mount adds the static group to the mux.
func (f *staticFlags) mount(mux *brest.ServeMux) error {
	var opts []brest.RouteOption
	if f.queue != "" {
		opts = append(opts, brest.OnQueue(f.queue))
	}

	if err := mux.Static(f.prefix, f.root, opts...); err != nil {
		return errors.Wrap(err, "mount static files")
	}

	return nil
}
