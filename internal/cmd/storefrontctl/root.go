// Package storefrontctl implements the storefront operator CLI.
package storefrontctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	entrypoint "github.com/louisbranch/paidportfolio/internal/platform/cmd"
	server "github.com/louisbranch/paidportfolio/internal/services/storefront/app"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

// Version is stamped at build time.
var Version = "dev"

// Runtime holds the collaborators commands resolve at run time. Zero fields
// fall back to the storefront server's environment-driven wiring.
type Runtime struct {
	Out       io.Writer
	LoadEnv   func() (server.Env, error)
	OpenStore func(ctx context.Context, env server.Env) (storage.Store, error)
	NewSender func(env server.Env) (notify.Sender, error)
}

func (r Runtime) withDefaults() Runtime {
	if r.Out == nil {
		r.Out = os.Stdout
	}
	if r.LoadEnv == nil {
		r.LoadEnv = server.LoadEnv
	}
	if r.OpenStore == nil {
		r.OpenStore = server.OpenStore
	}
	if r.NewSender == nil {
		r.NewSender = server.NewSender
	}
	return r
}

// NewRootCommand builds the storefrontctl command tree.
func NewRootCommand(rt Runtime) *cobra.Command {
	rt = rt.withDefaults()
	root := &cobra.Command{
		Use:           entrypoint.ServiceStorefrontCtl,
		Short:         "Operate the PaidPortfolio storefront",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(rt.Out)

	root.AddCommand(signCmd(rt))
	root.AddCommand(catalogCmd(rt))
	root.AddCommand(emailCmd(rt))
	root.AddCommand(ordersCmd(rt))
	root.AddCommand(contactsCmd(rt))
	root.AddCommand(requestsCmd(rt))
	return root
}

func (r Runtime) withStore(ctx context.Context, fn func(storage.Store) error) error {
	env, err := r.LoadEnv()
	if err != nil {
		return err
	}
	store, err := r.OpenStore(ctx, env)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func newTable(w io.Writer, header string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	return tw
}
