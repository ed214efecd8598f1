package storefrontctl

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/louisbranch/paidportfolio/internal/services/storefront/catalog"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/checkout"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/notify/render"
	"github.com/louisbranch/paidportfolio/internal/services/storefront/storage"
)

func signCmd(rt Runtime) *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "sign [gateway-order-id] [payment-id]",
		Short: "Compute the payment callback signature for an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				env, err := rt.LoadEnv()
				if err != nil {
					return err
				}
				secret = env.RazorpayKeySecret
			}
			if strings.TrimSpace(secret) == "" {
				return errors.New("a secret is required: pass --secret or set RAZORPAY_KEY_SECRET")
			}
			fmt.Fprintln(cmd.OutOrStdout(), checkout.Sign(secret, args[0], args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Gateway key secret (defaults to RAZORPAY_KEY_SECRET)")
	return cmd
}

func catalogCmd(rt Runtime) *cobra.Command {
	var (
		featured bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the seeded template catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := catalog.LoadDefault()
			if err != nil {
				return err
			}
			list := templates.List
			if featured {
				list = templates.ListFeatured
			}
			items, err := list(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			tw := newTable(cmd.OutOrStdout(), "ID\tNAME\tCATEGORY\tPRICE\tFEATURED")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %d\t%t\n", item.ID, item.Name, item.Category, checkout.Currency, item.PriceINR, item.IsFeatured)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&featured, "featured", false, "Only featured templates")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func emailCmd(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Exercise the configured email provider",
	}
	cmd.AddCommand(emailTestCmd(rt))
	cmd.AddCommand(emailSimulateCmd(rt))
	return cmd
}

func (r Runtime) dispatcher() (*notify.Dispatcher, error) {
	env, err := r.LoadEnv()
	if err != nil {
		return nil, err
	}
	sender, err := r.NewSender(env)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, notify.ErrNotConfigured
	}
	return notify.NewDispatcher(sender, notify.Config{From: env.EmailFrom, Operator: env.OperatorEmail}), nil
}

func emailTestCmd(rt Runtime) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send the test email to the operator inbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatcher, err := rt.dispatcher()
			if err != nil {
				return err
			}
			recipient := strings.TrimSpace(to)
			if recipient == "" {
				recipient = dispatcher.OperatorAddress()
			}
			email := render.New(nil).TestEmail()
			if !dispatcher.Send(cmd.Context(), recipient, email.Subject, email.HTML) {
				return fmt.Errorf("failed to send email to %s", recipient)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Email sent successfully to %s\n", recipient)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient (defaults to the operator address)")
	return cmd
}

func emailSimulateCmd(rt Runtime) *cobra.Command {
	var client string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Send an operator and a client email and report the emailSent a visitor would see",
		RunE: func(cmd *cobra.Command, args []string) error {
			dispatcher, err := rt.dispatcher()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			outcome := dispatcher.SendPair(cmd.Context(),
				notify.Mail{Subject: "Admin Test", HTML: "<p>Admin Notification</p>"},
				notify.Mail{To: client, Subject: "Client Test", HTML: "<p>Client Confirmation</p>"},
			)
			fmt.Fprintf(out, "operator %s: %s\n", dispatcher.OperatorAddress(), result(outcome.Operator))
			fmt.Fprintf(out, "client %s: %s\n", client, result(outcome.Submitter))
			fmt.Fprintf(out, "emailSent: %t\n", outcome.Observed())
			if !outcome.Operator {
				return errors.New("operator email must succeed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "client@example.com", "Client recipient")
	return cmd
}

func result(delivered bool) string {
	if delivered {
		return "SUCCESS"
	}
	return "FAILED"
}

func ordersCmd(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Inspect stored orders",
	}
	var (
		userID string
		asJSON bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(cmd.Context(), func(store storage.Store) error {
				orders, err := store.ListOrders(cmd.Context(), storage.OrderFilter{UserID: userID})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), orders)
				}
				tw := newTable(cmd.OutOrStdout(), "ID\tSTATUS\tAMOUNT\tCUSTOMER\tTEMPLATE\tCREATED")
				for _, order := range orders {
					fmt.Fprintf(tw, "%s\t%s\t%s %d\t%s\t%s\t%s\n",
						order.ID, order.Status, order.Currency, order.Amount, order.CustomerEmail,
						dash(order.TemplateID), order.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().StringVar(&userID, "user", "", "Only orders for this user id")
	list.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.AddCommand(list)
	return cmd
}

func contactsCmd(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Inspect contact messages",
	}
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List contact messages in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(cmd.Context(), func(store storage.Store) error {
				messages, err := store.ListContactMessages(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), messages)
				}
				tw := newTable(cmd.OutOrStdout(), "ID\tSTATUS\tFROM\tSUBJECT\tCREATED")
				for _, message := range messages {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						message.ID, message.Status, message.Email, message.Subject, message.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.AddCommand(list)
	return cmd
}

func requestsCmd(rt Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect custom portfolio requests",
	}
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List custom requests in creation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withStore(cmd.Context(), func(store storage.Store) error {
				requests, err := store.ListCustomRequests(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), requests)
				}
				tw := newTable(cmd.OutOrStdout(), "ID\tSTATUS\tFROM\tBUDGET\tTIMELINE\tCREATED")
				for _, request := range requests {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						request.ID, request.Status, request.Email, request.Budget, request.Timeline,
						request.CreatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.AddCommand(list)
	return cmd
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
