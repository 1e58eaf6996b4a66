package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spec-kit/clinic-records/internal/domain"
	"github.com/spec-kit/clinic-records/internal/service"
	"github.com/spec-kit/clinic-records/pkg/util"
)

const timeLayout = "2006-01-02 15:04:05"

func newRootCmd(a *app) *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "clinic",
		Short:         "Clinic booking records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("data-dir") {
				a.cfg.Store.DataDir = strings.TrimSpace(dataDir)
			}
			if a.cfg.Store.DataDir == "" {
				return util.NewInvalidInput("data directory must not be empty", nil)
			}
			return a.init(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the record logs (overrides CLINIC_STORE_DATA_DIR)")

	root.AddCommand(
		registerCmd(a),
		loginCmd(a),
		resetPasswordCmd(a),
		servicesCmd(a),
		bookCmd(a),
		bookingsCmd(a),
		cancelCmd(a),
		cancellationsCmd(a),
		historyCmd(a),
		statsCmd(a),
	)
	return root
}

func registerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register USERNAME PASSWORD",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.auth.Register(cmd.Context(), clean(args[0]), clean(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", u.Username)
			return nil
		},
	}
}

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login USERNAME PASSWORD",
		Short: "Check credentials",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.auth.Authenticate(cmd.Context(), clean(args[0]), clean(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "welcome, %s\n", u.Username)
			return nil
		},
	}
}

func resetPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password USERNAME NEW_PASSWORD",
		Short: "Replace a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.auth.ResetPassword(cmd.Context(), clean(args[0]), clean(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", out.User.Username)
			if out.AuditErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: reset not recorded in history: %v\n", out.AuditErr)
			}
			return nil
		},
	}
}

func servicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List bookable services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "SERVICE\tPRICE")
			for _, item := range a.bookings.Catalog() {
				fmt.Fprintf(w, "%s\t%s\n", item.Name, money(item.Price))
			}
			return w.Flush()
		},
	}
}

func bookCmd(a *app) *cobra.Command {
	var (
		date     string
		services []string
	)
	cmd := &cobra.Command{
		Use:   "book PATIENT",
		Short: "Book services for a patient",
		Long: `Book services for a patient. Each --service takes NAME or NAME=QUANTITY:

	clinic book alice --date 2025-06-01 --service "Dental Cleaning=2"
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selections, err := parseSelections(services)
			if err != nil {
				return err
			}
			quote, err := a.bookings.Quote(selections)
			if err != nil {
				return err
			}
			b, err := a.bookings.CreateBooking(cmd.Context(), service.BookingCreateInput{
				PatientName:     clean(args[0]),
				AppointmentDate: clean(date),
				Services:        quote.Services,
				TotalAmount:     quote.TotalAmount,
			})
			if err != nil {
				return err
			}
			printReceipt(cmd.OutOrStdout(), b)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "appointment date")
	cmd.Flags().StringArrayVar(&services, "service", nil, "service to book, NAME or NAME=QUANTITY (repeatable)")
	return cmd
}

func bookingsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings PATIENT",
		Short: "List a patient's bookings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, err := a.bookings.ListBookings(cmd.Context(), clean(args[0]))
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "BOOKING ID\tDATE\tSERVICES\tTOTAL\tSTATUS\tCREATED")
			for _, b := range bookings {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					b.BookingID, b.AppointmentDate, serviceSummary(b.Services), money(b.TotalAmount), b.Status, b.CreatedAt.Format(timeLayout))
			}
			return w.Flush()
		},
	}
}

func cancelCmd(a *app) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel PATIENT BOOKING_ID",
		Short: "Cancel one of a patient's bookings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.bookings.FindBooking(cmd.Context(), clean(args[0]), clean(args[1]))
			if err != nil {
				return err
			}
			c, err := a.bookings.CancelBooking(cmd.Context(), b, clean(reason))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s (%s)\n", c.BookingID, c.CancellationID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for cancelling")
	return cmd
}

func cancellationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancellations PATIENT",
		Short: "List a patient's cancellations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cancellations, err := a.bookings.ListCancellations(cmd.Context(), clean(args[0]))
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "CANCELLATION ID\tBOOKING ID\tDATE\tSERVICES\tTOTAL\tREASON\tCANCELLED")
			for _, c := range cancellations {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					c.CancellationID, c.BookingID, c.AppointmentDate, serviceSummary(c.Services), money(c.TotalAmount), c.Reason, c.CancellationDate.Format(timeLayout))
			}
			return w.Flush()
		},
	}
}

func historyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history USERNAME",
		Short: "List a user's password resets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resets, err := a.auth.ListHistory(cmd.Context(), clean(args[0]))
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "RESET ID\tDATE\tSTATUS")
			for _, r := range resets {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.ResetID, r.ResetDate.Format(timeLayout), r.Status)
			}
			return w.Flush()
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Scan every log and report record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			counts := []struct {
				name string
				scan func() (int, error)
			}{
				{a.store.Users.Name(), func() (int, error) { r, err := a.store.Users.All(ctx, nil); return len(r), err }},
				{a.store.Bookings.Name(), func() (int, error) { r, err := a.store.Bookings.All(ctx, nil); return len(r), err }},
				{a.store.Cancellations.Name(), func() (int, error) { r, err := a.store.Cancellations.All(ctx, nil); return len(r), err }},
				{a.store.PasswordResets.Name(), func() (int, error) { r, err := a.store.PasswordResets.All(ctx, nil); return len(r), err }},
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "DATA DIR\t%s\n", a.store.Dir())
			for _, c := range counts {
				n, err := c.scan()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d records\n", c.name, n)
			}
			for _, counter := range a.metrics.Snapshot() {
				fmt.Fprintf(w, "%s\t%d\n", counter.Key, counter.Value)
			}
			return w.Flush()
		},
	}
}

func parseSelections(raw []string) ([]service.ServiceSelection, error) {
	out := make([]service.ServiceSelection, 0, len(raw))
	for _, r := range raw {
		name, qty, found := strings.Cut(r, "=")
		sel := service.ServiceSelection{ServiceName: clean(name), Quantity: 1}
		if found {
			n, err := strconv.Atoi(clean(qty))
			if err != nil {
				return nil, util.NewInvalidInput("quantity must be a whole number", map[string]any{"service": r})
			}
			sel.Quantity = n
		}
		out = append(out, sel)
	}
	return out, nil
}

func printReceipt(w io.Writer, b domain.Booking) {
	t := newTable(w)
	fmt.Fprintf(t, "Booking ID:\t%s\n", b.BookingID)
	fmt.Fprintf(t, "Patient:\t%s\n", b.PatientName)
	fmt.Fprintf(t, "Appointment:\t%s\n", b.AppointmentDate)
	for _, line := range b.Services {
		fmt.Fprintf(t, "  %s x%d\t%s\n", line.ServiceName, line.Quantity, money(line.LineSubtotal))
	}
	fmt.Fprintf(t, "Total:\t%s\n", money(b.TotalAmount))
	fmt.Fprintf(t, "Status:\t%s\n", b.Status)
	_ = t.Flush()
}

func serviceSummary(lines []domain.ServiceLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s x%d", l.ServiceName, l.Quantity))
	}
	return strings.Join(parts, ", ")
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// clean trims form input the way the booking form did.
func clean(v string) string {
	return strings.TrimSpace(v)
}
