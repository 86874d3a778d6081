package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"reservas/internal/config"
	"reservas/internal/db"
	"reservas/internal/repository"
	"reservas/internal/service"
)

func newReservationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Inspect stored reservations",
	}
	cmd.AddCommand(newReservationsListCmd())
	cmd.AddCommand(newReservationsDigestCmd())
	return cmd
}

func newReservationsListCmd() *cobra.Command {
	var (
		asJSON bool
		day    string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			var list []db.Reservation
			if day != "" {
				d, err := time.ParseInLocation(time.DateOnly, day, cfg.Location)
				if err != nil {
					return fmt.Errorf("invalid --day %q: %w", day, err)
				}
				list, err = repository.ReservationsOn(ctx, store, d, cfg.Location)
				if err != nil {
					return err
				}
			} else if list, err = store.ListAll(ctx); err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printReservations(cmd.OutOrStdout(), list, cfg.Location)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored records as JSON")
	cmd.Flags().StringVar(&day, "day", "", "only reservations on this local date (YYYY-MM-DD), sorted by time")
	return cmd
}

func newReservationsDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send today's reservations digest now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := setupLogger(cfg.Env)
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			jobs := service.NewJobService(store, service.NewMailer(cfg), service.SenderConfigFrom(cfg), log)
			return jobs.SendDailyDigest(ctx)
		},
	}
}

func printReservations(w io.Writer, list []db.Reservation, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tDATE/TIME\tPEOPLE\tNAME\tPHONE\tEMAIL\tSTATUS")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.Code, r.DateTime.In(loc).Format(service.DisplayLayout), r.People, r.Name, r.Phone, r.Email, r.Status)
	}
	return tw.Flush()
}
