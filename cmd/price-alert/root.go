package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"stock-price-alert/internal/entity"
	"stock-price-alert/internal/monitor/dto"
	"stock-price-alert/pkg/utils"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "price-alert",
		Short:         "Stock price alerts with a polling monitor",
		Long:          `price-alert stores price thresholds on stock tickers and notifies you when the market crosses them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newEnableCmd(opts),
		newDisableCmd(opts),
		newUpdateCmd(opts),
		newMonitorCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

// withApp runs fn with a fully initialized app and releases it afterwards.
func withApp(opts *rootOptions, fn func(a *app) error) error {
	a, err := newApp(opts.configPath)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var param dto.ListAlertsParam
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				alerts, err := a.alertService.List(cmd.Context(), param)
				if err != nil {
					return err
				}
				printAlerts(cmd.OutOrStdout(), alerts)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&param.Status, "status", "s", string(entity.StatusActive), "Filter by status: active, triggered, disabled or all")
	cmd.Flags().StringVarP(&param.Ticker, "ticker", "t", "", "Filter by ticker")
	return cmd
}

func printAlerts(w io.Writer, alerts []entity.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No alerts found.")
		return
	}
	for _, a := range alerts {
		line := a.String()
		if a.TriggeredAt != nil {
			line += fmt.Sprintf(" | triggered %s (%s)", utils.RelativeDate(*a.TriggeredAt), utils.PrettyDate(*a.TriggeredAt))
		}
		fmt.Fprintln(w, line)
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var persistent, oneTimeFlag bool
	cmd := &cobra.Command{
		Use:   "add TICKER PRICE above|below",
		Short: "Create a price alert",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid price %q: must be a number", args[1])
			}
			return withApp(opts, func(a *app) error {
				alert, err := a.alertService.Create(cmd.Context(), dto.CreateAlertRequest{
					Ticker:      args[0],
					TargetPrice: price,
					AlertType:   args[2],
					OneTime:     utils.ToPointer(oneTimeFlag && !persistent),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created alert %s for %s.\n", alert.ID, alert.Ticker)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&oneTimeFlag, "one-time", true, "Deactivate the alert after it fires (default)")
	cmd.Flags().BoolVar(&persistent, "persistent", false, "Keep the alert active after it fires")
	cmd.MarkFlagsMutuallyExclusive("one-time", "persistent")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				err := a.alertService.Remove(cmd.Context(), args[0])
				return report(cmd.OutOrStdout(), args[0], "Removed", err)
			})
		},
	}
}

func newEnableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enable ID",
		Short: "Re-activate an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				_, err := a.alertService.Enable(cmd.Context(), args[0])
				return report(cmd.OutOrStdout(), args[0], "Enabled", err)
			})
		},
	}
}

func newDisableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disable ID",
		Short: "Stop evaluating an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				_, err := a.alertService.Disable(cmd.Context(), args[0])
				return report(cmd.OutOrStdout(), args[0], "Disabled", err)
			})
		},
	}
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		price      float64
		alertType  string
		oneTime    bool
		persistent bool
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the price, direction or one-time flag of an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.UpdateAlertRequest
			flags := cmd.Flags()
			if flags.Changed("price") {
				req.TargetPrice = utils.ToPointer(price)
			}
			if flags.Changed("type") {
				req.AlertType = utils.ToPointer(alertType)
			}
			switch {
			case flags.Changed("one-time"):
				req.OneTime = utils.ToPointer(oneTime)
			case flags.Changed("persistent"):
				req.OneTime = utils.ToPointer(!persistent)
			}
			return withApp(opts, func(a *app) error {
				_, err := a.alertService.Update(cmd.Context(), args[0], req)
				return report(cmd.OutOrStdout(), args[0], "Updated", err)
			})
		},
	}
	cmd.Flags().Float64VarP(&price, "price", "p", 0, "New target price")
	cmd.Flags().StringVarP(&alertType, "type", "t", "", "New direction: above or below")
	cmd.Flags().BoolVar(&oneTime, "one-time", false, "Deactivate the alert after it fires")
	cmd.Flags().BoolVar(&persistent, "persistent", false, "Keep the alert active after it fires")
	cmd.MarkFlagsMutuallyExclusive("one-time", "persistent")
	return cmd
}

// report prints the outcome of a single-alert command. Unknown IDs are not an
// error.
func report(w io.Writer, id, verb string, err error) error {
	switch {
	case err == nil:
		fmt.Fprintf(w, "%s alert %s.\n", verb, id)
		return nil
	case errors.Is(err, entity.ErrNotFound):
		fmt.Fprintf(w, "Alert %s not found.\n", id)
		return nil
	default:
		return err
	}
}
