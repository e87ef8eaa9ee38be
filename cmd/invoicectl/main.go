package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/higujral/zcollabz/pkg/env"
)

const (
	envAPIURL      = "ZCOLLABZ_API_URL"
	defaultBaseURL = "http://localhost:8080"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Operator commands for the invoicing API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&baseURL, "base-url", env.Get(envAPIURL, defaultBaseURL), "API base URL (env "+envAPIURL+")")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	client := func() *apiClient { return newAPIClient(baseURL, timeout) }

	root.AddCommand(sendInvoiceEmailCmd(client))
	root.AddCommand(sendReceiptEmailCmd(client))
	root.AddCommand(transactionsCmd(client))

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintln(stderr, err)
		return err
	})
	wrapRunE(root, stderr)
	return root
}

func sendInvoiceEmailCmd(client func() *apiClient) *cobra.Command {
	var invoiceID, message string
	cmd := &cobra.Command{
		Use:   "send-invoice-email",
		Short: "Email the invoice PDF and payment link to the client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := client().SendInvoiceEmail(cmd.Context(), invoiceID, message)
			return printResult(cmd.OutOrStdout(), raw, err)
		},
	}
	cmd.Flags().StringVar(&invoiceID, "invoice-id", "", "invoice id")
	cmd.Flags().StringVar(&message, "message", "", "custom message body")
	_ = cmd.MarkFlagRequired("invoice-id")
	return cmd
}

func sendReceiptEmailCmd(client func() *apiClient) *cobra.Command {
	var invoiceID string
	cmd := &cobra.Command{
		Use:   "send-receipt-email",
		Short: "Email the receipt of a paid invoice to the client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := client().SendReceiptEmail(cmd.Context(), invoiceID)
			return printResult(cmd.OutOrStdout(), raw, err)
		},
	}
	cmd.Flags().StringVar(&invoiceID, "invoice-id", "", "invoice id")
	_ = cmd.MarkFlagRequired("invoice-id")
	return cmd
}

func transactionsCmd(client func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := client().Transactions(cmd.Context())
			return printResult(cmd.OutOrStdout(), raw, err)
		},
	}
}

func printResult(out io.Writer, raw []byte, err error) error {
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if indentErr := json.Indent(&pretty, raw, "", "  "); indentErr != nil {
		_, _ = out.Write(raw)
		return nil
	}
	pretty.WriteByte('\n')
	_, _ = out.Write(pretty.Bytes())
	return nil
}

// wrapRunE prints API error envelopes to stderr for every subcommand.
func wrapRunE(root *cobra.Command, stderr io.Writer) {
	for _, cmd := range root.Commands() {
		run := cmd.RunE
		if run == nil {
			continue
		}
		cmd.RunE = func(c *cobra.Command, args []string) error {
			err := run(c, args)
			var apiErr *apiError
			switch {
			case errors.As(err, &apiErr):
				if apiErr.Raw != "" {
					fmt.Fprintln(stderr, apiErr.Raw)
				} else {
					fmt.Fprintln(stderr, apiErr.Error())
				}
			case err != nil:
				fmt.Fprintln(stderr, err)
			}
			return err
		}
	}
}
