package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-book-payments/app/mapper"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Inspect gateway credential sets",
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List credential sets with masked secrets",
	Run: func(_ *cobra.Command, _ []string) {
		_, paymentService, cleanup := mustCreatePaymentService()
		defer cleanup()

		sets, err := paymentService.ListCredentials(context.Background())
		if err != nil {
			logrus.WithError(err).Fatal("Failed to list credentials")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODE\tPROJECT\tSECRET\tSIGNATURE KEY\tBASE URL\tACTIVE")
		for _, dto := range mapper.CredentialSetsToDTO(sets) {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\n",
				dto.Id, dto.Mode, dto.ProjectId, dto.ProjectSecret, dto.SignatureKey, dto.ApiBaseUrl, dto.IsActive)
		}
		_ = w.Flush()
	},
}

var credentialsTestCmd = &cobra.Command{
	Use:   "test [id]",
	Short: "Acquire a gateway token with a credential set (active set when no id is given)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		var id uint64
		if len(args) == 1 {
			parsed, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logrus.WithError(err).Fatal("Invalid credential id")
			}
			id = parsed
		}

		_, paymentService, cleanup := mustCreatePaymentService()
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		set, err := paymentService.TestCredentials(ctx, id)
		if err != nil {
			logrus.WithError(err).Error("Credential test failed")
			cleanup()
			os.Exit(1)
		}
		logrus.WithFields(logrus.Fields{
			"credential_id": set.ID,
			"mode":          set.Mode,
		}).Info("Credential test succeeded")
	},
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsCmd.AddCommand(credentialsTestCmd)
}
