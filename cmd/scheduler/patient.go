package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/validators"
)

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage patient records",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a patient record",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			first, _ := cmd.Flags().GetString("first-name")
			last, _ := cmd.Flags().GetString("last-name")
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			verifyDomain, _ := cmd.Flags().GetBool("verify-domain")

			email = strings.ToLower(strings.TrimSpace(email))
			if first == "" || last == "" {
				return errors.New("--first-name and --last-name are required")
			}
			if email != "" {
				if !validators.IsEmailSyntaxValid(email) {
					return fmt.Errorf("invalid email %q", email)
				}
				if verifyDomain && !validators.IsEmailDomainValid(email) {
					return fmt.Errorf("email domain for %q does not accept mail", email)
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireDurableStore(a.cfg, "patient add"); err != nil {
				return err
			}

			now := a.clock.Now().UTC().Truncate(time.Second)
			p := &models.Patient{
				PatientID: id,
				FirstName: first,
				LastName:  last,
				Email:     email,
				Phone:     phone,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := a.store.PutPatient(ctx, p); err != nil {
				return err
			}

			a.logger.Info().Str("patient_id", id).Msg("patient saved")
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	addCmd.Flags().String("id", "", "Patient id (generated when empty)")
	addCmd.Flags().String("first-name", "", "First name")
	addCmd.Flags().String("last-name", "", "Last name")
	addCmd.Flags().String("email", "", "Email address")
	addCmd.Flags().String("phone", "", "Phone number in E.164 form")
	addCmd.Flags().Bool("verify-domain", false, "Check that the email domain has MX or A records")

	cmd.AddCommand(addCmd)
	return cmd
}
