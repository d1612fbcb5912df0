package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
)

func requestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Appointment requests",
	}

	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Enqueue an appointment request on the intake queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := domain.Request{}
			req.PatientID, _ = cmd.Flags().GetString("patient-id")
			req.AppointmentDate, _ = cmd.Flags().GetString("date")
			req.StartTime, _ = cmd.Flags().GetString("start")
			req.EndTime, _ = cmd.Flags().GetString("end")
			req.Notes, _ = cmd.Flags().GetString("notes")
			skipValidation, _ := cmd.Flags().GetBool("skip-validation")

			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireDurableQueue(a.cfg, "request submit"); err != nil {
				return err
			}

			if !skipValidation {
				hours, err := a.cfg.BusinessHours()
				if err != nil {
					return err
				}
				v := domain.NewValidator(hours, a.cfg.Location())
				if violations := v.Validate(req, a.clock.Now()); len(violations) > 0 {
					return fmt.Errorf("request rejected: %s", strings.Join(violations, "; "))
				}
			}

			msg, err := queue.NewJSONMessage(req, map[string]string{
				dto.AttrMessageType: dto.MessageTypeRequest,
			})
			if err != nil {
				return err
			}

			if err := a.broker.Send(ctx, a.cfg.RequestQueueURL, msg); err != nil {
				return err
			}

			a.logger.Info().Str("message_id", msg.ID).Str("patient_id", req.PatientID).Msg("request submitted")
			fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
			return nil
		},
	}
	submitCmd.Flags().String("patient-id", "", "Patient id")
	submitCmd.Flags().String("date", "", "Appointment date (YYYY-MM-DD)")
	submitCmd.Flags().String("start", "", "Start time (HH:MM)")
	submitCmd.Flags().String("end", "", "End time (HH:MM)")
	submitCmd.Flags().String("notes", "", "Optional notes")
	submitCmd.Flags().Bool("skip-validation", false, "Enqueue without checking the request locally")

	cmd.AddCommand(submitCmd)
	return cmd
}
