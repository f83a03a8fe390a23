package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"catapult/internal/app"
	"catapult/internal/platform/middleware"
)

type WaiveOptions struct {
	*RootOptions
	TenantID int64
	Reason   string
}

// NewWaiveCommand waives an AU through the same workflow as the HTTP API.
func NewWaiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WaiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "waive <registration-id-or-code> <au-index>",
		Short: "Waive an AU for a registration",
		Long: `Waive an AU for a registration.

Sends the waived statement and any satisfied statements to the LRS and
commits the registration only when every statement was accepted.

Example:
  catapultctl waive 6f0c1b3e-2d7a-4e55-8c1e-1a2b3c4d5e6f 2 --tenant 7 --reason "prior learning"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			auIndex, err := strconv.Atoi(args[1])
			if err != nil || auIndex < 0 {
				return fmt.Errorf("invalid au-index %q: must be a non-negative integer", args[1])
			}
			if err := opts.validate(); err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Registrations.WaiveAU(cmd.Context(), opts.TenantID, args[0], auIndex, opts.Reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "waived AU %d of %s\n", auIndex, args[0])
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&opts.TenantID, "tenant", 0, "tenant id")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "waiver reason recorded on the AU and in the statement")

	return cmd
}

func (o *WaiveOptions) validate() error {
	if o.TenantID <= 0 {
		return fmt.Errorf("--tenant is required")
	}
	o.Reason = strings.TrimSpace(o.Reason)
	if o.Reason == "" {
		return fmt.Errorf("--reason is required")
	}
	return nil
}

type DeleteCourseOptions struct {
	*RootOptions
	TenantID int64
}

func NewDeleteCourseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteCourseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "delete-course <course-id>",
		Short:         "Delete a course here and in the companion service",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid course-id %q", args[0])
			}
			if opts.TenantID <= 0 {
				return fmt.Errorf("--tenant is required")
			}
			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Courses.Delete(cmd.Context(), opts.TenantID, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted course %d\n", id)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&opts.TenantID, "tenant", 0, "tenant id")

	return cmd
}

type TokenOptions struct {
	*RootOptions
	TenantID   int64
	TTL        time.Duration
	SigningKey string
}

// NewTokenCommand issues a bearer token for calling the API as a tenant.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "token",
		Short:         "Issue a tenant bearer token",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.TenantID <= 0 {
				return fmt.Errorf("--tenant is required")
			}
			if opts.SigningKey == "" {
				return fmt.Errorf("--signing-key or JWT_SIGNING_KEY is required")
			}
			token, err := middleware.NewTenantValidator(opts.SigningKey).Sign(opts.TenantID, opts.TTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&opts.TenantID, "tenant", 0, "tenant id")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.SigningKey, "signing-key", os.Getenv("JWT_SIGNING_KEY"), "HS256 signing key")

	return cmd
}
