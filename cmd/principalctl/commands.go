package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/recorder"
)

type clientFunc func() *client

// requestFlags binds the flags shared by process and submit.
type requestFlags struct {
	id       string
	user     string
	rtype    string
	priority string
	metadata string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "id", "", "request ID (default: random UUID)")
	cmd.Flags().StringVarP(&f.user, "user", "u", "", "user ID (required)")
	cmd.Flags().StringVarP(&f.rtype, "type", "t", string(request.TypeGeneral),
		"request type: financial_health, utility_management, vehicle_management or general")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVarP(&f.metadata, "metadata", "m", "", `metadata as a JSON object, e.g. '{"monthly_income":5000}'`)
	_ = cmd.MarkFlagRequired("user")
}

// build assembles the request from the flags and the description words.
func (f *requestFlags) build(args []string) (*request.Request, error) {
	req := &request.Request{
		ID:          f.id,
		UserID:      f.user,
		Type:        request.Type(f.rtype),
		Description: strings.Join(args, " "),
		Priority:    request.Priority(f.priority),
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if f.metadata != "" {
		if err := json.Unmarshal([]byte(f.metadata), &req.Metadata); err != nil {
			return nil, fmt.Errorf("--metadata: %w", err)
		}
	}
	return req, nil
}

func newProcessCmd(c clientFunc, v *viper.Viper) *cobra.Command {
	var f requestFlags
	cmd := &cobra.Command{
		Use:   "process [description...]",
		Short: "Process a request synchronously and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.build(args)
			if err != nil {
				return err
			}
			resp, err := c().Process(cmd.Context(), req)
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	f.bind(cmd)
	return cmd
}

func newSubmitCmd(c clientFunc, v *viper.Viper) *cobra.Command {
	var (
		f    requestFlags
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "submit [description...]",
		Short: "Queue a request for background processing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.build(args)
			if err != nil {
				return err
			}
			ack, err := c().Submit(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !wait {
				if v.GetBool("json") {
					return printJSON(cmd.OutOrStdout(), ack)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "accepted %s, processing id %s\n", ack.RequestID, ack.ProcessingID)
				return err
			}
			return pollUntilDone(cmd.Context(), c(), cmd.OutOrStdout(), ack.ProcessingID, time.Second, v.GetBool("json"))
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the request finishes")
	return cmd
}

func newPollCmd(c clientFunc, v *viper.Viper) *cobra.Command {
	var (
		wait     bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "poll <processing-id>",
		Short: "Show the state of a queued request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wait {
				return pollUntilDone(cmd.Context(), c(), cmd.OutOrStdout(), args[0], interval, v.GetBool("json"))
			}
			st, err := c().Poll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printStatus(cmd.OutOrStdout(), st, v.GetBool("json"))
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the request finishes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "poll interval with --wait")
	return cmd
}

func newCancelCmd(c clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <processing-id>",
		Short: "Cancel a queued or running request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c().Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "cancelled", args[0])
			return err
		},
	}
}

func newStatusCmd(c clientFunc, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show specialists, queue and processing counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c().Status(cmd.Context())
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), st)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (initialized: %t)\n", st.Name, st.Initialized)
			fmt.Fprintf(out, "processed %d, published %d, partial %d, rejected %d\n", st.Processed, st.Published, st.Partial, st.Rejected)
			if st.Queue != nil {
				fmt.Fprintf(out, "queue %d/%d, running %d\n", st.Queue.Depth, st.Queue.Capacity, st.Queue.Running)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "\nSPECIALIST\tREQUEST TYPE\tINITIALIZED\tTHRESHOLD\tCIRCUIT")
			for _, sp := range st.Specialists {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%.2f\t%s\n", sp.Name, sp.RequestType, sp.Initialized, sp.Threshold, sp.Circuit)
			}
			return w.Flush()
		},
	}
}

func newResponsesCmd(c clientFunc, v *viper.Viper) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "responses",
		Short: "List recently recorded responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c().Responses(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return printJSON(cmd.OutOrStdout(), list)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "REQUEST\tTYPE\tSTATUS\tSCORE\tDISPATCHED\tFAILED")
			for _, r := range list.Responses {
				s := r.Summarize()
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%d\n", s.RequestID, s.RequestType, s.PublicationStatus, s.FinalScore, s.Dispatched, s.Failed)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", recorder.DefaultLimit, "maximum number of responses")
	return cmd
}

func newSpecialistCmd(c clientFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specialist",
		Short: "Add or remove specialists (requires the admin key)",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a specialist from the server catalog and register it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c().AddSpecialist(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "added", args[0])
				return err
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Unregister a specialist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c().RemoveSpecialist(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "removed", args[0])
				return err
			},
		},
	)
	return cmd
}

// pollUntilDone polls processingID every interval until it reaches a
// terminal state, then prints it.
func pollUntilDone(ctx context.Context, c *client, out io.Writer, processingID string, interval time.Duration, asJSON bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st, err := c.Poll(ctx, processingID)
		if err != nil {
			return err
		}
		if st.State.Terminal() {
			if err := printStatus(out, st, asJSON); err != nil {
				return err
			}
			if st.State == response.DispatchFailed {
				return errors.New("processing failed: " + st.Error)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func printStatus(out io.Writer, st response.DispatchStatus, asJSON bool) error {
	if asJSON {
		return printJSON(out, st)
	}
	fmt.Fprintf(out, "%s (%s): %s\n", st.ProcessingID, st.RequestID, st.State)
	if st.Error != "" {
		fmt.Fprintln(out, "error:", st.Error)
	}
	if st.Response != nil {
		return printResponse(out, st.Response)
	}
	return nil
}

func printResponse(out io.Writer, resp *response.Response) error {
	score := 0.0
	if resp.FinalQualityReport != nil {
		score = resp.FinalQualityReport.OverallScore
	}
	fmt.Fprintf(out, "%s: %s (score %.2f, %d dispatched)\n", resp.RequestID, resp.PublicationStatus, score, len(resp.Dispatched))
	for _, d := range slices.Sorted(maps.Keys(resp.FailedExperts)) {
		fmt.Fprintf(out, "  %s failed: %s\n", d, resp.FailedExperts[d])
	}
	if resp.Synthesis != nil {
		_, err := fmt.Fprintln(out, resp.Synthesis.Summary)
		return err
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
