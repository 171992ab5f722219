package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quillon/overload/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Name      string
	CallToken string
	Outcome   string
	CacheHit  string // tri-state: "", "true", "false"
	SinceSeq  int64
	Limit     int
}

// TimelineEvent is one event-log row in the trace timeline.
type TimelineEvent struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"` // "registration" or "resolution"
	Name string `json:"name"`

	// Registration fields.
	Unit      string `json:"unit,omitempty"`
	Index     *int   `json:"index,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Signature string `json:"signature,omitempty"`

	// Resolution fields.
	CallToken   string `json:"call_token,omitempty"`
	Key         string `json:"key,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	RecordIndex *int   `json:"record_index,omitempty"`
	CacheHit    *bool  `json:"cache_hit,omitempty"`
}

// TraceStats holds summary statistics for the selected events.
type TraceStats struct {
	TotalEvents   int `json:"total_events"`
	Registrations int `json:"registrations"`
	Resolutions   int `json:"resolutions"`
	Matched       int `json:"matched"`
	NoMatch       int `json:"no_match"`
	CacheHits     int `json:"cache_hits"`
}

// TraceQueryResult holds the complete trace output.
type TraceQueryResult struct {
	Timeline []TimelineEvent `json:"timeline"`
	Stats    TraceStats      `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Query the recorded event log",
		Long: `Query the trace store's event log.

Shows registrations and resolutions merged in logical time order, with
summary statistics. Filters narrow the selection; resolution-only
filters (--token, --outcome, --cache-hit) leave registrations untouched.

Examples:
  overload trace --db ./overload.db
  overload trace --db ./overload.db --name combine
  overload trace --db ./overload.db --outcome no_match
  overload trace --db ./overload.db --cache-hit true --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceQuery(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to trace store (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "filter to one dispatch name")
	cmd.Flags().StringVar(&opts.CallToken, "token", "", "filter resolutions to one call token")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter resolutions by outcome (matched|no_match)")
	cmd.Flags().StringVar(&opts.CacheHit, "cache-hit", "", "filter resolutions by cache outcome (true|false)")
	cmd.Flags().Int64Var(&opts.SinceSeq, "since", 0, "only events with seq greater than this")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "cap the number of events")

	return cmd
}

func runTraceQuery(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	filter, err := buildFilter(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace store", err)
	}
	defer st.Close()

	events, err := st.ReadEvents(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	if len(events) == 0 {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, TraceQueryResult{Timeline: []TimelineEvent{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No events match the filter.")
		return nil
	}

	result := buildTraceResult(events)

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// buildFilter converts command flags into a store filter.
func buildFilter(opts *TraceOptions) (trace.Filter, error) {
	filter := trace.Filter{
		Name:      opts.Name,
		CallToken: opts.CallToken,
		Outcome:   opts.Outcome,
		SinceSeq:  opts.SinceSeq,
		Limit:     opts.Limit,
	}

	if opts.CacheHit != "" {
		hit, err := strconv.ParseBool(opts.CacheHit)
		if err != nil {
			return trace.Filter{}, fmt.Errorf("invalid --cache-hit %q: want true or false", opts.CacheHit)
		}
		filter.CacheHit = &hit
	}

	if err := filter.Validate(); err != nil {
		return trace.Filter{}, err
	}
	return filter, nil
}

// buildTraceResult converts store events into the timeline with stats.
func buildTraceResult(events []trace.Event) TraceQueryResult {
	result := TraceQueryResult{
		Timeline: make([]TimelineEvent, 0, len(events)),
	}
	result.Stats.TotalEvents = len(events)

	for _, event := range events {
		switch event.Type {
		case trace.EventRegistration:
			row := event.Registration
			idx := row.Index
			result.Timeline = append(result.Timeline, TimelineEvent{
				Seq:       row.Seq,
				Type:      event.Type.String(),
				Name:      row.Name,
				Unit:      row.Unit,
				Index:     &idx,
				Kind:      row.Kind,
				Signature: row.Signature,
			})
			result.Stats.Registrations++

		case trace.EventResolution:
			row := event.Resolution
			idx := row.RecordIndex
			hit := row.CacheHit
			result.Timeline = append(result.Timeline, TimelineEvent{
				Seq:         row.Seq,
				Type:        event.Type.String(),
				Name:        row.Name,
				CallToken:   row.CallToken,
				Key:         row.Key,
				Outcome:     row.Outcome,
				RecordIndex: &idx,
				CacheHit:    &hit,
			})
			result.Stats.Resolutions++
			if row.Outcome == "matched" {
				result.Stats.Matched++
			} else {
				result.Stats.NoMatch++
			}
			if row.CacheHit {
				result.Stats.CacheHits++
			}
		}
	}

	return result
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceQueryResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceQueryResult, verbose bool) error {
	w := cmd.OutOrStdout()

	for _, event := range result.Timeline {
		if event.Type == "registration" {
			fmt.Fprintf(w, "[%d] REG %s record %d kind=%s unit=%s\n",
				event.Seq, event.Name, *event.Index, event.Kind, event.Unit)
			if verbose {
				fmt.Fprintf(w, "      signature %s\n", event.Signature)
			}
			continue
		}

		fmt.Fprintf(w, "[%d] RES %s %s -> %s token=%s\n",
			event.Seq, event.Name, event.Key, describeResolution(event), event.CallToken)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Events: %d (%d registrations, %d resolutions)\n",
		result.Stats.TotalEvents, result.Stats.Registrations, result.Stats.Resolutions)
	fmt.Fprintf(w, "Resolutions: %d matched, %d no match, %d cache hits\n",
		result.Stats.Matched, result.Stats.NoMatch, result.Stats.CacheHits)

	return nil
}

// describeResolution renders a resolution row's outcome.
func describeResolution(event TimelineEvent) string {
	if event.Outcome != "matched" {
		return "no match"
	}
	if event.CacheHit != nil && *event.CacheHit {
		return fmt.Sprintf("record %d (cached)", *event.RecordIndex)
	}
	return fmt.Sprintf("record %d", *event.RecordIndex)
}
