package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/grove/internal/domain/model"
	"github.com/okian/grove/internal/domain/progression"
	"github.com/okian/grove/internal/domain/types"
)

const clientTimeout = 10 * time.Second

var errRequest = errors.New("request failed")

// client talks to a running grove server.
type client struct {
	base string
	http *http.Client
}

func newClient(base string) *client {
	return &client{base: strings.TrimRight(base, "/"), http: &http.Client{Timeout: clientTimeout}}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%w: %s %s: %d %s", errRequest, method, path, resp.StatusCode, e.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newClientCmds(serverURL *string) []*cobra.Command {
	var asJSON bool

	status := &cobra.Command{
		Use:   "status",
		Short: "Show stage, XP and today's rituals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var st types.Snapshot
			if err := newClient(*serverURL).do(cmd.Context(), http.MethodGet, "/state", nil, &st); err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), st)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
	status.Flags().BoolVar(&asJSON, "json", false, "print the raw snapshot")

	questions := &cobra.Command{
		Use:   "questions",
		Short: "List the onboarding questions and option indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var qs []struct {
				Prompt  string `json:"prompt"`
				Options []struct {
					Index int    `json:"index"`
					Text  string `json:"text"`
				} `json:"options"`
			}
			if err := newClient(*serverURL).do(cmd.Context(), http.MethodGet, "/onboarding/questions", nil, &qs); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, q := range qs {
				_, _ = fmt.Fprintf(w, "%d. %s\n", i+1, q.Prompt)
				for _, o := range q.Options {
					_, _ = fmt.Fprintf(w, "   [%d] %s\n", o.Index, o.Text)
				}
			}
			return nil
		},
	}

	var answers []int
	onboard := &cobra.Command{
		Use:   "onboard",
		Short: "Dismiss the welcome screen and submit onboarding answers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient(*serverURL)
			if err := c.do(cmd.Context(), http.MethodPost, "/welcome", nil, nil); err != nil {
				return err
			}
			var res struct {
				Score      float64 `json:"score"`
				Title      string  `json:"title"`
				Message    string  `json:"message"`
				StartingXP int     `json:"starting_xp"`
			}
			if err := c.do(cmd.Context(), http.MethodPost, "/onboarding/complete", map[string][]int{"answers": answers}, &res); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "score %.0f: %s, starting at %d XP\n%s\n", res.Score, res.Title, res.StartingXP, res.Message)
			return nil
		},
	}
	onboard.Flags().IntSliceVar(&answers, "answers", nil, "option index per question, e.g. 0,1,2,1,0")
	_ = onboard.MarkFlagRequired("answers")

	activate := &cobra.Command{
		Use:   "activate",
		Short: "Run the daily reset check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res struct {
				Reset bool `json:"reset"`
			}
			if err := newClient(*serverURL).do(cmd.Context(), http.MethodPost, "/activate", nil, &res); err != nil {
				return err
			}
			if res.Reset {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "new day: rituals regenerated")
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "same day: nothing to reset")
			}
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <ritual-id>",
		Short: "Toggle a ritual's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r model.Ritual
			path := "/rituals/" + url.PathEscape(args[0]) + "/toggle"
			if err := newClient(*serverURL).do(cmd.Context(), http.MethodPost, path, nil, &r); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", checkbox(r.IsCompleted), r.Title)
			return nil
		},
	}

	mood := &cobra.Command{
		Use:       "mood <calm|happy|stressed|tired|overwhelmed>",
		Short:     "Select today's mood",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"calm", "happy", "stressed", "tired", "overwhelmed"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var res struct {
				Mood    string  `json:"mood"`
				Overall float64 `json:"overall"`
			}
			if err := newClient(*serverURL).do(cmd.Context(), http.MethodPut, "/mood", map[string]string{"mood": args[0]}, &res); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mood %s, overall %.1f\n", res.Mood, res.Overall)
			return nil
		},
	}

	events := &cobra.Command{
		Use:   "events",
		Short: "Print progression events since the last poll",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res struct {
				Events []progression.Event `json:"events"`
			}
			if err := newClient(*serverURL).do(cmd.Context(), http.MethodGet, "/events", nil, &res); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, e := range res.Events {
				switch e.Kind {
				case progression.EventPromotion, progression.EventDemotion:
					_, _ = fmt.Fprintf(w, "%s %s: %s -> %s (%d XP)\n", e.At.Format(time.RFC3339), e.Kind, e.From, e.To, e.TotalXP)
				default:
					_, _ = fmt.Fprintf(w, "%s %s: %d XP today, %d total\n", e.At.Format(time.RFC3339), e.Kind, e.TodayXP, e.TotalXP)
				}
			}
			return nil
		},
	}

	return []*cobra.Command{status, questions, onboard, activate, toggle, mood, events}
}

func printStatus(w io.Writer, st types.Snapshot) {
	_, _ = fmt.Fprintf(w, "screen: %s\n", st.Screen)
	_, _ = fmt.Fprintf(w, "stage:  %s, %d XP", st.Stage.Title, st.TotalXP)
	if st.Stage.NextXP != nil {
		_, _ = fmt.Fprintf(w, " (next at %d)", *st.Stage.NextXP)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "today:  %d XP, %.0f%% complete\n", st.TodayXP, st.CompletionPercent)
	_, _ = fmt.Fprintf(w, "mood:   %s\n", st.Mood)
	for _, r := range st.Rituals {
		_, _ = fmt.Fprintf(w, "%s %s  %s (%s)\n", checkbox(r.IsCompleted), r.ID, r.Title, r.Category)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
