package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advocatehub/internal/client"
	"advocatehub/pkg/models"
)

var (
	searchLimit  int
	searchOffset int
	liveDelay    time.Duration
	liveWS       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one directory search",
	Example: `  advocates search cardio
  advocates search 10 --limit 5
  advocates search --offset 50`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Search as you type: one query per stdin line",
	Long: `Reads queries from stdin, one per line. Input is debounced and every new
query supersedes the one still in flight, so only the latest answer is shown.`,
	RunE: runLive,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, liveCmd} {
		c.Flags().IntVar(&searchLimit, "limit", 0, "page size (server default when 0)")
		c.Flags().IntVar(&searchOffset, "offset", 0, "rows to skip")
	}
	liveCmd.Flags().DurationVar(&liveDelay, "debounce", client.DefaultDebounce, "pause after typing before searching")
	liveCmd.Flags().BoolVar(&liveWS, "ws", false, "use the websocket live endpoint instead of polling")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	q := strings.Join(args, " ")
	page, err := client.New(apiURL).Search(ctx, q, searchLimit, searchOffset)
	if err != nil {
		return fmt.Errorf("%w: %v", client.ErrLoadFailed, err)
	}
	return printPage(cmd.OutOrStdout(), q, page)
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if liveWS {
		return runLiveWS(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	out := cmd.OutOrStdout()
	c := client.New(apiURL)
	searcher := client.NewSearcher(
		func(ctx context.Context, q string) (models.Page, error) {
			return c.Search(ctx, q, searchLimit, searchOffset)
		},
		func(r client.Result) {
			if r.Err != nil {
				logger.Debug("live search failed", zap.Uint64("seq", r.Seq), zap.Error(r.Err))
				fmt.Fprintln(out, client.ErrLoadFailed)
				return
			}
			_ = printPage(out, r.Query, r.Page)
		},
	)
	defer searcher.Close()

	debouncer := client.NewDebouncer(liveDelay)
	defer debouncer.Stop()

	latest := &latestQuery{}
	submit := func() {
		if q, ok := latest.take(); ok {
			searcher.Submit(ctx, q)
		}
	}
	err := readLines(ctx, cmd.InOrStdin(), func(q string) {
		latest.set(q)
		debouncer.Trigger(submit)
	})

	// on EOF send whatever is still waiting and let it land
	debouncer.Flush(submit)
	searcher.Wait()
	return err
}

func runLiveWS(ctx context.Context, in io.Reader, out io.Writer) error {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := client.DialLive(dialCtx, apiURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	delivered := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			res, err := conn.Next()
			if err != nil {
				return
			}
			if res.Err != nil {
				fmt.Fprintln(out, res.Err)
			} else {
				_ = printPage(out, res.Query, res.Page)
			}
			select {
			case delivered <- struct{}{}:
			default:
			}
		}
	}()

	latest := &latestQuery{}
	send := func() {
		q, ok := latest.take()
		if !ok {
			return
		}
		if err := conn.Send(q, searchLimit, searchOffset); err != nil {
			logger.Debug("live send failed", zap.Error(err))
		}
	}

	debouncer := client.NewDebouncer(liveDelay)
	err = readLines(ctx, in, func(q string) {
		latest.set(q)
		debouncer.Trigger(send)
	})

	if latest.armed() {
		drain(delivered)
		debouncer.Flush(send)
		select {
		case <-delivered:
		case <-ctx.Done():
		case <-time.After(timeout):
		}
	}
	debouncer.Stop()

	// closing the socket ends the reader goroutine
	_ = conn.Close()
	wg.Wait()
	return err
}

// latestQuery holds the most recent unsent query.
type latestQuery struct {
	mu      sync.Mutex
	q       string
	pending bool
}

func (l *latestQuery) set(q string) {
	l.mu.Lock()
	l.q, l.pending = q, true
	l.mu.Unlock()
}

func (l *latestQuery) take() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	q, ok := l.q, l.pending
	l.pending = false
	return q, ok
}

func (l *latestQuery) armed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

func readLines(ctx context.Context, in io.Reader, fn func(string)) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		fn(strings.TrimSpace(sc.Text()))
	}
	return sc.Err()
}

func printPage(w io.Writer, q string, page models.Page) error {
	label := q
	if label == "" {
		label = "(all)"
	}
	fmt.Fprintf(w, "%s: %d match(es), showing %d\n", label, page.Total, len(page.Data))
	if len(page.Data) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCITY\tDEGREE\tYEARS\tPHONE\tSPECIALTIES")
	for _, a := range page.Data {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\t%s\n",
			a.FirstName, a.LastName, a.City, a.Degree,
			a.YearsOfExperience, a.PhoneNumber, strings.Join(a.Specialties, ", "))
	}
	return tw.Flush()
}
