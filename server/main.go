package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"blackjack-engine/server/agent"
	"blackjack-engine/server/engine"
	"blackjack-engine/server/judge"
	"blackjack-engine/server/store"
	"blackjack-engine/server/table"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}
func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }
func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s %s %s\n", dim("──"), bold(title), dim("──"))
}

func outcomeLine(o engine.Outcome) string {
	switch {
	case o.Won():
		return good("YOU WIN.")
	case o.Lost():
		return bad("YOU LOSE.")
	}
	return warn("PUSH")
}

//
// ===== bootstrap =====
//

var stopFlag atomic.Bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	cfg := loadConfig()
	useColor = (os.Getenv("NO_COLOR") == "") && (strings.TrimSpace(os.Getenv("USE_COLOR")) != "0")

	var migrate, play, serve bool
	for _, a := range os.Args[1:] {
		switch a {
		case "--migrate":
			migrate = true
		case "--play":
			play = true
		case "--serve":
			serve = true
		case "--sim":
		default:
			log.Fatalf("unknown flag %q (want --sim, --play, --serve or --migrate)", a)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	switch {
	case migrate:
		if cfg.DatabaseURL == "" {
			log.Fatal("--migrate needs DATABASE_URL")
		}
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatal(err)
		}
		log.Println("migrated")

	case play:
		err := runPlay(ctx, cfg, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			log.Println("hand abandoned")
			return
		}
		if err != nil {
			log.Fatal(err)
		}

	case serve:
		db := openStore(ctx, cfg)
		if db != nil {
			defer db.Close()
		}
		srv := &http.Server{Addr: ":" + cfg.Port, Handler: Router(db, cfg), ReadTimeout: 15 * time.Second, WriteTimeout: 120 * time.Second}
		go func() {
			<-ctx.Done()
			shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shCancel()
			_ = srv.Shutdown(shCtx)
		}()
		log.Printf("listening on http://localhost:%s (Ctrl+C to stop)", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}

	default:
		db := openStore(ctx, cfg)
		if db != nil {
			defer db.Close()
		}
		if err := runSim(ctx, cfg, db, os.Stdout); err != nil {
			log.Fatal(err)
		}
	}
}

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	// first Ctrl+C stops gracefully; the next one gets the default behavior
	signal.Stop(c)
	stopFlag.Store(true)
	cancel()
}

// openStore returns nil when no database is configured or it cannot be used;
// runs still work, they just are not recorded.
func openStore(ctx context.Context, cfg Config) store.Store {
	if cfg.DatabaseURL == "" {
		return nil
	}
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Printf("DB disabled (open failed): %v", err)
		return nil
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			log.Printf("migrate failed (continuing without DB): %v", err)
			db.Close()
			return nil
		}
	}
	return db
}

// stopCheck reports true once Ctrl+C, MAX_SECONDS or STOP_FILE says so.
func stopCheck(cfg Config) func() bool {
	var deadline time.Time
	if cfg.MaxSeconds > 0 {
		deadline = time.Now().Add(time.Duration(cfg.MaxSeconds) * time.Second)
	}
	return func() bool {
		if stopFlag.Load() {
			return true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			stopFlag.Store(true)
			return true
		}
		if cfg.StopFile != "" {
			if _, err := os.Stat(cfg.StopFile); err == nil {
				stopFlag.Store(true)
				return true
			}
		}
		return false
	}
}

//
// ===== interactive hand =====
//

func runPlay(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	rng := rand.New(rand.NewSource(int64(cfg.Seed)))
	g := table.NewGame(rng, judge.New(cfg.Judge))
	if err := g.Deal(); err != nil {
		return err
	}
	console := agent.NewConsole(in, out)
	for g.State() == table.PlayerTurn {
		if _, err := g.Step(ctx, console); err != nil {
			return err
		}
	}

	if g.State() == table.DealerTurn {
		if err := g.PlayDealer(); err != nil {
			return err
		}
		if g.Dealer.Busted() {
			fmt.Fprintf(out, "\nDealer hand: %s\nDealer busts.\n", agent.FormatHand(g.Dealer.Strings()))
		} else {
			fmt.Fprintf(out, "\nYour hand: %s (score %d).\nDealer hand: %s (score %d).\n",
				agent.FormatHand(g.Player.Strings()), g.Player.Score(),
				agent.FormatHand(g.Dealer.Strings()), g.Dealer.Score())
		}
	} else {
		fmt.Fprintf(out, "\nYour hand: %s\nYou bust.\n", agent.FormatHand(g.Player.Strings()))
	}

	res, err := g.Result()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s\n", outcomeLine(res.Outcome))
	return nil
}

//
// ===== batch simulation =====
//

func runSim(ctx context.Context, cfg Config, db store.Store, out io.Writer) error {
	section(out, "SIMULATION")
	log.Printf("seed base: %d (hands=%d trials=%d dealer stands on %d)",
		cfg.Seed, cfg.Hands, cfg.Judge.Trials, cfg.Judge.Rules.DealerStandsOn)
	fmt.Fprintln(out, dim("Ctrl+C stops after the current hand and reports what was played."))

	every := max(cfg.Hands/10, 1)
	rep, err := table.RunBatch(ctx, table.Config{
		Hands: cfg.Hands,
		Seed:  cfg.Seed,
		Judge: cfg.Judge,
		Stop:  stopCheck(cfg),
	}, func(i int, _ table.Result) {
		if (i+1)%every == 0 {
			fmt.Fprintf(out, "%s %s / %s hands\n", dim("•"), humanize.Comma(int64(i+1)), humanize.Comma(int64(cfg.Hands)))
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printReport(out, rep, cfg.Seed)

	if db != nil && rep.Tally.Hands > 0 {
		run := runRecord(rep)
		if err := db.InsertRun(context.Background(), &run); err != nil {
			log.Printf("InsertRun failed: %v", err)
		} else {
			log.Printf("run %s persisted.", run.ID)
		}
	}
	return nil
}

func printReport(out io.Writer, rep table.Report, seed uint64) {
	t := rep.Tally
	section(out, "RESULT")
	if rep.Stopped {
		fmt.Fprintln(out, warn("stopped early; partial tally"))
	}
	if t.Hands == 0 {
		fmt.Fprintln(out, dim("no hands played"))
		return
	}
	fmt.Fprintln(out, t.Summary())
	fmt.Fprintf(out, "%s %s (%s%%)  %s %s (%s%%)  %s %s (%s%%)\n",
		good("wins"), humanize.Comma(int64(t.Wins)), t.WinPct().StringFixed(2),
		bad("losses"), humanize.Comma(int64(t.Losses)), t.LossPct().StringFixed(2),
		warn("pushes"), humanize.Comma(int64(t.Ties)), t.TiePct().StringFixed(2))
	fmt.Fprintf(out, "%s player busts %s · dealer busts %s\n",
		dim("•"), humanize.Comma(int64(t.PlayerBusts)), humanize.Comma(int64(t.DealerBusts)))

	lo, hi := ScoreRateCI95(t)
	fmt.Fprintf(out, "%s score rate 95%% CI [%.3f, %.3f]\n", cyan("Wilson"), lo, hi)
	blo, bhi := BootstrapCI95(rand.New(rand.NewSource(int64(seed))), t.Net(), 1000)
	fmt.Fprintf(out, "%s net/hand 95%% CI [%+.3f, %+.3f]\n", cyan("Bootstrap"), blo, bhi)
	fmt.Fprintf(out, "%s %s\n", dim("elapsed"), rep.Duration.Round(time.Millisecond))
}
