package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"hidehate/internal/analytics"
	"hidehate/internal/apiclient"
	"hidehate/internal/app"
	"hidehate/internal/auth"
	"hidehate/internal/cmdlog"
	"hidehate/internal/config"
	"hidehate/internal/dateformat"
	"hidehate/internal/errorroute"
	"hidehate/internal/jobs"
	"hidehate/internal/metrics"
	"hidehate/internal/model"
	"hidehate/internal/store/timelinedb"
	"hidehate/internal/theme"
	"hidehate/internal/timeline"
	"hidehate/internal/util"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "login":
		cmdLogin()
	case "logout":
		cmdLogout()
	case "whoami":
		cmdWhoami()
	case "timeline":
		cmdTimeline()
	case "post":
		cmdPost()
	case "watch":
		cmdWatch()
	case "poll":
		cmdPoll()
	case "history":
		cmdHistory()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: hidehate <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./hidehate.yaml")
	fmt.Println("  login       Sign in and cache the session token")
	fmt.Println("  logout      Drop the cached session token")
	fmt.Println("  whoami      Show the signed-in user")
	fmt.Println("  timeline    Fetch and render the timeline once")
	fmt.Println("  post        Submit a post, confirming if flagged")
	fmt.Println("  watch       Interactive timeline session")
	fmt.Println("  poll        Fetch on an interval, recording new posts")
	fmt.Println("  history     Show recorded activity")
}

func fail(err error) {
	fmt.Println("error:", err)
	os.Exit(1)
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fail(fmt.Errorf("load config %s: %w (run `hidehate init` first)", path, err))
	}
	return cfg
}

func buildProvider(cfg config.Config) *auth.IdentityClient {
	p := auth.NewIdentityClient(cfg.Identity.Endpoint, cfg.Identity.APIKey)
	if tok := os.Getenv("HIDEHATE_ID_TOKEN"); tok != "" {
		p.UseToken(tok)
		return p
	}
	if tok, err := auth.LoadToken(cfg.Identity.TokenPath); err == nil && tok != "" {
		p.UseToken(tok)
	}
	return p
}

func buildSession(cfg config.Config) *app.Session {
	metrics.StartServer(cfg.Metrics.Addr)
	provider := buildProvider(cfg)
	client := apiclient.NewClient(cfg.Server.BaseURL, provider)
	router := errorroute.Router{NotFoundURL: cfg.Server.NotFoundURL}
	adapter := timeline.Adapter{RevealOwnPosts: cfg.Display.RevealOwnPosts}
	s := app.NewSession(client, provider, router, adapter)
	s.SetShowSensitive(cfg.Display.ShowSensitive)
	return s
}

func cmdInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./hidehate.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	if err := config.Save(*path, config.Default()); err != nil {
		fail(err)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdLogin() {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	email := fs.String("email", "", "sign-in email (defaults to identity.email)")
	password := fs.String("password", "", "sign-in password")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	if *email == "" {
		*email = cfg.Identity.Email
	}
	_ = cmdlog.Run("login", func() error {
		provider := auth.NewIdentityClient(cfg.Identity.Endpoint, cfg.Identity.APIKey)
		if err := provider.SignIn(context.Background(), *email, *password); err != nil {
			fail(err)
		}
		tok, _ := provider.CurrentToken()
		if err := auth.SaveToken(cfg.Identity.TokenPath, tok); err != nil {
			fail(err)
		}
		fmt.Println("login success")
		return nil
	})
}

func cmdLogout() {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	if err := auth.ClearToken(cfg.Identity.TokenPath); err != nil {
		fail(err)
	}
	fmt.Println("signed out")
}

func cmdWhoami() {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	_ = cmdlog.Run("whoami", func() error {
		provider := buildProvider(cfg)
		if _, ok := provider.CurrentToken(); !ok {
			fmt.Println("not signed in")
			return nil
		}
		client := apiclient.NewClient(cfg.Server.BaseURL, provider)
		u, err := client.GetUser(context.Background())
		if err != nil {
			fail(err)
		}
		fmt.Printf("%s <%s> id=%s\n", u.Name, u.Email, u.ID)
		return nil
	})
}

func cmdTimeline() {
	fs := flag.NewFlagSet("timeline", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	showSensitive := fs.Bool("show-sensitive", false, "render flagged content")
	offline := fs.Bool("offline", false, "render the last saved snapshot instead of fetching")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	_ = cmdlog.Run("timeline", func() error {
		if *offline {
			renderOffline(cfg, *showSensitive)
			return nil
		}
		s := buildSession(cfg)
		defer s.Close()
		if *showSensitive {
			s.SetShowSensitive(true)
		}
		s.Init(context.Background())
		renderSession(s, cfg.Display.DatePattern)
		saveSnapshot(cfg, s)
		return nil
	})
}

func renderOffline(cfg config.Config, showSensitive bool) {
	db, err := timelinedb.Open(cfg.Storage.DBPath)
	if err != nil {
		fail(err)
	}
	defer db.Close()
	takenAt, items, err := db.LoadLatestSnapshot(context.Background())
	if err != nil {
		fail(err)
	}
	st := timeline.NewStore(cfg.Display.RevealOwnPosts)
	st.ReplaceAll(items)
	fmt.Printf("offline snapshot from %s\n", takenAt.Format(time.RFC3339))
	pref := timeline.Preference{ShowSensitive: showSensitive || cfg.Display.ShowSensitive}
	for p, visible := range st.List(pref, "") {
		renderPost(p, visible, cfg.Display.DatePattern)
	}
}

func saveSnapshot(cfg config.Config, s *app.Session) {
	db, err := timelinedb.Open(cfg.Storage.DBPath)
	if err != nil {
		return
	}
	defer db.Close()
	_ = db.SaveSnapshot(context.Background(), time.Now().UTC(), s.Store().Items())
}

func cmdPost() {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	content := fs.String("content", "", "post text")
	yes := fs.Bool("yes", false, "answer the moderation confirmation without prompting")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	if *content == "" {
		fail(fmt.Errorf("-content is required"))
	}
	_ = cmdlog.Run("post", func() error {
		s := buildSession(cfg)
		defer s.Close()
		ctx := context.Background()
		s.Init(ctx)
		renderNotice(s)
		s.DismissNotice()

		s.SetDraft(*content)
		pending := s.SubmitDraft(ctx)
		if !pending {
			renderOutcome(s, cfg)
			return nil
		}
		renderNotice(s)
		if *yes || promptYes() {
			s.ConfirmPending(ctx)
			renderOutcome(s, cfg)
		} else {
			s.CancelPending()
			fmt.Println("cancelled; draft kept:", s.Draft().Content)
		}
		return nil
	})
}

func renderOutcome(s *app.Session, cfg config.Config) {
	if s.ActiveNotice() != nil || s.Redirect() != "" {
		renderNotice(s)
		return
	}
	fmt.Println("posted")
	renderSession(s, cfg.Display.DatePattern)
	saveSnapshot(cfg, s)
}

func promptYes() bool {
	fmt.Print("post anyway? [y/N] ")
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}
	ans := strings.ToLower(strings.TrimSpace(sc.Text()))
	return ans == "y" || ans == "yes"
}

func cmdWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	_ = cmdlog.Run("watch", func() error {
		s := buildSession(cfg)
		defer s.Close()
		ctx := context.Background()
		theme.PrintBanner()
		s.Init(ctx)
		renderSession(s, cfg.Display.DatePattern)

		// one logical thread: read a command, run it to completion, render
		sc := bufio.NewScanner(os.Stdin)
		fmt.Println(`commands: refresh | reveal <id> | show on|off | post <text> | yes | no | quit`)
		for prompt(); sc.Scan(); prompt() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			verb, rest, _ := strings.Cut(line, " ")
			switch verb {
			case "quit", "q":
				saveSnapshot(cfg, s)
				return nil
			case "refresh":
				s.Refresh(ctx)
			case "reveal":
				s.Reveal(strings.TrimSpace(rest))
			case "show":
				s.SetShowSensitive(strings.TrimSpace(rest) == "on")
			case "post":
				if s.Draft().PendingConfirmation {
					fmt.Println("answer the open confirmation first (yes/no)")
					continue
				}
				s.SetDraft(strings.TrimSpace(rest))
				s.SubmitDraft(ctx)
			case "yes":
				if s.Draft().PendingConfirmation {
					s.ConfirmPending(ctx)
				}
			case "no":
				if s.Draft().PendingConfirmation {
					s.CancelPending()
				}
			default:
				fmt.Println("unknown command:", verb)
				continue
			}
			renderSession(s, cfg.Display.DatePattern)
		}
		return nil
	})
}

func prompt() { fmt.Print("> ") }

func cmdPoll() {
	fs := flag.NewFlagSet("poll", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	interval := fs.Duration("interval", time.Minute, "fetch interval")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	_ = cmdlog.Run("poll", func() error {
		metrics.StartServer(cfg.Metrics.Addr)
		db, err := timelinedb.Open(cfg.Storage.DBPath)
		if err != nil {
			fail(err)
		}
		defer db.Close()
		client := apiclient.NewClient(cfg.Server.BaseURL, buildProvider(cfg))
		adapter := timeline.Adapter{RevealOwnPosts: cfg.Display.RevealOwnPosts}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = jobs.RunFetchLoop(ctx, db, client, adapter, *interval)
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	})
}

func cmdHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cfgPath := fs.String("config", "./hidehate.yaml", "config path")
	since := fs.Duration("since", 24*time.Hour, "how far back to look")
	hourly := fs.Bool("hourly", false, "aggregate into hourly buckets")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	_ = cmdlog.Run("history", func() error {
		db, err := timelinedb.Open(cfg.Storage.DBPath)
		if err != nil {
			fail(err)
		}
		defer db.Close()
		now := time.Now().UTC()
		events, err := db.LoadEventsRange(context.Background(), now.Add(-*since), now.Add(time.Minute), "")
		if err != nil {
			fail(err)
		}
		if *hourly {
			buckets := analytics.HourlyActivity(events)
			for _, hour := range analytics.SortedBucketKeys(buckets) {
				types := make([]string, 0, len(buckets[hour]))
				for typ := range buckets[hour] {
					types = append(types, typ)
				}
				sort.Strings(types)
				fmt.Printf("%s", hour.Format("2006-01-02 15:00"))
				for _, typ := range types {
					fmt.Printf("  %s=%d", typ, buckets[hour][typ])
				}
				fmt.Println()
			}
			return nil
		}
		for _, e := range events {
			ts := time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339)
			mark := ""
			if e.Flagged {
				mark = " [flagged]"
			}
			fmt.Printf("%s %-7s %s%s\n", ts, e.Type, e.PostID, mark)
		}
		return nil
	})
}

func renderSession(s *app.Session, pattern string) {
	if s.Redirect() != "" {
		fmt.Println("navigating to:", s.Redirect())
		return
	}
	renderNotice(s)
	viewerID := ""
	if u := s.User(); u != nil {
		viewerID = u.ID
	}
	n := 0
	for p, visible := range s.Store().List(s.Preference(), viewerID) {
		renderPost(p, visible, pattern)
		n++
	}
	if n == 0 {
		fmt.Println("(timeline is empty)")
	}
}

func renderNotice(s *app.Session) {
	n := s.ActiveNotice()
	if n == nil {
		return
	}
	fmt.Printf("-- %s --\n", n.Title)
	fmt.Println(n.Message)
	if n.CanConfirm {
		fmt.Printf("[%s / %s]\n", n.ConfirmLabel, n.DismissLabel)
	}
}

func renderPost(p model.Post, visible bool, pattern string) {
	mark := ""
	if p.Flagged {
		mark = " ⚠"
	}
	fmt.Printf("%s (%s)%s\n", p.AuthorName, p.AuthorID, mark)
	if visible {
		fmt.Printf("  %s\n", util.Truncate(util.NormalizeWhitespace(p.Content), 140))
	} else {
		fmt.Printf("  ░░░ hidden. `reveal %s` to show\n", p.ID)
	}
	fmt.Printf("  at %s  #%s\n", dateformat.Format(p.CreatedAt, pattern), p.ID)
}
