package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/khansari2403/Auto-Application-sub000/internal/activity"
	"github.com/khansari2403/Auto-Application-sub000/internal/attach"
	"github.com/khansari2403/Auto-Application-sub000/internal/auth"
	"github.com/khansari2403/Auto-Application-sub000/internal/browser"
	"github.com/khansari2403/Auto-Application-sub000/internal/config"
	"github.com/khansari2403/Auto-Application-sub000/internal/discovery"
	"github.com/khansari2403/Auto-Application-sub000/internal/docs"
	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
	"github.com/khansari2403/Auto-Application-sub000/internal/engine"
	"github.com/khansari2403/Auto-Application-sub000/internal/knowledge"
	"github.com/khansari2403/Auto-Application-sub000/internal/mail"
	"github.com/khansari2403/Auto-Application-sub000/internal/resolver"
	"github.com/khansari2403/Auto-Application-sub000/internal/retry"
	"github.com/khansari2403/Auto-Application-sub000/internal/store"
	"github.com/khansari2403/Auto-Application-sub000/internal/verify"
	"github.com/khansari2403/Auto-Application-sub000/internal/vision"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the autoapply config file")
	jobID := flag.String("job", "", "Job ID to submit an application for")
	remember := flag.Bool("remember", false, "Save typed answers to the knowledge base for later runs")
	kbList := flag.Bool("kb-list", false, "List stored knowledge-base entries and exit")
	kbDelete := flag.Int64("kb-delete", 0, "Delete the knowledge-base entry with this id and exit")
	flag.Parse()

	// Local development keys live in .env; absence is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	kb, err := knowledge.New(st.DB)
	if err != nil {
		log.Fatalf("failed to open knowledge base: %v", err)
	}

	if *kbList {
		entries, err := kb.List(ctx)
		if err != nil {
			log.Fatalf("failed to list knowledge base: %v", err)
		}
		for _, e := range entries {
			fmt.Printf("%d\t[%s]\t%s -> %s\n", e.ID, e.Category, e.Question, e.Answer)
		}
		return
	}
	if *kbDelete > 0 {
		if err := kb.Delete(ctx, *kbDelete); err != nil {
			log.Fatalf("failed to delete entry %d: %v", *kbDelete, err)
		}
		fmt.Printf("deleted knowledge entry %d\n", *kbDelete)
		return
	}

	if *jobID == "" {
		log.Fatalf("a -job id is required")
	}

	var sink activity.Sink = activity.LogSink{}
	if cfg.Activity.Dir != "" {
		recorder, err := activity.NewRecorder(cfg.Activity.Dir)
		if err != nil {
			log.Fatalf("failed to open activity trace: %v", err)
		}
		if err := recorder.Start(*jobID); err != nil {
			log.Fatalf("failed to start activity trace: %v", err)
		}
		defer recorder.Close()
		sink = recorder
	}

	mgr := browser.NewManager(cfg.Browser)
	if err := mgr.Start(ctx); err != nil {
		log.Fatalf("failed to start browser: %v", err)
	}
	defer func() {
		if err := mgr.Shutdown(context.Background()); err != nil {
			log.Printf("browser shutdown: %v", err)
		}
	}()

	scanner := &discovery.Scanner{}
	if cfg.Vision.Enable {
		if key := cfg.Vision.APIKey(); key != "" {
			model, err := vision.NewGemini(ctx, key, cfg.Vision.Model, cfg.Vision.GetRequestTimeout())
			if err != nil {
				log.Fatalf("failed to initialize vision model: %v", err)
			}
			scanner.Vision = model
		} else {
			log.Printf("vision enabled but no API key set; running structural-only discovery")
		}
	}

	var inbox *mail.Client
	authFlow := &auth.Flow{
		Poll: retry.Policy{
			MaxAttempts: cfg.Mailbox.GetPollAttempts(),
			Interval:    cfg.Mailbox.GetPollInterval(),
		},
		ElementTimeout: cfg.Browser.ElementTimeout(),
		NavTimeout:     cfg.Browser.NavigationTimeout(),
	}
	if cfg.Mailbox.BaseURL != "" {
		inbox = mail.NewClient(cfg.Mailbox.BaseURL, cfg.Mailbox.Token)
		authFlow.Mail = inbox
	}

	eng := engine.New(
		st,
		kb,
		resolver.New(kb, sink, cfg.Engine.DelayMin(), cfg.Engine.DelayMax()),
		&attach.Uploader{Docs: docs.NewStore(cfg.Documents.Dir), Activity: sink},
		verify.New(3*time.Second),
		&engine.RodDriver{Browser: mgr, Scanner: scanner, Auth: authFlow},
		cfg.Browser.KeepAlive(),
	)
	eng.Activity = sink

	result, err := eng.StartSubmission(ctx, *jobID)
	if err != nil {
		log.Fatalf("submission failed: %v", err)
	}

	if result.Status == domain.StatusQuestionsPending {
		answers := collectAnswers(result.PendingQuestions, *remember)
		result, err = eng.ContinueSubmission(ctx, *jobID, answers)
		if err != nil {
			log.Fatalf("submission failed: %v", err)
		}
	}

	switch result.Status {
	case domain.StatusSubmitted:
		fmt.Printf("application for job %s submitted\n", *jobID)
		if inbox != nil {
			job, err := st.GetJob(ctx, *jobID)
			if err == nil {
				inbox.WatchConfirmation(ctx, sink, *jobID, job.UserID, time.Minute, 10*time.Minute)
			}
		}
		// Keep the page on screen through the grace window.
		if err := retry.Sleep(ctx, cfg.Browser.KeepAlive()); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("keep-alive wait: %v", err)
		}
	default:
		fmt.Printf("job %s needs attention: %s (%s)\n", *jobID, result.Status, result.Reason)
		if _, live := eng.Registry.Get(*jobID); !live {
			os.Exit(1)
		}
		fmt.Println("the browser window stays open; press Ctrl-C to cancel the session")
		<-ctx.Done()
		if err := eng.CancelSubmission(*jobID); err != nil && !errors.Is(err, engine.ErrNoSession) {
			log.Printf("cancel session: %v", err)
		}
	}
}

// collectAnswers asks each open question on stdin. An empty line skips
// the question; skipped questions are discarded by the engine.
func collectAnswers(questions []domain.PendingQuestion, remember bool) []domain.AnswerSubmission {
	reader := bufio.NewReader(os.Stdin)
	var answers []domain.AnswerSubmission

	fmt.Printf("%d questions need answers (empty line skips):\n", len(questions))
	for i, q := range questions {
		fmt.Printf("[%d/%d] %s\n", i+1, len(questions), q.Question)
		if len(q.Options) > 0 {
			fmt.Printf("      options: %s\n", strings.Join(q.Options, ", "))
		}
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		answers = append(answers, domain.AnswerSubmission{
			FieldRef:     q.FieldRef,
			Answer:       line,
			SaveForLater: remember,
		})
	}
	return answers
}
