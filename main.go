package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/sendblast/sendblast/config"
	"github.com/sendblast/sendblast/internal/enum"
	"github.com/sendblast/sendblast/internal/logger"
	"github.com/sendblast/sendblast/internal/models"
	"github.com/sendblast/sendblast/internal/tracing"
	"github.com/sendblast/sendblast/server"
	"github.com/sendblast/sendblast/services"
	"github.com/sendblast/sendblast/services/samplecv"
)

func main() {
	app := &cli.App{
		Name:  "sendblast",
		Usage: "bulk job application email sender",
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "start the HTTP API server",
				Action: runServer,
			},
			{
				Name:  "send",
				Usage: "parse recipients from a file or stdin and dispatch a batch",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "file with text containing addresses (defaults to stdin)",
					},
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Value:   enum.StrategyThrottled.String(),
						Usage:   "delivery strategy: throttled, fast or parallel",
					},
					&cli.StringFlag{
						Name:  "subject",
						Usage: "override the default subject line",
					},
				},
				Action: runSend,
			},
			{
				Name:  "samplecv",
				Usage: "write a demonstration CV PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "cv.pdf",
						Usage:   "output path",
					},
				},
				Action: runSampleCV,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return errors.Wrap(err, "config initialization failed")
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("SendBlast starting up...")

	srv, err := server.NewServer(cfg)
	if err != nil {
		return errors.Wrap(err, "server setup failed")
	}

	return srv.Run()
}

func runSend(c *cli.Context) error {
	cfg, err := config.InitConfig()
	if err != nil {
		return errors.Wrap(err, "config initialization failed")
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err == nil {
		opentracing.SetGlobalTracer(tracer)
		defer closer.Close()
	}

	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("configuration error: %v", err), 1)
	}

	text, err := readInput(c.String("input"))
	if err != nil {
		return err
	}

	strategy := enum.DecodeDeliveryStrategy(c.String("strategy"))
	if strategy == "" {
		return cli.Exit(fmt.Sprintf("unknown strategy %q", c.String("strategy")), 1)
	}

	svcs := services.InitServices(cfg, appLogger)

	span, ctx := tracing.StartTracerSpan(context.Background(), "cli.send")
	defer span.Finish()
	tracing.TagComponentCli(span)

	outcome := svcs.ParserService.Parse(ctx, text)
	fmt.Printf("Found %d valid recipient(s)\n", len(outcome.Valid))
	if len(outcome.Invalid) > 0 {
		fmt.Printf("Filtered %d invalid address(es): %s\n", len(outcome.Invalid), strings.Join(outcome.Invalid, ", "))
	}
	if outcome.DuplicatesRemoved > 0 {
		fmt.Printf("%d duplicate(s) removed\n", outcome.DuplicatesRemoved)
	}
	if len(outcome.Valid) == 0 {
		return cli.Exit("no valid recipients found", 1)
	}

	cvContent, err := os.ReadFile(cfg.ContentConfig.CVPath)
	if err != nil {
		return errors.Wrapf(err, "failed to read CV at %s", cfg.ContentConfig.CVPath)
	}

	subject := c.String("subject")
	if subject == "" {
		subject = svcs.TemplateService.DefaultSubject()
	}

	job := &models.DispatchJob{
		Recipients: outcome.Valid,
		Subject:    subject,
		Body:       svcs.TemplateService.RenderCoverLetter(ctx),
		Attachment: models.NewCVAttachment(cvContent),
		Strategy:   strategy,
	}

	progress := make(chan models.ProgressEvent, len(outcome.Valid))
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer tracing.RecoverAndLogToJaeger(appLogger)
		for event := range progress {
			marker := "✓"
			if !event.Result.Succeeded() {
				marker = "✗"
			}
			fmt.Printf("[%d/%d] %s %s\n", event.Completed, event.Total, marker, event.Result.Recipient)
		}
	}()

	results := svcs.DispatchService.Dispatch(ctx, job, progress)
	<-done

	summary := svcs.DispatchService.Summarize(results)
	fmt.Printf("\nSent %d/%d (%.1f%%)\n", summary.Succeeded, summary.Total, summary.SuccessRate)
	for _, failure := range summary.Failures {
		fmt.Printf("  ✗ %s - %s\n", failure.Recipient, failure.Reason)
	}

	if summary.Failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func runSampleCV(c *cli.Context) error {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()

	svc := samplecv.NewSampleCVService(appLogger)
	path := c.String("output")
	if err := svc.GenerateFile(context.Background(), path); err != nil {
		return err
	}

	fmt.Printf("✓ Sample CV created: %s\n", path)
	return nil
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return string(raw), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	return string(raw), nil
}
