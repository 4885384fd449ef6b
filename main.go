package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"nexuslm/agent"
	"nexuslm/audit"
	"nexuslm/cart"
	"nexuslm/catalog"
	"nexuslm/config"
	"nexuslm/crm"
	"nexuslm/customer"
	"nexuslm/logger"
	"nexuslm/notify"
	"nexuslm/recommend"
	"nexuslm/server"
	"nexuslm/tools"
)

func main() {
	envFile := flag.String("env", "", "path to an env file (defaults to ./.env when present)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}
	logger.Init(logger.Config{Debug: cfg.LogDebug, Pretty: cfg.LogPretty})

	// Set up context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("nexuslm stopped")
	}
	log.Info().Msg("nexuslm stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	computeSvc, billingSvc, err := catalog.NewGoogleClients(ctx)
	if err != nil {
		return err
	}
	compute := catalog.NewGCP(computeSvc, cfg.CloudProject, cfg.CallTimeout)
	prices := catalog.NewGCPBilling(billingSvc, cfg.CloudLocation, cfg.CallTimeout)

	customers, closeCustomers, err := openCustomers(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCustomers()

	recorder := openRecorder(cfg)
	defer recorder.Close()

	instructions := notify.DefaultInstructions()
	if cfg.SecurityCatalogFile != "" {
		if instructions, err = notify.LoadInstructions(cfg.SecurityCatalogFile); err != nil {
			return err
		}
	}

	mailer := notify.NewSMTPMailer(cfg.SMTPAddr(), cfg.SenderEmail, cfg.SenderPassword, cfg.CallTimeout)
	if !cfg.MailConfigured() {
		log.Warn().Msg("sender credentials not set, e-mail delivery will fail")
	}
	var sms notify.SMSSender
	if cfg.SMSConfigured() {
		sms = notify.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	}

	// Set up tool registry
	registry := tools.NewRegistry(cfg.CallTimeout, recorder)
	registry.Register(tools.NewInvitationTool(notify.NewInvitations(mailer, cfg.MeetingBaseURL)))
	registry.Register(tools.NewCRMTool(crm.NewUpdater(crm.NewHubSpot(cfg.HubSpotBaseURL, cfg.HubSpotAPIKey, cfg.CallTimeout))))
	registry.Register(tools.NewCartTool(cart.NewCalculator(compute, prices), cfg.CloudZone))
	registry.Register(tools.NewRecommendationTool(recommend.NewEngine(compute), cfg.CloudZone))
	registry.Register(tools.NewSecurityTool(notify.NewSecurity(instructions, customers, mailer, sms)))
	log.Info().Int("tools", len(registry.All())).Msg("registered tools")

	chatAgent := agent.New(newProvider(cfg), registry, customers, agent.Options{
		Name:          cfg.AgentName,
		RatePerSecond: cfg.ModelRate,
		Burst:         cfg.ModelBurst,
	})

	log.Info().Str("agent", cfg.AgentName).Str("provider", cfg.AgentProvider).Str("model", cfg.AgentModel).Msg("agent ready")

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(registry, chatAgent, cfg.DefaultCustomerID).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("serving HTTP")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if cfg.TelegramToken != "" {
		bot, err := newTelegramBot(cfg, chatAgent)
		if err != nil {
			return err
		}
		go func() {
			bot.Run(ctx)
		}()
	} else {
		log.Info().Msg("no Telegram token, chat bot disabled")
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errc:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openCustomers(ctx context.Context, cfg *config.Config) (customer.Repository, func(), error) {
	if cfg.DatabaseDSN == "" {
		log.Warn().Msg("no database configured, serving demo customer profiles")
		return customer.NewStubRepository(), func() {}, nil
	}
	repo, err := customer.OpenPostgres(cfg.DatabaseDSN, cfg.CallTimeout)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.Ping(ctx); err != nil {
		repo.Close()
		return nil, nil, err
	}
	return repo, func() { repo.Close() }, nil
}

func openRecorder(cfg *config.Config) audit.Recorder {
	if cfg.AMQPURL == "" {
		return audit.Nop{}
	}
	rec, err := audit.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Error().Err(err).Msg("audit broker unavailable, interactions will not be published")
		return audit.Nop{}
	}
	return rec
}

func newProvider(cfg *config.Config) agent.ChatProvider {
	if cfg.AgentProvider == "openai" {
		return agent.NewOpenAI(cfg.AgentModel, cfg.APIKey, cfg.OpenAIBaseURL)
	}
	return agent.NewOllama(cfg.AgentModel, cfg.AgentURL)
}
