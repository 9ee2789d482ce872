package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/teams-relay/backend/internal/config"
	"github.com/zhouzirui/teams-relay/backend/internal/logging"
	"github.com/zhouzirui/teams-relay/backend/internal/model/persona"
	"github.com/zhouzirui/teams-relay/backend/internal/service/ai"
	"github.com/zhouzirui/teams-relay/backend/internal/service/command"
	"github.com/zhouzirui/teams-relay/backend/internal/service/history"
	"github.com/zhouzirui/teams-relay/backend/internal/service/session"
)

// app holds the wired services shared by serve and chat.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	personas persona.Store
	persona  persona.Persona
	sessions *session.Service
}

func buildApp(ctx context.Context, opts *globalOptions) (*app, error) {
	dotenvErr := godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadWithFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose {
		cfg.Debug = true
	}

	logger, err := logging.New(cfg.Env, cfg.Debug)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	if dotenvErr != nil {
		logger.Warn("no .env file loaded, using process environment only", zap.Error(dotenvErr))
	}

	personas := persona.NewMemoryStore(persona.Seed())
	active, ok := persona.Resolve(personas, cfg.Behavior.PersonaID)
	if !ok {
		return nil, errors.New("no persona available")
	}

	store := history.NewStore(history.Config{
		MaxHistory:   cfg.Behavior.MaxHistory,
		SystemPrompt: ai.SystemInstruction(cfg.Behavior.SystemPrompt, active),
	}, logger)

	var chatModel model.BaseChatModel
	if cfg.AI.Enabled() {
		cm, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			logger.Warn("failed to initialize chat model, continuing without AI", zap.Error(err))
		} else {
			chatModel = cm
		}
	} else {
		logger.Warn("AI credentials not configured, replies will be canned",
			zap.String("hint", "set OPENAI_API_KEY or ARK_API_KEY"))
	}

	gateway := ai.NewService(chatModel, cfg.AI, logger, cfg.Debug)

	sessions := session.NewService(session.Deps{
		History:   store,
		Commands:  command.NewRouter(store, gateway, logger),
		Completer: gateway,
		Greeting:  active.Greeting,
		Logger:    logger,
	})

	logger.Info("services initialized",
		zap.String("env", cfg.Env),
		zap.String("persona", active.ID),
		zap.Int("max_history", store.MaxHistory()),
		zap.Stringer("ai", gateway.Stats()),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		personas: personas,
		persona:  active,
		sessions: sessions,
	}, nil
}
