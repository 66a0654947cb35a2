package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/lambdaurl"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sirupsen/logrus"

	"greenspace-agent/handler"
	"greenspace-agent/internal/config"
	"greenspace-agent/internal/integrations/gemini"
	"greenspace-agent/internal/integrations/paramstore"
	"greenspace-agent/internal/tools"
	"greenspace-agent/internal/usecase"
)

func main() {
	ctx := context.Background()
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// ---- Configuration (read only here) ----
	var params config.ParamGetter
	if os.Getenv("GEMINI_API_KEY_PARAM") != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.WithError(err).Fatal("failed to load AWS config")
		}
		ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			log.WithError(err).Fatal("failed to create SSM client")
		}
		params = ps
	}
	cfg, err := config.Load(ctx, params)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	// ---- Clients ----
	executor, err := tools.NewExecutor(cfg.APIBaseURL, cfg.DefaultRegion,
		tools.WithHTTPClient(&http.Client{Timeout: cfg.ToolTimeout}),
		tools.WithLogger(log),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create tool executor")
	}

	var llm usecase.LLMStreamer
	if cfg.GeminiAPIKey != "" {
		var opts []gemini.Option
		if cfg.GeminiBaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.GeminiBaseURL))
		}
		client, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, opts...)
		if err != nil {
			log.WithError(err).Fatal("failed to create Gemini client")
		}
		llm = client
	} else {
		log.Warn("model credential absent; chat turns will answer 503")
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(llm, executor, usecase.Config{
		DefaultRegion: cfg.DefaultRegion,
		MaxToolRounds: cfg.MaxToolRounds,
	}, usecase.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("failed to create chat service")
	}
	h, err := handler.New(chatService, handler.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("failed to create handler")
	}

	routes := h.Routes()
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambdaurl.Start(routes)
		return
	}
	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := http.ListenAndServe(cfg.ListenAddr, routes); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
