package answerer

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nguyentantai21042004/meeting-flow/internal/config"
	"github.com/nguyentantai21042004/meeting-flow/internal/logger"
)

type implAnswerer struct {
	client *resty.Client
	cfg    config.AnswerConfig
	logger logger.Logger
}

// New creates an Answerer backed by the chat completions API.
func New(cfg config.AnswerConfig, log logger.Logger) Answerer {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(60 * time.Second)

	return &implAnswerer{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}
