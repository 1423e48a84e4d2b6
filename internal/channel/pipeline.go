package channel

import (
	"context"
	"log/slog"
	"strings"
)

// Gateway is the conversational agent invoked for each text message.
// Failures never propagate past the pipeline; they become the fixed
// fallback reply.
type Gateway interface {
	Run(ctx context.Context, text string, sessionID string) (string, error)
}

// Outcome labels how the pipeline resolved an inbound payload.
type Outcome string

const (
	// OutcomeNoMessage means the payload carried nothing actionable.
	OutcomeNoMessage Outcome = "no_message"
	// OutcomeUnsupported means the message type cannot be handled and the
	// fixed text-only reply was substituted without invoking the agent.
	OutcomeUnsupported Outcome = "unsupported"
	// OutcomeReplied means the agent produced the reply.
	OutcomeReplied Outcome = "replied"
	// OutcomeFallback means the agent failed and the fixed fallback reply
	// was substituted.
	OutcomeFallback Outcome = "fallback"
)

// ReplyTexts holds the fixed replies used when the agent cannot answer.
type ReplyTexts struct {
	Fallback string
	Empty    string
	TextOnly string
}

// Result is the pipeline's verdict for one inbound payload. Reply is
// already sanitized for the channel; To is the raw sender identifier the
// reply should be delivered to.
type Result struct {
	Outcome    Outcome
	To         string
	SessionKey string
	Reply      string
}

// Pipeline turns a raw webhook payload into a reply. It owns the
// extract → resolve → invoke → sanitize sequence; delivery stays with the
// webhook endpoint because Twilio replies travel in the HTTP response
// while Meta replies require an outbound call.
type Pipeline struct {
	logger *slog.Logger
	agent  Gateway
	texts  ReplyTexts
}

// NewPipeline creates the shared webhook pipeline.
func NewPipeline(log *slog.Logger, agent Gateway, texts ReplyTexts) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		logger: log.With(slog.String("component", "pipeline")),
		agent:  agent,
		texts:  texts,
	}
}

// Process resolves one inbound payload. It never returns an error: every
// failure mode maps to a Result the endpoint can acknowledge, because the
// messaging provider expects a well-formed response regardless of what
// happened downstream.
func (p *Pipeline) Process(ctx context.Context, ch Channel, payload []byte) Result {
	msg, err := ch.Extract(payload)
	if err != nil {
		p.logger.Warn("discarding malformed payload",
			slog.String("channel", ch.Type().String()),
			slog.Any("error", err))
		return Result{Outcome: OutcomeNoMessage}
	}
	if msg == nil {
		return Result{Outcome: OutcomeNoMessage}
	}

	to := strings.TrimSpace(msg.SenderRaw)
	session := SessionKey(msg.SenderRaw)

	if msg.Type != MessageText || strings.TrimSpace(msg.Text) == "" {
		return Result{
			Outcome:    OutcomeUnsupported,
			To:         to,
			SessionKey: session,
			Reply:      ch.Sanitize(p.texts.TextOnly),
		}
	}

	p.logger.Info("inbound message",
		slog.String("channel", ch.Type().String()),
		slog.String("session", session))

	reply, err := p.agent.Run(ctx, msg.Text, session)
	if err != nil {
		p.logger.Error("agent invocation failed",
			slog.String("session", session),
			slog.Any("error", err))
		return Result{
			Outcome:    OutcomeFallback,
			To:         to,
			SessionKey: session,
			Reply:      ch.Sanitize(p.texts.Fallback),
		}
	}
	if strings.TrimSpace(reply) == "" {
		reply = p.texts.Empty
	}
	return Result{
		Outcome:    OutcomeReplied,
		To:         to,
		SessionKey: session,
		Reply:      ch.Sanitize(reply),
	}
}

// Deliver sends the result's reply through the channel's outbound sender.
// Delivery failures are logged only; the webhook acknowledgement does not
// depend on them.
func (p *Pipeline) Deliver(ctx context.Context, ch Channel, res Result) {
	if res.Reply == "" || res.To == "" {
		return
	}
	if err := ch.Send(ctx, res.To, res.Reply); err != nil {
		p.logger.Error("outbound delivery failed",
			slog.String("channel", ch.Type().String()),
			slog.String("to", res.To),
			slog.Any("error", err))
	}
}
