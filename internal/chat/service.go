package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/suPer8Hu/calmchat/internal/ai"
	"github.com/suPer8Hu/calmchat/internal/canned"
	"github.com/suPer8Hu/calmchat/internal/logging"
	"github.com/suPer8Hu/calmchat/internal/safety"
	"go.uber.org/zap"
)

const SystemPrompt = `You are a warm, caring mental health support assistant, like a supportive friend who truly listens.

Your approach:
- Validate feelings first: "I hear you", "That sounds really hard", "Your feelings make sense"
- Show genuine care and concern in every response
- Offer practical, gentle coping suggestions
- Keep responses conversational (2-3 short paragraphs), not robotic or clinical
- Use "you" and speak directly to the person
- When they share something difficult, acknowledge it before offering advice

Example tone: "I'm really sorry you're going through this. Feeling [X] can be exhausting. Have you tried [gentle suggestion]? And remember, it's okay to reach out to a therapist if things feel too heavy. They're there to help."

Never: diagnose, prescribe, or sound cold. Always: be warm, human, and supportive.`

const Greeting = "Hello. I'm here to listen and support you. You can share how you're feeling, " +
	"whether it's stress, anxiety, sadness, or anything else. How are you doing today?"

const (
	EmptyMessageResponse  = "Please type a message."
	NotConfiguredResponse = "AI is not configured yet. Add GEMINI_API_KEY (free at aistudio.google.com/apikey) " +
		"or GROQ_API_KEY (free at console.groq.com) to the environment, then restart the server."
)

// cannedContextTurns is how many earlier user turns the canned matcher sees.
const cannedContextTurns = 3

const defaultProviderTimeout = 60 * time.Second

// Recorder receives one audit row per provider attempt and per reply.
type Recorder interface {
	Record(ctx context.Context, a *Attempt) error
}

// Alerter is notified when a message trips the crisis filter.
type Alerter interface {
	PublishCrisis(ctx context.Context, alert CrisisAlert) error
}

type Reply struct {
	Response  string `json:"response"`
	IsCrisis  bool   `json:"is_crisis"`
	SessionID string `json:"session_id"`
}

type Options struct {
	// Providers are tried in slice order.
	Providers       []ai.Provider
	ProviderTimeout time.Duration
	Recorder        Recorder
	Alerter         Alerter
	Logger          *zap.Logger
	NewSessionID    func() string
}

type Service struct {
	store     SessionStore
	matcher   *canned.Matcher
	providers []ai.Provider
	timeout   time.Duration
	recorder  Recorder
	alerter   Alerter
	log       *zap.Logger
	newID     func() string
	locks     *keyedMutex
}

func NewService(store SessionStore, matcher *canned.Matcher, opts Options) *Service {
	if matcher == nil {
		matcher = canned.Default()
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewSessionID == nil {
		opts.NewSessionID = uuid.NewString
	}
	return &Service{
		store:     store,
		matcher:   matcher,
		providers: append([]ai.Provider(nil), opts.Providers...),
		timeout:   opts.ProviderTimeout,
		recorder:  opts.Recorder,
		alerter:   opts.Alerter,
		log:       opts.Logger,
		newID:     opts.NewSessionID,
		locks:     newKeyedMutex(),
	}
}

// Configured reports whether at least one provider is available.
func (s *Service) Configured() bool { return len(s.providers) > 0 }

// History returns the stored turns of a session.
func (s *Service) History(ctx context.Context, sessionID string) ([]Turn, error) {
	return s.store.History(ctx, sessionID)
}

// Respond runs one user message through the pipeline. It always produces
// text for the user; failures are logged and absorbed.
func (s *Service) Respond(ctx context.Context, sessionID, message string) Reply {
	start := time.Now()
	if sessionID == "" {
		sessionID = s.newID()
	}
	reply := Reply{SessionID: sessionID}
	log := s.log.With(logging.Session(sessionID))

	message = strings.TrimSpace(message)
	if message == "" {
		reply.Response = EmptyMessageResponse
		s.record(ctx, sessionID, StagePipeline, "", OutcomeEmpty, start)
		return reply
	}

	if phrase, ok := safety.Match(message); ok {
		log.Warn("crisis message intercepted", zap.String("phrase", phrase))
		s.alert(ctx, log, sessionID, phrase)
		reply.Response = safety.CrisisResponse
		reply.IsCrisis = true
		s.record(ctx, sessionID, StagePipeline, "", OutcomeCrisis, start)
		return reply
	}

	if !s.Configured() {
		reply.Response = NotConfiguredResponse
		s.record(ctx, sessionID, StagePipeline, "", OutcomeNotConfigured, start)
		return reply
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	history, err := s.prepare(ctx, sessionID, message)
	if err != nil {
		log.Error("session store unavailable, using canned reply", zap.Error(err))
		reply.Response = s.cannedReply(ctx, log, sessionID, message, nil, start)
		return reply
	}

	messages := make([]ai.Message, 0, len(history))
	for _, t := range history {
		messages = append(messages, ai.Message{Role: t.Role, Content: t.Content})
	}

	for _, p := range s.providers {
		res := s.attempt(ctx, p, messages, sessionID)
		if !res.OK() {
			log.Warn("provider attempt failed",
				zap.String("provider", res.Provider),
				zap.String("kind", string(res.Kind)),
				zap.Error(res.Err),
			)
			continue
		}

		if err := s.store.Append(ctx, sessionID, Turn{Role: RoleAssistant, Content: res.Text}); err != nil {
			log.Error("append assistant turn", zap.Error(err))
		}
		log.Info("reply generated", zap.String("provider", res.Provider), zap.Duration("cost", time.Since(start)))
		s.record(ctx, sessionID, StagePipeline, res.Provider, OutcomeProvider, start)
		reply.Response = res.Text
		return reply
	}

	reply.Response = s.cannedReply(ctx, log, sessionID, message, recentUserTurns(history, cannedContextTurns), start)
	return reply
}

// prepare ensures the session exists, appends the user turn and returns the
// resulting history.
func (s *Service) prepare(ctx context.Context, sessionID, message string) ([]Turn, error) {
	seed := []Turn{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleAssistant, Content: Greeting},
	}
	if _, err := s.store.Ensure(ctx, sessionID, seed); err != nil {
		return nil, err
	}
	if err := s.store.Append(ctx, sessionID, Turn{Role: RoleUser, Content: message}); err != nil {
		return nil, err
	}
	return s.store.History(ctx, sessionID)
}

func (s *Service) attempt(ctx context.Context, p ai.Provider, messages []ai.Message, sessionID string) ai.Result {
	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := ai.Attempt(actx, p, messages)
	outcome := OutcomeOK
	if !res.OK() {
		outcome = string(res.Kind)
	}
	s.record(ctx, sessionID, StageProvider, res.Provider, outcome, start)
	return res
}

func (s *Service) cannedReply(ctx context.Context, log *zap.Logger, sessionID, message string, recent []string, start time.Time) string {
	sel := s.matcher.Select(message, recent)
	log.Info("all providers failed, using canned reply",
		zap.String("rule", sel.Rule),
		zap.String("variant", sel.Variant),
	)
	s.record(ctx, sessionID, StagePipeline, "", OutcomeCanned, start)
	return sel.Text
}

func (s *Service) alert(ctx context.Context, log *zap.Logger, sessionID, phrase string) {
	if s.alerter == nil {
		return
	}
	err := s.alerter.PublishCrisis(ctx, CrisisAlert{
		SessionTag: logging.SessionTag(sessionID),
		Phrase:     phrase,
		At:         time.Now().UTC(),
	})
	if err != nil {
		log.Error("publish crisis alert", zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, sessionID string, stage Stage, provider, outcome string, start time.Time) {
	if s.recorder == nil {
		return
	}
	a := &Attempt{
		SessionTag: logging.SessionTag(sessionID),
		Stage:      stage,
		Provider:   provider,
		Outcome:    outcome,
		LatencyMS:  time.Since(start).Milliseconds(),
	}
	if err := s.recorder.Record(context.WithoutCancel(ctx), a); err != nil {
		s.log.Debug("record audit row", zap.Error(err))
	}
}

// recentUserTurns returns up to n user turns that precede the latest one,
// oldest first.
func recentUserTurns(history []Turn, n int) []string {
	if len(history) > 0 && history[len(history)-1].Role == RoleUser {
		history = history[:len(history)-1]
	}
	var out []string
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		if history[i].Role == RoleUser {
			out = append(out, history[i].Content)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
