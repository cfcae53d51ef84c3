package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ai"
)

const (
	defaultCandidateName = "Candidate"
	defaultJobTitle      = "the applied position"
	matchPath            = "/candidate/match/"
)

// ErrNoRecipient is returned when the candidate has no e-mail address.
var ErrNoRecipient = errors.New("candidate email not found")

type Drafter interface {
	DraftStatusEmail(ctx context.Context, draft ai.EmailDraft) (string, error)
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Decision is an HR review outcome to announce to a candidate.
type Decision struct {
	MatchID       string
	CandidateName string
	FileName      string
	Email         string
	JobTitle      string
	Status        string
}

// Service drafts and sends status e-mails.
type Service struct {
	drafter     Drafter
	sender      Sender
	frontendURL string
	logger      *zap.Logger
}

// New builds a Service. drafter may be nil, in which case the built-in template is always used.
func New(drafter Drafter, sender Sender, frontendURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		drafter:     drafter,
		sender:      sender,
		frontendURL: strings.TrimRight(strings.TrimSpace(frontendURL), "/"),
		logger:      logger,
	}
}

// MatchLink is the dashboard URL of a match result.
func (s *Service) MatchLink(matchID string) string {
	return s.frontendURL + matchPath + matchID
}

// Compose builds the e-mail for d without sending it.
func (s *Service) Compose(ctx context.Context, d Decision) (Message, error) {
	to := strings.TrimSpace(d.Email)
	if to == "" {
		return Message{}, fmt.Errorf("match result %s: %w", d.MatchID, ErrNoRecipient)
	}

	draft := ai.EmailDraft{
		CandidateName: firstNonEmpty(d.CandidateName, d.FileName, defaultCandidateName),
		JobTitle:      firstNonEmpty(d.JobTitle, defaultJobTitle),
		Status:        d.Status,
		MatchLink:     s.MatchLink(d.MatchID),
	}

	return Message{
		To:      to,
		Subject: "Your Application Update for " + draft.JobTitle,
		Body:    s.body(ctx, draft),
	}, nil
}

// Notify composes and sends the status e-mail for d.
func (s *Service) Notify(ctx context.Context, d Decision) error {
	msg, err := s.Compose(ctx, d)
	if err != nil {
		return err
	}

	if s.sender == nil {
		return errors.New("mail sender is not configured")
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	s.logger.Info("status email sent",
		zap.String("match_id", d.MatchID),
		zap.String("to", msg.To),
		zap.String("status", d.Status),
	)
	return nil
}

func (s *Service) body(ctx context.Context, draft ai.EmailDraft) string {
	if s.drafter != nil {
		body, err := s.drafter.DraftStatusEmail(ctx, draft)
		if err == nil && strings.TrimSpace(body) != "" {
			return body
		}
		s.logger.Warn("email draft generation failed, using template", zap.Error(err))
	}
	return FallbackBody(draft)
}

// FallbackBody is the plain template used when no draft can be generated.
func FallbackBody(draft ai.EmailDraft) string {
	return fmt.Sprintf("Dear %s,\n\nWe wanted to inform you about your %s status for %s.\nPlease check your match details here: %s.\n\nBest regards,\nHR Team",
		draft.CandidateName, draft.Status, draft.JobTitle, draft.MatchLink)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
