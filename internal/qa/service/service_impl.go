package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/config"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"github.com/smallbiznis/courtside/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/courtside/internal/observability/metrics"
	"github.com/smallbiznis/courtside/internal/qa/classifier"
	"github.com/smallbiznis/courtside/internal/qa/domain"
	"github.com/smallbiznis/courtside/internal/qa/template"
	usagedomain "github.com/smallbiznis/courtside/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	outcomeAnswered = "answered"
	outcomeLimited  = "limited"
	outcomeTimedOut = "timed_out"
	outcomeFailed   = "failed"

	limitReachedSummary = "Daily QA limit reached"
)

type Service struct {
	log          *zap.Logger
	timeout      time.Duration
	entitlements entdomain.Service
	usage        usagedomain.Service
	executor     *template.Executor
	audit        domain.AuditRepository
	clock        clock.Clock
	metrics      *obsmetrics.Metrics
}

type ServiceParam struct {
	fx.In

	Log          *zap.Logger
	Cfg          config.Config
	Entitlements entdomain.Service
	Usage        usagedomain.Service
	Executor     *template.Executor
	Audit        domain.AuditRepository
	Clock        clock.Clock
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:          p.Log.Named("qa.service"),
		timeout:      p.Cfg.QA.Timeout,
		entitlements: p.Entitlements,
		usage:        p.Usage,
		executor:     p.Executor,
		audit:        p.Audit,
		clock:        p.Clock,
		metrics:      p.Metrics,
	}
}

// attempt collects what the audit record needs while Ask moves through its branches.
type attempt struct {
	intent  domain.Intent
	limited bool
	summary string
	elapsed time.Duration
	outcome string
}

func (s *Service) Ask(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	at := &attempt{
		intent:  domain.Intent{Type: domain.IntentUnknown, Params: domain.NoParams{}},
		outcome: outcomeFailed,
	}
	answer, err := s.ask(ctx, req, at)

	if auditErr := s.record(ctx, req, question, at); auditErr != nil {
		logger.WithContext(ctx, s.log).Error("failed to write qa audit record",
			zap.Stringer("user_id", req.UserID),
			zap.Error(auditErr),
		)
		if err == nil {
			err = fmt.Errorf("write audit record: %w", auditErr)
			answer = nil
		}
	}
	s.metrics.RecordQAAsk(ctx, at.outcome, string(at.intent.Type))
	return answer, err
}

func (s *Service) ask(ctx context.Context, req domain.AskRequest, at *attempt) (*domain.Answer, error) {
	ent, err := s.entitlements.Get(ctx, req.UserID, req.FallbackPlan)
	if err != nil {
		at.summary = "Entitlement lookup failed"
		return nil, fmt.Errorf("load entitlement: %w", err)
	}
	usage, err := s.usage.GetDailyUsage(ctx, req.UserID, "")
	if err != nil {
		at.summary = "Usage lookup failed"
		return nil, err
	}
	var used int64
	if usage != nil {
		used = usage.QAQueries
	}
	remaining := max(int64(ent.QADailyLimit)-used, 0)

	if remaining <= 0 {
		at.intent = domain.Intent{Type: domain.IntentLimitReached, Params: domain.NoParams{}}
		at.limited = true
		at.summary = limitReachedSummary
		at.outcome = outcomeLimited
		return &domain.Answer{
			Result: domain.Result{Answer: domain.LimitReachedMessage},
			Meta: domain.Meta{
				Limited:          true,
				UsageRemaining:   0,
				Intent:           domain.IntentLimitReached,
				QueriesRemaining: 0,
			},
		}, nil
	}

	at.intent = classifier.Classify(req.Question)

	started := time.Now()
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.executor.Execute(tctx, at.intent, ent.QARowLimit)
	at.elapsed = time.Since(started)

	if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		// A deadline hit consumes quota so a known-slow question cannot be retried for free.
		at.summary = fmt.Sprintf("Timed out after %dms", at.elapsed.Milliseconds())
		at.outcome = outcomeTimedOut
		s.consume(ctx, req)
		left := int(max(remaining-1, 0))
		return &domain.Answer{
			Result: domain.Result{Answer: domain.TimedOutMessage},
			Meta: domain.Meta{
				Intent:           at.intent.Type,
				UsageRemaining:   left,
				QueriesRemaining: left,
			},
		}, nil
	}
	if err != nil {
		at.summary = truncate("Failed: "+err.Error(), domain.SummaryMaxLen)
		return nil, fmt.Errorf("execute %s: %w", at.intent.Type, err)
	}

	if err := s.usage.IncrementUsage(ctx, req.UserID, usagedomain.Delta{QAQueries: 1}, ""); err != nil {
		at.summary = "Usage increment failed"
		return nil, err
	}
	at.summary = truncate(result.Answer, domain.SummaryMaxLen)
	at.outcome = outcomeAnswered

	left := int(max(remaining-1, 0))
	return &domain.Answer{
		Result: result,
		Meta: domain.Meta{
			Intent:           at.intent.Type,
			UsageRemaining:   left,
			QueriesRemaining: left,
		},
	}, nil
}

func (s *Service) consume(ctx context.Context, req domain.AskRequest) {
	if err := s.usage.IncrementUsage(ctx, req.UserID, usagedomain.Delta{QAQueries: 1}, ""); err != nil {
		s.metrics.RecordUsageIncrementFailure(ctx, "qa_queries")
		logger.WithContext(ctx, s.log).Warn("failed to charge timed out question",
			zap.Stringer("user_id", req.UserID),
			zap.Error(err),
		)
	}
}

func (s *Service) record(ctx context.Context, req domain.AskRequest, question string, at *attempt) error {
	params := datatypes.JSON("{}")
	if at.intent.Params != nil {
		raw, err := json.Marshal(at.intent.Params)
		if err != nil {
			return fmt.Errorf("encode intent params: %w", err)
		}
		params = datatypes.JSON(raw)
	}

	rec := &domain.AuditRecord{
		ID:              ulid.Make().String(),
		UserID:          req.UserID,
		Question:        question,
		Intent:          at.intent.Type,
		Parameters:      params,
		Limited:         at.limited,
		ResponseSummary: at.summary,
		ElapsedMs:       at.elapsed.Milliseconds(),
		CreatedAt:       s.clock.Now(),
	}
	return s.audit.Create(context.WithoutCancel(ctx), rec)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
