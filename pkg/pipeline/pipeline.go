// Package pipeline sequences one acquisition run: credential, owner, enumeration, and
// per-item processing into the episode store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podcast-sync/pkg/domain"
	"podcast-sync/pkg/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of a run.
type State string

const (
	StateResolvingCredential State = "resolving_credential"
	StateResolvingOwner      State = "resolving_owner"
	StateEnumerating         State = "enumerating"
	StateProcessingItems     State = "processing_items"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// CredentialResolver yields the credential for this run
type CredentialResolver interface {
	Resolve(ctx context.Context) (domain.Credential, error)
}

// OwnerResolver looks up the account behind a profile URL
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, cred domain.Credential, profileURL string) (*domain.Owner, error)
}

// Paginator enumerates every item of an owner
type Paginator interface {
	FetchAll(ctx context.Context, cred domain.Credential, ownerID int64) ([]domain.Item, error)
}

// DetailFetcher loads the full record of one item. ok is false when the detail is unavailable.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, cred domain.Credential, itemID int64) (*domain.Item, bool)
}

// MediaResolver finds a playable location for an item, or nil
type MediaResolver interface {
	Resolve(ctx context.Context, cred domain.Credential, item domain.Item) *string
}

// EpisodeSaver persists one episode record and reads back the stored, date-stamped episode
type EpisodeSaver interface {
	Upsert(ctx context.Context, rec domain.Record) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Episode, error)
}

// StageError marks a run-aborting failure and names the stage it happened in.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Config wires the run dependencies.
type Config struct {
	ProfileURL string

	Credentials CredentialResolver
	Owners      OwnerResolver
	Items       Paginator
	Details     DetailFetcher
	Media       MediaResolver
	Store       EpisodeSaver

	Logger *zap.Logger
}

// Result summarizes a finished run.
type Result struct {
	RunID    uuid.UUID
	Owner    domain.Owner
	Episodes []domain.Episode // newest first
	Skipped  int              // not streamable
	Failed   int              // dropped after an item-level error
	Elapsed  time.Duration
}

// Pipeline runs the acquisition steps in order.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
	state  State
	now    func() time.Time
}

// New validates the wiring and returns a pipeline.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.ProfileURL == "":
		return nil, errors.New("profile URL is required")
	case cfg.Credentials == nil:
		return nil, errors.New("credential resolver is required")
	case cfg.Owners == nil:
		return nil, errors.New("owner resolver is required")
	case cfg.Items == nil:
		return nil, errors.New("paginator is required")
	case cfg.Details == nil:
		return nil, errors.New("detail fetcher is required")
	case cfg.Media == nil:
		return nil, errors.New("media resolver is required")
	case cfg.Store == nil:
		return nil, errors.New("episode store is required")
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logging.Component(cfg.Logger, "pipeline"),
		state:  StateDone,
		now:    time.Now,
	}, nil
}

// State reports the step the pipeline is in, or the terminal state of the last run.
func (p *Pipeline) State() State {
	return p.state
}

// Run performs one full pass. Failures resolving the credential, the owner, or the item
// list abort the run with a *StageError before anything is written. Item-level problems
// only drop the affected item.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := p.now()
	res := &Result{RunID: uuid.New()}
	logger := p.logger.With(zap.String(logging.FieldRunID, res.RunID.String()))
	logger.Info("run started", zap.String(logging.FieldURL, p.cfg.ProfileURL))

	p.enter(StateResolvingCredential, logger)
	cred, err := p.cfg.Credentials.Resolve(ctx)
	if err != nil {
		return nil, p.fail(StateResolvingCredential, err, logger)
	}

	p.enter(StateResolvingOwner, logger)
	owner, err := p.cfg.Owners.ResolveOwner(ctx, cred, p.cfg.ProfileURL)
	if err != nil {
		return nil, p.fail(StateResolvingOwner, err, logger)
	}
	res.Owner = *owner
	logger.Info("owner resolved", zap.Int64("owner_id", owner.ID), zap.String("username", owner.Username))

	p.enter(StateEnumerating, logger)
	items, err := p.cfg.Items.FetchAll(ctx, cred, owner.ID)
	if err != nil {
		return nil, p.fail(StateEnumerating, err, logger)
	}
	logger.Info("items enumerated", zap.Int("count", len(items)))

	p.enter(StateProcessingItems, logger)
	for _, summary := range items {
		ep, outcome := p.processItem(ctx, cred, summary, logger)
		switch outcome {
		case outcomeStored:
			res.Episodes = append(res.Episodes, *ep)
		case outcomeSkipped:
			res.Skipped++
		case outcomeFailed:
			res.Failed++
		}
	}

	domain.SortNewestFirst(res.Episodes)
	res.Elapsed = p.now().Sub(start)
	p.enter(StateDone, logger)
	logger.Info("run finished",
		zap.Int("stored", len(res.Episodes)),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Pipeline) enter(state State, logger *zap.Logger) {
	p.state = state
	logger.Debug("stage", zap.String(logging.FieldStage, string(state)))
}

func (p *Pipeline) fail(stage State, err error, logger *zap.Logger) error {
	p.state = StateFailed
	logger.Error("run failed", zap.String(logging.FieldStage, string(stage)), zap.Error(err))
	return &StageError{Stage: stage, Err: err}
}
