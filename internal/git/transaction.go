// Package git provides the version-control operations srcstage needs.
// This file implements the transaction manager that turns repeated imports
// into a single reviewable commit.
package git

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// DefaultReferenceBranch is the branch imports are compared against.
const DefaultReferenceBranch = "aosp/master"

// TransactionDecision is the single action a transaction takes.
type TransactionDecision int

// Transaction decisions.
const (
	DecisionNoOp TransactionDecision = iota
	DecisionNewBranchCommit
	DecisionExistingBranchCommit
	DecisionExistingBranchAmend
)

// String returns the decision name.
func (d TransactionDecision) String() string {
	switch d {
	case DecisionNoOp:
		return "no-op"
	case DecisionNewBranchCommit:
		return "new-branch-commit"
	case DecisionExistingBranchCommit:
		return "existing-branch-commit"
	case DecisionExistingBranchAmend:
		return "existing-branch-amend"
	default:
		return "unknown"
	}
}

// DecisionInput is everything Decide looks at.
type DecisionInput struct {
	// BranchExists is true when the branch existed before this run.
	BranchExists bool
	// Overwrite allows reusing an existing branch.
	Overwrite bool
	// HasStagedChanges is the result of the staged-diff probe.
	HasStagedChanges bool
	// AncestryDiverged is true when the branch tip commit differs from the
	// frozen reference commit.
	AncestryDiverged bool
}

// Decide maps repository state to exactly one decision.
// An existing branch without Overwrite is rejected with ErrBranchExists.
func Decide(in DecisionInput) (TransactionDecision, error) {
	switch {
	case in.BranchExists && !in.Overwrite:
		return DecisionNoOp, srcerrors.ErrBranchExists
	case !in.HasStagedChanges:
		return DecisionNoOp, nil
	case !in.BranchExists:
		return DecisionNewBranchCommit, nil
	case in.AncestryDiverged:
		return DecisionExistingBranchAmend, nil
	default:
		return DecisionExistingBranchCommit, nil
	}
}

// BranchOutcome is the result of EnsureBranch.
type BranchOutcome string

// Branch outcomes.
const (
	BranchCreated    BranchOutcome = "created"
	BranchCheckedOut BranchOutcome = "checked_out"
)

// RecordOutcome is the result of RecordChanges.
type RecordOutcome string

// Record outcomes.
const (
	RecordNoOp      RecordOutcome = "no_op"
	RecordAmended   RecordOutcome = "amended"
	RecordCommitted RecordOutcome = "committed"
)

// TransactionManager drives one branch-then-record pass over a Repository.
// It is not safe for concurrent use.
type TransactionManager struct {
	repo            *Repository
	referenceBranch string

	referenceID string
	frozen      bool

	branch  string
	ensured bool
	created bool
}

// NewTransactionManager creates a manager comparing against referenceBranch.
// Empty means DefaultReferenceBranch.
func NewTransactionManager(repo *Repository, referenceBranch string) *TransactionManager {
	if referenceBranch == "" {
		referenceBranch = DefaultReferenceBranch
	}
	return &TransactionManager{repo: repo, referenceBranch: referenceBranch}
}

// ReferenceBranch returns the branch used for ancestry comparison.
func (m *TransactionManager) ReferenceBranch() string {
	return m.referenceBranch
}

// ReferenceCommit returns the frozen reference commit id, or "" before it is
// resolved.
func (m *TransactionManager) ReferenceCommit() string {
	return m.referenceID
}

// freezeReference resolves the reference branch once, before any mutation.
func (m *TransactionManager) freezeReference(ctx context.Context) error {
	if m.frozen {
		return nil
	}
	id, err := m.repo.ResolveRef(ctx, m.referenceBranch)
	if err != nil {
		return fmt.Errorf("failed to resolve reference branch: %w", err)
	}
	m.referenceID = id
	m.frozen = true
	zerolog.Ctx(ctx).Debug().Str("reference", m.referenceBranch).Str("commit", id).Msg("reference commit frozen")
	return nil
}

// EnsureBranch makes name the checked out branch. A new branch starts at the
// reference branch. An existing branch is only reused when overwrite is set;
// otherwise ErrBranchExists is returned and nothing is changed.
func (m *TransactionManager) EnsureBranch(ctx context.Context, name string, overwrite bool) (BranchOutcome, error) {
	if err := m.freezeReference(ctx); err != nil {
		return "", err
	}

	exists, err := m.repo.BranchExists(ctx, name)
	if err != nil {
		return "", err
	}

	log := zerolog.Ctx(ctx).With().Str("branch", name).Logger()

	if _, err := Decide(DecisionInput{BranchExists: exists, Overwrite: overwrite}); err != nil {
		return "", fmt.Errorf("branch %s: %w", name, err)
	}

	m.branch = name
	m.ensured = true

	if exists {
		if err := m.repo.Checkout(ctx, name); err != nil {
			return "", err
		}
		log.Info().Msg("checked out existing branch")
		return BranchCheckedOut, nil
	}

	if err := m.repo.CreateBranch(ctx, name, m.referenceBranch); err != nil {
		return "", err
	}
	m.created = true
	log.Info().Str("start", m.referenceBranch).Msg("created branch")
	return BranchCreated, nil
}

// RecordChanges records the staged changes as one commit.
//
// Nothing staged is RecordNoOp, a terminal success. Otherwise the tip commit
// is amended when it already differs from the frozen reference commit, so
// repeated runs collapse into a single commit; a tip still at the reference,
// or a branch created by this manager, gets a new commit.
func (m *TransactionManager) RecordChanges(ctx context.Context, message string) (RecordOutcome, error) {
	if err := m.freezeReference(ctx); err != nil {
		return "", err
	}

	staged, err := m.repo.HasStagedChanges(ctx)
	if err != nil {
		return "", err
	}

	diverged := false
	if staged {
		tip, tipErr := m.repo.ResolveRef(ctx, "HEAD")
		if tipErr != nil {
			return "", tipErr
		}
		diverged = tip != m.referenceID
	}

	decision, err := Decide(DecisionInput{
		// Without EnsureBranch the checked out branch is treated as reused.
		BranchExists:     !m.ensured || !m.created,
		Overwrite:        true,
		HasStagedChanges: staged,
		AncestryDiverged: diverged,
	})
	if err != nil {
		return "", err
	}

	log := zerolog.Ctx(ctx).With().Str("decision", decision.String()).Str("branch", m.branch).Logger()

	switch decision {
	case DecisionNoOp:
		log.Info().Msg("no changes to commit")
		return RecordNoOp, nil
	case DecisionExistingBranchAmend:
		if err := m.repo.AmendLatest(ctx); err != nil {
			return "", err
		}
		log.Info().Msg("amended tip commit")
		return RecordAmended, nil
	default:
		if err := m.repo.Commit(ctx, message); err != nil {
			return "", err
		}
		log.Info().Msg("created commit")
		return RecordCommitted, nil
	}
}
