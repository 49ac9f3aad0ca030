// Package executor drives the perceive-plan-act loop: observe the
// repository, plan toward the goal, execute exactly one action, observe
// again, and replan whenever the observation disagrees with the prediction.
package executor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gitgoal/gitgoal/internal/action"
	"github.com/gitgoal/gitgoal/internal/config"
	"github.com/gitgoal/gitgoal/internal/errors"
	"github.com/gitgoal/gitgoal/internal/logging"
	"github.com/gitgoal/gitgoal/internal/state"
)

// Observer supplies repository snapshots.
type Observer interface {
	Observe(ctx context.Context) (state.RepoState, error)
}

// Planner supplies plans from observed states.
type Planner interface {
	Plan(start state.RepoState, goal state.GoalSpec) (state.Plan, error)
}

// Executor owns the loop state: the correlation counter, the replan budget,
// and the within-run test-result memory. No global state anywhere.
type Executor struct {
	observer Observer
	planner  Planner
	registry *action.Registry
	env      *action.Env
	cfg      *config.Config
	logger   *logging.Logger
	clock    func() time.Time

	correlation int

	// Test outcomes are not observable from git, so the loop remembers the
	// last result alongside the HEAD it was produced on.
	testsResult state.TestResult
	testsSHA    string
}

// New assembles an Executor.
func New(observer Observer, planner Planner, registry *action.Registry, env *action.Env, cfg *config.Config, logger *logging.Logger) *Executor {
	return &Executor{
		observer:    observer,
		planner:     planner,
		registry:    registry,
		env:         env,
		cfg:         cfg,
		logger:      logger,
		clock:       time.Now,
		testsResult: state.TestsUnknown,
	}
}

// WithClock replaces the record timestamp source. Test hook.
func (e *Executor) WithClock(clock func() time.Time) *Executor {
	e.clock = clock
	return e
}

// Execute runs the loop until the goal holds, the replan budget is spent,
// the context is cancelled, or a structural error surfaces.
func (e *Executor) Execute(ctx context.Context) *Report {
	report := &Report{RunID: uuid.NewString()}
	goal := e.cfg.GoalSpec()

	var plan state.Plan
	havePlan := false
	replans := 0
	planned := false

	for {
		if ctx.Err() != nil {
			e.record(report, "WARN", 0, "", "", "", 0, "execution cancelled")
			report.Status = StatusAborted
			return report
		}

		observed, err := e.observer.Observe(ctx)
		if err != nil {
			return e.fatal(report, err, "observation failed")
		}
		observed = e.stampTests(observed)

		if goal.Satisfied(observed) {
			e.record(report, "INFO", 0, "", "", observed.SafetyDigest(), 0, "goal reached")
			report.Status = StatusGoalReached
			return report
		}

		if !havePlan {
			if planned {
				replans++
				if replans > e.cfg.Planner.MaxReplans {
					e.record(report, "ERROR", 0, "", "", observed.SafetyDigest(), 0, "replan budget exhausted")
					report.Status = StatusExhaustedReplans
					return report
				}
			}
			planned = true

			plan, err = e.planner.Plan(observed, goal)
			if err != nil {
				return e.fatal(report, err, "planning failed")
			}
			if plan.Empty() {
				// The planner only returns an empty plan for satisfied
				// goals, which the loop already handled; treat it as
				// spent progress.
				report.Status = StatusExhaustedReplans
				return report
			}
			havePlan = true
			e.logger.Info("plan ready", "actions", len(plan.Actions), "estimated_cost", plan.EstimatedCost, "replans", replans)
		}

		spec := plan.Head()
		act, ok := e.registry.Lookup(spec.Name)
		if !ok {
			return e.fatal(report, errors.New("plan references unknown action "+spec.Name), "invalid plan")
		}
		if !act.Applicable(observed, e.cfg) {
			// The state moved between observe and plan; that indicates a
			// bug, not operator drift.
			return e.fatal(report, errors.NewDrift("", observed.SafetyDigest()), "head action inapplicable to observed state")
		}

		predicted := act.Predict(observed, e.cfg)
		e.correlation++
		cid := e.correlation
		stepLogger := e.logger.WithCorrelation(cid)
		stepLogger.Info("executing action", "action", spec.Name)

		execErr := act.Execute(ctx, e.env, observed)
		if execErr != nil {
			if act.Unrecoverable || errors.Is(execErr, errors.ErrUnrecoverable) || errors.IsFatal(execErr) {
				e.record(report, "ERROR", cid, spec.Name, predicted.SafetyDigest(), "", exitCodeOf(execErr), "unrecoverable action failure: "+execErr.Error())
				report.Status = StatusFatal
				report.Err = execErr
				return report
			}
			e.record(report, "WARN", cid, spec.Name, predicted.SafetyDigest(), "", exitCodeOf(execErr), "action failed, replanning: "+execErr.Error())
			havePlan = false
			continue
		}

		reobserved, err := e.observer.Observe(ctx)
		if err != nil {
			return e.fatal(report, err, "post-action observation failed")
		}
		e.rememberTests(act.Name, reobserved)
		reobserved = e.stampTests(reobserved)

		if state.SafetyMatches(predicted, reobserved, e.cfg.Safety.DriftDivergenceTolerance) {
			e.record(report, "INFO", cid, spec.Name, predicted.SafetyDigest(), reobserved.SafetyDigest(), 0, "action completed as predicted")
			if spec.Name == "RebaseContinue" {
				e.recordRangeDiff(ctx, report, cid)
			}
			plan = plan.Tail()
			havePlan = !plan.Empty()
			continue
		}

		e.record(report, "WARN", cid, spec.Name, predicted.SafetyDigest(), reobserved.SafetyDigest(), 0, "drift detected, replanning")
		havePlan = false
	}
}

// recordRangeDiff summarizes how the rewritten commits differ from the
// pre-rebase snapshot, so the report shows what the rebase actually changed.
func (e *Executor) recordRangeDiff(ctx context.Context, report *Report, cid int) {
	if e.env == nil || e.env.Facade == nil {
		return
	}
	refs, err := e.env.Facade.Run(ctx, "for-each-ref", "--sort=-refname", "--format=%(refname)", "refs/backup/goap")
	if err != nil || refs.ExitCode != 0 {
		return
	}
	backup, _, _ := strings.Cut(strings.TrimSpace(refs.Stdout), "\n")
	if backup == "" {
		return
	}
	diff, err := e.env.Facade.Run(ctx, "range-diff", backup+"...HEAD")
	if err != nil || diff.ExitCode != 0 {
		return
	}
	summary := strings.TrimSpace(diff.Stdout)
	if summary == "" {
		summary = "range-diff: no commit-level differences"
	}
	e.record(report, "INFO", cid, "RebaseContinue", "", "", 0, "range-diff vs "+backup+":\n"+summary)
}

// stampTests overlays the remembered test outcome onto an observation when
// HEAD has not moved since the tests ran.
func (e *Executor) stampTests(s state.RepoState) state.RepoState {
	if e.testsResult == state.TestsPassed && s.Ref.SHA != "" && s.Ref.SHA == e.testsSHA {
		return s.With(func(n *state.RepoState) { n.TestsLastResult = state.TestsPassed })
	}
	return s
}

func (e *Executor) rememberTests(actionName string, observed state.RepoState) {
	if actionName == "RunTests" {
		e.testsResult = state.TestsPassed
		e.testsSHA = observed.Ref.SHA
	}
}

func (e *Executor) fatal(report *Report, err error, message string) *Report {
	e.record(report, "ERROR", 0, "", "", "", exitCodeOf(err), message+": "+err.Error())
	report.Status = StatusFatal
	report.Err = err
	return report
}

func (e *Executor) record(report *Report, level string, cid int, actionName, predicted, observed string, exitCode int, message string) {
	report.Records = append(report.Records, Record{
		Timestamp:            e.clock(),
		Level:                level,
		CorrelationID:        cid,
		Action:               actionName,
		PredictedStateDigest: predicted,
		ObservedStateDigest:  observed,
		ExitCode:             exitCode,
		Message:              logging.Redact(message),
	})
}

func exitCodeOf(err error) int {
	var failure *errors.ExternalFailure
	if errors.As(err, &failure) {
		return failure.ExitCode
	}
	return 0
}
