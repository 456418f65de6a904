package coach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitsymphony/internal/audit"
	"fitsymphony/internal/llm"
	"fitsymphony/internal/state"
	"fitsymphony/internal/tools"

	"go.uber.org/zap"
)

const (
	defaultPlanDays = 7
	maxPlanDays     = 365
	progressLogTail = 50
	statusOK        = "ok"
)

// revisionActions are the audit actions that count as a plan revision.
var revisionActions = map[string]bool{
	"apply_feedback":    true,
	"resolve_conflicts": true,
	"store_plans":       true,
}

type ProfileResult struct {
	Status  string        `json:"status"`
	Profile state.Profile `json:"profile"`
}

type PlanResult struct {
	Status         string            `json:"status"`
	WorkoutPlan    []state.DayPlan   `json:"workout_plan"`
	MealPlan       []state.MealEntry `json:"meal_plan"`
	Rules          string            `json:"rules"`
	AdherenceScore float64           `json:"adherence_score"`
}

type FeedbackResult struct {
	Status      string            `json:"status"`
	Adjustment  Adjustment        `json:"adjustment"`
	WorkoutPlan []state.DayPlan   `json:"workout_plan"`
	MealPlan    []state.MealEntry `json:"meal_plan"`
}

type MessageResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ProgressResult struct {
	Status  string           `json:"status"`
	Summary Summary          `json:"summary"`
	Logs    []state.LogEntry `json:"logs"`
}

type BadgesResult struct {
	Status string        `json:"status"`
	Badges []state.Badge `json:"badges"`
}

type MetricsResult struct {
	Status         string  `json:"status"`
	AdherenceScore float64 `json:"adherence_score"`
	PlanRevisions  int     `json:"plan_revisions"`
}

type AnswerResult struct {
	Status string `json:"status"`
	Answer string `json:"answer"`
}

type NutritionResult struct {
	Status        string              `json:"status"`
	Query         string              `json:"query"`
	NutritionInfo tools.NutritionInfo `json:"nutrition_info"`
}

// Deps are the collaborators of an Orchestrator. Chat serves requests a
// user is waiting on (feedback, questions); Background serves rule
// generation. Either may be nil, in which case agents use their fallbacks.
type Deps struct {
	Store      state.Store
	Audit      *audit.Log
	Nutrition  tools.NutritionLookup
	Chat       llm.Service
	Background llm.Service
	Logger     *zap.Logger
	Now        func() time.Time
}

// Orchestrator sequences the agents for each event. It holds no per-user
// state; everything lives in the store.
type Orchestrator struct {
	store state.Store
	audit Recorder

	profiles     *ProfileStore
	scorer       *Scorer
	workout      *WorkoutPlanner
	nutrition    *NutritionPlanner
	feedback     *FeedbackInterpreter
	coordinator  *Coordinator
	rules        *RuleGenerator
	wearables    *WearableIngestor
	gamification *GamificationEvaluator
	ask          *AskAgent
	progress     *ProgressTracker

	logger *zap.Logger
}

func New(d Deps) *Orchestrator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Audit == nil {
		d.Audit = audit.New(d.Store, state.DefaultMaxLogEntries, nil, d.Logger)
	}
	if d.Background == nil {
		d.Background = d.Chat
	}
	rec := d.Audit
	return &Orchestrator{
		store:        d.Store,
		audit:        rec,
		profiles:     NewProfileStore(d.Store, rec),
		scorer:       NewScorer(d.Store, rec),
		workout:      NewWorkoutPlanner(rec),
		nutrition:    NewNutritionPlanner(d.Nutrition, rec, d.Logger),
		feedback:     NewFeedbackInterpreter(d.Chat, rec, d.Logger),
		coordinator:  NewCoordinator(rec),
		rules:        NewRuleGenerator(d.Background, rec, d.Logger),
		wearables:    NewWearableIngestor(d.Store, rec),
		gamification: NewGamificationEvaluator(d.Store, rec, d.Now),
		ask:          NewAskAgent(d.Store, d.Chat, rec, d.Logger),
		progress:     NewProgressTracker(d.Store, rec, d.Now),
		logger:       d.Logger.Named("orchestrator"),
	}
}

// Handle dispatches one event for one user.
func (o *Orchestrator) Handle(ctx context.Context, userID string, ev Event) (interface{}, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidf("user_id is required")
	}
	if ev == nil {
		return nil, invalidf("event is required")
	}
	o.logger.Debug("handling event", zap.String("event", ev.Name()), zap.String("user_id", userID))

	switch e := ev.(type) {
	case CreateProfile:
		return o.CreateProfile(ctx, userID, e.Profile)
	case GeneratePlan:
		days := defaultPlanDays
		if e.Days != nil {
			days = *e.Days
		}
		return o.GeneratePlan(ctx, userID, days, e.Profile)
	case SubmitFeedback:
		return o.SubmitFeedback(ctx, userID, e.FeedbackText)
	case LogProgress:
		return o.LogProgress(ctx, userID, e.ProgressEntry)
	case GetProgress:
		return o.GetProgress(ctx, userID)
	case IngestWearable:
		return o.IngestWearable(ctx, userID, e.Metrics)
	case GetBadges:
		return o.GetBadges(ctx, userID)
	case GetMetrics:
		return o.GetMetrics(ctx, userID)
	case AskAI:
		return o.AskAI(ctx, userID, e.Question)
	}
	return nil, fmt.Errorf("unhandled event type %T", ev)
}

func (o *Orchestrator) CreateProfile(ctx context.Context, userID string, p state.Profile) (ProfileResult, error) {
	stored, err := o.profiles.Upsert(ctx, userID, p)
	if err != nil {
		return ProfileResult{}, err
	}
	if _, err := o.audit.Record(ctx, userID, agentOrchestrator, "profile_created", "", toPayload(stored)); err != nil {
		return ProfileResult{}, err
	}
	return ProfileResult{Status: statusOK, Profile: stored}, nil
}

// GeneratePlan builds, safety-checks and tunes a new plan, then stores it.
// A non-empty profile in the request replaces the stored one first. Zero
// days yields empty plans.
func (o *Orchestrator) GeneratePlan(ctx context.Context, userID string, days int, override *state.Profile) (PlanResult, error) {
	if days < 0 || days > maxPlanDays {
		return PlanResult{}, invalidf("days must be between 0 and %d, got %d", maxPlanDays, days)
	}

	var profile state.Profile
	if override != nil && !override.IsZero() {
		stored, err := o.profiles.Upsert(ctx, userID, *override)
		if err != nil {
			return PlanResult{}, err
		}
		profile = stored
	} else {
		stored, err := o.profiles.Get(ctx, userID)
		if err != nil {
			return PlanResult{}, err
		}
		if stored == nil {
			return PlanResult{}, invalidf("no profile found, call create_profile first")
		}
		profile = *stored
	}

	workout, err := o.workout.Generate(ctx, userID, profile, days)
	if err != nil {
		return PlanResult{}, err
	}
	meals, err := o.nutrition.Generate(ctx, userID, profile, days)
	if err != nil {
		return PlanResult{}, err
	}

	st, err := o.store.Get(ctx, userID)
	if err != nil {
		return PlanResult{}, err
	}
	summary := feedbackSummary(st.Logs)

	resolved, err := o.coordinator.Resolve(ctx, userID, profile, workout, meals)
	if err != nil {
		return PlanResult{}, err
	}
	rules, err := o.rules.Generate(ctx, userID, profile, summary)
	if err != nil {
		return PlanResult{}, err
	}
	if err := state.SetRules(ctx, o.store, userID, rules.Rules); err != nil {
		return PlanResult{}, err
	}

	latest, err := o.wearables.LatestSignal(ctx, userID)
	if err != nil {
		return PlanResult{}, err
	}
	score, err := o.scorer.Score(ctx, userID)
	if err != nil {
		return PlanResult{}, err
	}
	signal := SignalFrom(latest)
	suggestion := Suggest(signal)
	if _, err := o.audit.Record(ctx, userID, agentPersonalization, "suggest", "", map[string]any{
		"hr":         signal.HRAvg,
		"sleep":      signal.SleepHours,
		"delta_sets": suggestion.DeltaSets,
	}); err != nil {
		return PlanResult{}, err
	}
	fatigue := signal.Fatigued()

	for i := range resolved.Workout {
		d := &resolved.Workout[i]
		d.Sets = clampSets(AutoTuneSets(d.Sets, score, fatigue) + suggestion.DeltaSets)
	}

	plans := state.Plans{Workout: resolved.Workout, Nutrition: resolved.Meals}
	if err := state.SetPlans(ctx, o.store, userID, plans); err != nil {
		return PlanResult{}, err
	}
	if _, err := o.audit.Record(ctx, userID, agentOrchestrator, "store_plans", "", map[string]any{
		"rules":    rules.Rules,
		"fatigue":  fatigue,
		"score":    score,
		"fallback": rules.Fallback,
	}); err != nil {
		return PlanResult{}, err
	}

	o.logger.Info("plan generated",
		zap.String("user_id", userID),
		zap.Int("days", days),
		zap.Float64("adherence_score", score),
		zap.Bool("fatigue", fatigue))

	return PlanResult{
		Status:         statusOK,
		WorkoutPlan:    plans.Workout,
		MealPlan:       plans.Nutrition,
		Rules:          rules.Rules,
		AdherenceScore: score,
	}, nil
}

// feedbackSummary joins the reasons of earlier feedback interpretations.
func feedbackSummary(logs []state.LogEntry) string {
	var reasons []string
	for _, l := range logs {
		if l.Agent == agentFeedback && l.Reason != "" {
			reasons = append(reasons, l.Reason)
		}
	}
	return strings.Join(reasons, " ")
}

// SubmitFeedback interprets free text and applies its hints to the stored
// plans in a single store update.
func (o *Orchestrator) SubmitFeedback(ctx context.Context, userID, text string) (FeedbackResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return FeedbackResult{}, invalidf("feedback_text required")
	}

	interp, err := o.feedback.Interpret(ctx, userID, text)
	if err != nil {
		return FeedbackResult{}, err
	}
	adj := interp.Adjustment
	delta, swap := adj.DeltaSets(), adj.Swap()

	var plans state.Plans
	err = o.store.Update(ctx, userID, func(st *state.UserState) error {
		if delta != 0 {
			for i := range st.Plans.Workout {
				st.Plans.Workout[i].Sets = clampSets(st.Plans.Workout[i].Sets + delta)
			}
		}
		if swap != "" {
			for i := range st.Plans.Nutrition {
				m := &st.Plans.Nutrition[i]
				m.Notes = strings.TrimSpace(m.Notes + " " + swap)
			}
		}
		plans = st.Plans.Clone()
		return nil
	})
	if err != nil {
		return FeedbackResult{}, err
	}

	payload := toPayload(adj)
	payload["kind"] = string(interp.Kind)
	if _, err := o.audit.Record(ctx, userID, agentOrchestrator, "apply_feedback", adj.Reason, payload); err != nil {
		return FeedbackResult{}, err
	}

	return FeedbackResult{
		Status:      statusOK,
		Adjustment:  adj,
		WorkoutPlan: plans.Workout,
		MealPlan:    plans.Nutrition,
	}, nil
}

func (o *Orchestrator) LogProgress(ctx context.Context, userID string, entry state.ProgressEntry) (MessageResult, error) {
	stored, err := o.progress.Log(ctx, userID, entry)
	if err != nil {
		return MessageResult{}, err
	}
	if _, err := o.audit.Record(ctx, userID, agentOrchestrator, "progress_logged", "", toPayload(stored)); err != nil {
		return MessageResult{}, err
	}
	return MessageResult{Status: statusOK, Message: "progress logged"}, nil
}

func (o *Orchestrator) GetProgress(ctx context.Context, userID string) (ProgressResult, error) {
	summary, err := o.progress.Summarize(ctx, userID)
	if err != nil {
		return ProgressResult{}, err
	}
	st, err := o.store.Get(ctx, userID)
	if err != nil {
		return ProgressResult{}, err
	}
	return ProgressResult{
		Status:  statusOK,
		Summary: summary,
		Logs:    audit.Recent(st.Logs, progressLogTail),
	}, nil
}

func (o *Orchestrator) IngestWearable(ctx context.Context, userID string, metrics state.Metrics) (MessageResult, error) {
	if err := o.wearables.Ingest(ctx, userID, metrics); err != nil {
		return MessageResult{}, err
	}
	if _, err := o.audit.Record(ctx, userID, agentOrchestrator, "wearable_ingested", "", metrics.Clone()); err != nil {
		return MessageResult{}, err
	}
	return MessageResult{Status: statusOK}, nil
}

func (o *Orchestrator) GetBadges(ctx context.Context, userID string) (BadgesResult, error) {
	badges, err := o.gamification.Evaluate(ctx, userID)
	if err != nil {
		return BadgesResult{}, err
	}
	if _, err := o.audit.Record(ctx, userID, agentOrchestrator, "get_badges", "", map[string]any{
		"badges": jsonValue(badges),
	}); err != nil {
		return BadgesResult{}, err
	}
	return BadgesResult{Status: statusOK, Badges: badges}, nil
}

func (o *Orchestrator) GetMetrics(ctx context.Context, userID string) (MetricsResult, error) {
	score, err := o.scorer.Score(ctx, userID)
	if err != nil {
		return MetricsResult{}, err
	}
	st, err := o.store.Get(ctx, userID)
	if err != nil {
		return MetricsResult{}, err
	}
	revisions := 0
	for _, l := range st.Logs {
		if revisionActions[l.Action] {
			revisions++
		}
	}
	res := MetricsResult{Status: statusOK, AdherenceScore: score, PlanRevisions: revisions}
	if _, err := o.audit.Record(ctx, userID, agentOrchestrator, "metrics", "", map[string]any{
		"adherence_score": score,
		"plan_revisions":  revisions,
	}); err != nil {
		return MetricsResult{}, err
	}
	return res, nil
}

func (o *Orchestrator) AskAI(ctx context.Context, userID, question string) (AnswerResult, error) {
	if strings.TrimSpace(question) == "" {
		return AnswerResult{}, invalidf("question text is required")
	}
	answer, err := o.ask.Answer(ctx, userID, question)
	if err != nil {
		return AnswerResult{}, err
	}
	return AnswerResult{Status: statusOK, Answer: answer}, nil
}

// LookupNutrition runs an ad-hoc nutrition lookup for the user.
func (o *Orchestrator) LookupNutrition(ctx context.Context, userID, query string) (NutritionResult, error) {
	if strings.TrimSpace(userID) == "" {
		return NutritionResult{}, invalidf("user_id is required")
	}
	info, err := o.nutrition.Adjust(ctx, userID, query)
	if err != nil {
		return NutritionResult{}, err
	}
	return NutritionResult{Status: statusOK, Query: strings.TrimSpace(query), NutritionInfo: info}, nil
}
