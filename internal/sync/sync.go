package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	gosync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/klauern/skillhub/internal/logging"
	"github.com/klauern/skillhub/internal/model"
	"github.com/klauern/skillhub/internal/publish"
	"github.com/klauern/skillhub/internal/registry"
	"github.com/klauern/skillhub/internal/scan"
)

// Defaults for Options.
const (
	DefaultConcurrency    = 4
	MaxConcurrency        = 8
	DefaultInitialVersion = "1.0.0"
)

// ErrNoRoots is returned when a run has no directories to scan.
var ErrNoRoots = errors.New("no skill roots to scan")

// Options configures a sync run.
type Options struct {
	// Roots are scanned for skill folders, in order.
	Roots []string

	// All publishes every candidate without asking the Prompter to select.
	All bool

	// DryRun classifies and reports without publishing.
	DryRun bool

	// Bump is applied to the latest version of changed skills (default: patch).
	Bump BumpStrategy

	// Concurrency bounds parallel registry lookups. Clamped to 1..MaxConcurrency.
	Concurrency int

	// InitialVersion is given to skills the registry has never seen.
	InitialVersion string

	// Prompter drives interactive selection and changelog entry. A nil
	// Prompter means batch mode: everything is selected and changelogs are empty.
	Prompter Prompter

	// Progress receives classification and publish events. May be nil.
	Progress func(Event)
}

// DefaultOptions returns the default sync options.
func DefaultOptions() Options {
	return Options{
		Bump:           BumpPatch,
		Concurrency:    DefaultConcurrency,
		InitialVersion: DefaultInitialVersion,
	}
}

// Candidate is a bundle that needs publishing.
type Candidate struct {
	Bundle         model.LocalBundle
	Classification model.Classification
	LatestVersion  string
	NextVersion    string
}

// Prompter is the interactive side of a sync run.
type Prompter interface {
	// Select returns the candidates the user wants to publish.
	Select(ctx context.Context, candidates []Candidate) ([]Candidate, error)

	// Changelog asks for the changelog of one candidate. It may return an
	// empty string for updates; new skills require one.
	Changelog(ctx context.Context, c Candidate) (string, error)
}

// Publisher publishes one bundle version. *publish.Publisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, folder string, opts publish.Options) (publish.Result, error)
}

// EventKind identifies a progress event.
type EventKind int

const (
	// EventClassified fires after each bundle is classified or fails lookup.
	EventClassified EventKind = iota + 1
	// EventPublishing fires before each publish.
	EventPublishing
	// EventPublished fires after each publish attempt.
	EventPublished
)

// Event is a progress notification.
type Event struct {
	Kind  EventKind
	Slug  string
	Done  int
	Total int
}

// Reconciler classifies local bundles against the registry and publishes
// the ones the registry does not already hold.
type Reconciler struct {
	client    registry.Client
	publisher Publisher
}

// New creates a Reconciler.
func New(client registry.Client, publisher Publisher) *Reconciler {
	return &Reconciler{client: client, publisher: publisher}
}

// Run performs one sync run. Per-skill failures are recorded in the Result
// and never abort the run; the returned error is reserved for failures that
// stop the whole run, such as missing roots or an unauthorized token. On
// cancellation, publishes already completed stay in the Result.
func (r *Reconciler) Run(ctx context.Context, opts Options) (*Result, error) {
	defer logging.Timer("sync")()
	opts = normalize(opts)
	log := logging.WithContext(ctx)

	result := &Result{DryRun: opts.DryRun}

	if len(opts.Roots) == 0 {
		return result, ErrNoRoots
	}
	bundles, err := scan.FindAll(opts.Roots)
	if err != nil {
		return result, fmt.Errorf("failed to scan skill roots: %w", err)
	}
	log.Debug("starting sync",
		logging.Operation("sync"),
		logging.Count(len(bundles)),
		slog.Bool("dry_run", opts.DryRun),
		slog.Int("concurrency", opts.Concurrency),
	)
	if len(bundles) == 0 {
		return result, nil
	}

	result.Outcomes = r.classifyAll(ctx, bundles, opts)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	candidates := r.plan(result, opts)
	if opts.DryRun || len(candidates) == 0 {
		return result, nil
	}

	if _, err := r.client.Whoami(ctx); err != nil {
		return result, fmt.Errorf("not logged in: %w", err)
	}

	selected := candidates
	if opts.Prompter != nil && !opts.All {
		selected, err = opts.Prompter.Select(ctx, candidates)
		if err != nil {
			return result, err
		}
	}
	r.markUnselected(result, selected)

	return result, r.publishAll(ctx, result, selected, opts)
}

func normalize(opts Options) Options {
	if !opts.Bump.IsValid() {
		opts.Bump = BumpPatch
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Concurrency > MaxConcurrency {
		opts.Concurrency = MaxConcurrency
	}
	if opts.InitialVersion == "" {
		opts.InitialVersion = DefaultInitialVersion
	}
	return opts
}

// classifyAll classifies bundles with bounded concurrency. Outcomes keep
// bundle order.
func (r *Reconciler) classifyAll(ctx context.Context, bundles []model.LocalBundle, opts Options) []Outcome {
	outcomes := make([]Outcome, len(bundles))

	var mu gosync.Mutex
	done := 0
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i := range bundles {
		g.Go(func() error {
			outcomes[i] = r.classify(ctx, bundles[i])
			if opts.Progress != nil {
				mu.Lock()
				done++
				opts.Progress(Event{Kind: EventClassified, Slug: bundles[i].Slug, Done: done, Total: len(bundles)})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// classify hashes one bundle and compares it with the registry.
func (r *Reconciler) classify(ctx context.Context, b model.LocalBundle) Outcome {
	out := Outcome{Bundle: b}
	fail := func(err error) Outcome {
		out.Action = ActionFailed
		out.Error = err
		logging.Warn("skill lookup failed", logging.Slug(b.Slug), logging.Err(err))
		return out
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	manifest, hash, err := scan.HashFolder(b.Folder)
	if err != nil {
		return fail(err)
	}
	if len(manifest) == 0 {
		return fail(errors.New("no text files found"))
	}
	out.Hash = hash

	lookup, err := r.client.GetSkill(ctx, b.Slug)
	if err != nil {
		return fail(fmt.Errorf("lookup failed: %w", err))
	}
	if !lookup.Exists() {
		out.Classification = model.ClassificationNew
		return out
	}
	if lookup.LatestVersion != nil {
		out.LatestVersion = lookup.LatestVersion.Version
	}

	res, err := r.client.Resolve(ctx, b.Slug, string(hash))
	if err != nil {
		return fail(fmt.Errorf("resolve failed: %w", err))
	}
	if res.Latest != nil && out.LatestVersion == "" {
		out.LatestVersion = res.Latest.Version
	}
	if res.Found() {
		// An older version with identical content also counts as synced.
		out.Classification = model.ClassificationSynced
		out.MatchedVersion = res.Match.Version
		return out
	}
	out.Classification = model.ClassificationNeedsUpdate
	return out
}

// plan sets the disposition of every classified outcome and returns the
// candidates to publish.
func (r *Reconciler) plan(result *Result, opts Options) []Candidate {
	var candidates []Candidate
	for i := range result.Outcomes {
		o := &result.Outcomes[i]
		if o.Action == ActionFailed {
			continue
		}
		if !o.Classification.NeedsPublish() {
			o.Action = ActionSynced
			continue
		}

		switch o.Classification {
		case model.ClassificationNew:
			o.Version = opts.InitialVersion
		case model.ClassificationNeedsUpdate:
			next, err := opts.Bump.Apply(o.LatestVersion)
			if err != nil {
				o.Action = ActionFailed
				o.Error = err
				continue
			}
			o.Version = next
		}

		if opts.DryRun {
			o.Action = ActionPlanned
		}
		candidates = append(candidates, Candidate{
			Bundle:         o.Bundle,
			Classification: o.Classification,
			LatestVersion:  o.LatestVersion,
			NextVersion:    o.Version,
		})
	}
	return candidates
}

func (r *Reconciler) markUnselected(result *Result, selected []Candidate) {
	chosen := make(map[string]bool, len(selected))
	for _, c := range selected {
		chosen[c.Bundle.Slug] = true
	}
	for i := range result.Outcomes {
		o := &result.Outcomes[i]
		if o.Action == "" && !chosen[o.Slug()] {
			o.Action = ActionSkipped
		}
	}
}

// publishAll publishes selected candidates one at a time. Cancellation stops
// further publishes; remaining candidates are recorded as failed.
func (r *Reconciler) publishAll(ctx context.Context, result *Result, selected []Candidate, opts Options) error {
	index := make(map[string]int, len(result.Outcomes))
	for i, o := range result.Outcomes {
		index[o.Slug()] = i
	}

	for n, c := range selected {
		i, ok := index[c.Bundle.Slug]
		if !ok {
			continue
		}
		o := &result.Outcomes[i]
		if err := ctx.Err(); err != nil {
			for _, rest := range selected[n:] {
				if j, ok := index[rest.Bundle.Slug]; ok {
					result.Outcomes[j].Action = ActionFailed
					result.Outcomes[j].Error = err
				}
			}
			return err
		}

		if opts.Progress != nil {
			opts.Progress(Event{Kind: EventPublishing, Slug: c.Bundle.Slug, Done: n, Total: len(selected)})
		}
		r.publishOne(ctx, o, c, opts)
		if opts.Progress != nil {
			opts.Progress(Event{Kind: EventPublished, Slug: c.Bundle.Slug, Done: n + 1, Total: len(selected)})
		}
	}
	return nil
}

func (r *Reconciler) publishOne(ctx context.Context, o *Outcome, c Candidate, opts Options) {
	log := logging.WithContext(ctx).With(logging.Slug(c.Bundle.Slug), logging.Version(c.NextVersion))

	changelog := ""
	if opts.Prompter != nil {
		var err error
		changelog, err = opts.Prompter.Changelog(ctx, c)
		if err != nil {
			o.Action = ActionFailed
			o.Error = err
			return
		}
		changelog = strings.TrimSpace(changelog)
		if c.Classification.RequiresChangelog() && changelog == "" {
			o.Action = ActionFailed
			o.Error = errors.New("changelog is required for a new skill")
			return
		}
	}
	o.Changelog = changelog

	_, err := r.publisher.Publish(ctx, c.Bundle.Folder, publish.Options{
		Slug:        c.Bundle.Slug,
		DisplayName: c.Bundle.DisplayName,
		Version:     c.NextVersion,
		Changelog:   changelog,
	})
	if err != nil {
		log.Warn("publish failed", logging.Err(err))
		o.Action = ActionFailed
		o.Error = err
		return
	}
	log.Info("published skill", slog.String(logging.KeyClassification, c.Classification.String()))
	o.Action = ActionPublished
}
