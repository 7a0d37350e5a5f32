package sync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauern/skillhub/internal/model"
)

// ErrPartialFailure is returned by callers that turn a Result with failed
// skills into a non-zero exit.
var ErrPartialFailure = errors.New("one or more skills failed to sync")

// Action represents the final disposition of a skill in a sync run.
type Action string

const (
	// ActionPublished indicates a new version was published.
	ActionPublished Action = "published"

	// ActionSynced indicates the registry already holds the local content.
	ActionSynced Action = "synced"

	// ActionPlanned indicates a dry run would have published the skill.
	ActionPlanned Action = "planned"

	// ActionSkipped indicates the skill needed publishing but was not selected.
	ActionSkipped Action = "skipped"

	// ActionFailed indicates an error occurred processing the skill.
	ActionFailed Action = "failed"
)

// Outcome is the result of reconciling a single local bundle.
type Outcome struct {
	// Bundle is the local skill folder.
	Bundle model.LocalBundle

	// Classification is zero when the skill failed before it could be classified.
	Classification model.Classification

	// Hash is the local content hash.
	Hash model.ContentHash

	// LatestVersion is the registry's newest version, if any.
	LatestVersion string

	// MatchedVersion is the registry version holding the same content.
	MatchedVersion string

	// Version is the version published, or that would be published.
	Version string

	// Changelog is the changelog sent with the publish.
	Changelog string

	// Action is the final disposition.
	Action Action

	// Error contains any error that occurred during processing.
	Error error
}

// Slug returns the bundle slug.
func (o *Outcome) Slug() string {
	return o.Bundle.Slug
}

// Success returns true if the skill was processed without error.
func (o *Outcome) Success() bool {
	return o.Action != ActionFailed
}

// Result contains the complete outcome of a sync run, one entry per bundle
// in scan order.
type Result struct {
	// Outcomes holds the result for each scanned bundle.
	Outcomes []Outcome

	// DryRun indicates if this was a dry run (nothing published).
	DryRun bool
}

// Published returns skills that were published.
func (r *Result) Published() []Outcome {
	return r.filterByAction(ActionPublished)
}

// Synced returns skills whose content the registry already holds.
func (r *Result) Synced() []Outcome {
	return r.filterByAction(ActionSynced)
}

// Planned returns skills a dry run would publish.
func (r *Result) Planned() []Outcome {
	return r.filterByAction(ActionPlanned)
}

// Skipped returns skills that were not selected for publishing.
func (r *Result) Skipped() []Outcome {
	return r.filterByAction(ActionSkipped)
}

// Failed returns skills that failed to sync.
func (r *Result) Failed() []Outcome {
	return r.filterByAction(ActionFailed)
}

// filterByAction returns outcomes with the given action.
func (r *Result) filterByAction(action Action) []Outcome {
	var filtered []Outcome
	for _, o := range r.Outcomes {
		if o.Action == action {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// PartialFailure reports whether any skill failed.
func (r *Result) PartialFailure() bool {
	return len(r.Failed()) > 0
}

// Err returns ErrPartialFailure when any skill failed.
func (r *Result) Err() error {
	if r.PartialFailure() {
		return ErrPartialFailure
	}
	return nil
}

// Headline returns the one-line outcome of the run.
func (r *Result) Headline() string {
	if r.DryRun {
		return fmt.Sprintf("Dry run: would upload %d skill(s)", len(r.Planned()))
	}
	published := len(r.Published())
	failed := len(r.Failed())
	switch {
	case published == 0 && failed == 0:
		return "Nothing to sync"
	case failed == 0:
		return fmt.Sprintf("Uploaded %d skill(s)", published)
	default:
		return fmt.Sprintf("Uploaded %d skill(s), %d failed", published, failed)
	}
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	var sb strings.Builder

	sb.WriteString(r.Headline())
	sb.WriteString("\n")

	if r.DryRun {
		writeSection(&sb, "To upload", r.Planned())
	} else {
		writeSection(&sb, "Uploaded", r.Published())
		writeSection(&sb, "Not selected", r.Skipped())
	}
	writeSection(&sb, "Already synced", r.Synced())

	if failed := r.Failed(); len(failed) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, f := range failed {
			sb.WriteString(fmt.Sprintf("  - %s: %v\n", f.Slug(), f.Error))
		}
	}

	return sb.String()
}

func writeSection(sb *strings.Builder, title string, outcomes []Outcome) {
	if len(outcomes) == 0 {
		return
	}
	sb.WriteString("\n" + title + ":\n")
	for _, o := range outcomes {
		sb.WriteString("  - " + o.Line() + "\n")
	}
}

// Line renders the outcome as "slug  detail" for reports.
func (o *Outcome) Line() string {
	switch o.Action {
	case ActionSynced:
		return fmt.Sprintf("%s@%s", o.Slug(), o.MatchedVersion)
	case ActionPublished, ActionPlanned, ActionSkipped:
		if o.Classification == model.ClassificationNeedsUpdate {
			return fmt.Sprintf("%s  %s -> %s", o.Slug(), o.LatestVersion, o.Version)
		}
		return fmt.Sprintf("%s  NEW %s", o.Slug(), o.Version)
	default:
		return o.Slug()
	}
}
