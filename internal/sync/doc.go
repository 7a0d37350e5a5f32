// Package sync reconciles local skill folders with a registry.
//
// A run scans skill roots, hashes each bundle, and classifies it against the
// registry:
//
//   - New: the registry has no skill with the bundle's slug.
//   - Synced: some version, latest or not, already holds the exact content.
//   - NeedsUpdate: the skill exists but no version holds this content.
//
// Lookups run concurrently, bounded by Options.Concurrency. Publishing is
// strictly sequential so version history is appended in a predictable order.
// A failure for one skill is recorded in its Outcome and never stops the run.
//
// # Versions
//
// New skills are published as Options.InitialVersion (1.0.0 by default).
// Changed skills get the registry's latest version bumped by Options.Bump.
//
// # Interactive use
//
// With a Prompter, the user picks which candidates to publish (unless
// Options.All is set) and enters a changelog for each. A changelog may be
// empty for an update but is required for a new skill. Without a Prompter
// every candidate is published with an empty changelog.
//
//	r := sync.New(client, publish.New(client))
//	result, err := r.Run(ctx, sync.Options{Roots: roots, DryRun: true})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Headline()) // Dry run: would upload 2 skill(s)
package sync
