// Package dedupe decides which earlier comments the model is told about and
// drops findings that were already reported.
//
// An Engine holds what is known before a run starts (policy and previously
// posted comments). Each review run gets its own Run, which carries the
// cross-file latch, the comments generated so far and the signatures already
// accepted. Runs are not safe for concurrent use; files must be fed to a Run
// in input order because the latch depends on that order.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/FN90/devops-pr-code-reviewer/internal/types"
)

// Signature identifies a finding by its file and trimmed content.
func Signature(filePath, content string) string {
	h := sha256.Sum256([]byte(filePath + "\x00" + strings.TrimSpace(content)))
	return hex.EncodeToString(h[:16])
}

// PassesConfidence reports whether a confidence value survives the policy's
// confidence filter. Missing values always pass.
func PassesConfidence(policy types.ReviewPolicy, confidence *float64) bool {
	if !policy.Confidence.Enabled || confidence == nil {
		return true
	}
	return *confidence >= policy.Confidence.Minimum
}

type Engine struct {
	policy             types.ReviewPolicy
	previousByFile     map[string][]string
	previousSignatures map[string]struct{}
}

func NewEngine(policy types.ReviewPolicy, previous []types.PreviousComment) *Engine {
	e := &Engine{
		policy:             policy,
		previousByFile:     make(map[string][]string),
		previousSignatures: make(map[string]struct{}, len(previous)),
	}

	for _, pc := range previous {
		path := types.NormalizePath(pc.FilePath)
		if path != "" {
			e.previousByFile[path] = append(e.previousByFile[path], pc.Content)
		}
		e.previousSignatures[Signature(path, pc.Content)] = struct{}{}
	}

	return e
}

// NewRun starts a run with an unset latch and no accumulated state.
func (e *Engine) NewRun() *Run {
	return &Run{
		engine: e,
		seen:   make(map[string]struct{}),
	}
}

type Run struct {
	engine      *Engine
	latched     bool
	runComments []types.ReviewComment
	seen        map[string]struct{}
}

// Latched reports whether the cross-file threshold has been crossed.
func (r *Run) Latched() bool {
	return r.latched
}

// Exclusions returns the comment texts the model should not repeat for
// filePath. Once the number of confidence-passing comments generated in this
// run exceeds the threshold, every later file also gets all run comments.
func (r *Run) Exclusions(filePath string) []string {
	previous := r.engine.previousByFile[types.NormalizePath(filePath)]
	exclusions := make([]string, 0, len(previous)+len(r.runComments))
	exclusions = append(exclusions, previous...)

	cross := r.engine.policy.DedupeAcrossFiles
	if !cross.Enabled {
		return exclusions
	}

	if !r.latched && r.passingCount() > cross.Threshold {
		r.latched = true
	}

	if r.latched {
		for _, rc := range r.runComments {
			exclusions = append(exclusions, rc.Content)
		}
	}

	return exclusions
}

func (r *Run) passingCount() int {
	count := 0
	for _, rc := range r.runComments {
		if PassesConfidence(r.engine.policy, rc.ConfidenceScore) {
			count++
		}
	}
	return count
}

// Record adds every comment emitted for one file to the run.
func (r *Run) Record(threads []types.ReviewThread) {
	for _, thread := range threads {
		r.runComments = append(r.runComments, thread.Comments...)
	}
}

// Accept assigns f its signature as ID and returns true, unless the same
// signature was posted before or already accepted in this run.
func (r *Run) Accept(f *types.Finding) bool {
	sig := Signature(f.FilePath, f.Content)
	if _, ok := r.engine.previousSignatures[sig]; ok {
		return false
	}
	if _, ok := r.seen[sig]; ok {
		return false
	}

	f.ID = sig
	r.seen[sig] = struct{}{}
	return true
}
