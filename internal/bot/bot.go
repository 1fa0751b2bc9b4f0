// Package bot composes replies: intent short-circuit, entity and attribute
// resolution, response formatting. Stateless across calls; the transcript
// belongs to the caller's Session.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"auenbot/internal/domain"
	"auenbot/internal/knowledge"
	"auenbot/internal/query"
)

// Options are the tuned pipeline thresholds. The values carried here are the
// deployment defaults; none of them is known to be optimal.
type Options struct {
	// IntentMinScore is the cosine-similarity floor for the conversational
	// short-circuit, stricter than the matcher default to keep factual
	// questions out of the canned-reply path.
	IntentMinScore float64
	// MaxShortTokens is the largest whitespace-token count a message may have
	// and still qualify for the short-circuit.
	MaxShortTokens int
	// NameCutoff is the fuzzy score floor for entity-name resolution.
	NameCutoff int
	// KeyCutoff is the fuzzy score floor for attribute-key resolution.
	KeyCutoff int
	// LastResortCutoff applies when the whole message is fuzzy-matched
	// against entity names after name extraction failed.
	LastResortCutoff int
}

// DefaultOptions returns the deployment defaults.
func DefaultOptions() Options {
	return Options{
		IntentMinScore:   0.72,
		MaxShortTokens:   4,
		NameCutoff:       knowledge.DefaultNameCutoff,
		KeyCutoff:        knowledge.DefaultKeyCutoff,
		LastResortCutoff: 80,
	}
}

// interrogatives mark a message as question-shaped even without a question
// mark; the short-circuit never fires on those.
var interrogatives = []string{"wie", "wo", "was", "welche", "woran"}

// summaryKeys are the priority fields of the no-key summary, in order.
var summaryKeys = []string{"Erkennungsmerkmale", "Habitat", "Größe", "Nahrung"}

const (
	summaryValueLimit = 220
	maxHintKeys       = 10

	notFoundReply = "Ich habe dazu noch keinen passenden Eintrag gefunden.\n" +
		"Tipp: Frag z.B. „Habitat der Blauschwarzen Holzbiene“ oder „Erkennungsmerkmale Blauschwarze Holzbiene“."

	summaryClosing = "\nDu kannst mich auch nach einem konkreten Merkmal fragen, z.B. „Habitat der …“."
)

// Bot orchestrates the query-resolution pipeline over immutable, pre-built
// structures. Safe to share across concurrent calls.
type Bot struct {
	kb      *knowledge.Index
	intents domain.IntentMatcher
	opts    Options
	log     *slog.Logger
}

// New creates a bot over the given knowledge index and intent matcher.
func New(kb *knowledge.Index, intents domain.IntentMatcher, opts Options, log *slog.Logger) *Bot {
	if opts.MaxShortTokens == 0 {
		opts = DefaultOptions()
	}
	return &Bot{kb: kb, intents: intents, opts: opts, log: log}
}

// Answer produces one reply for one user message. Resolution misses yield a
// helpful message, never an error; an intent-matcher failure degrades to the
// knowledge path.
func (b *Bot) Answer(ctx context.Context, userText string) (string, error) {
	if hit := b.shortCircuit(ctx, userText); hit != nil {
		return hit.Reply, nil
	}

	nameGuess, keyGuess := query.ExtractNameAndKey(userText)

	var entry *domain.Entry
	if nameGuess != "" {
		entry = b.kb.FindByName(nameGuess, b.opts.NameCutoff)
	}
	if entry == nil {
		// last resort: match the whole message against the name pool
		entry = b.kb.FindByName(userText, b.opts.LastResortCutoff)
	}
	if entry == nil {
		return notFoundReply, nil
	}

	if keyGuess != "" {
		return b.attributeReply(entry, keyGuess), nil
	}
	return b.summaryReply(entry), nil
}

// shortCircuit returns an intent hit only when the message is short and not
// question-shaped; a similarity hit alone must never swallow a factual
// question.
func (b *Bot) shortCircuit(ctx context.Context, userText string) *domain.IntentMatch {
	if b.intents == nil {
		return nil
	}
	hit, err := b.intents.Match(ctx, userText, b.opts.IntentMinScore)
	if err != nil {
		if b.log != nil {
			b.log.Warn("intent match failed, falling back to knowledge lookup", slog.String("error", err.Error()))
		}
		return nil
	}
	if hit == nil {
		return nil
	}

	lower := strings.ToLower(strings.TrimSpace(userText))
	if len(strings.Fields(lower)) > b.opts.MaxShortTokens {
		return nil
	}
	if strings.Contains(userText, "?") {
		return nil
	}
	for _, w := range interrogatives {
		if strings.Contains(lower, w) {
			return nil
		}
	}
	return hit
}

func (b *Bot) attributeReply(entry *domain.Entry, keyGuess string) string {
	key, ok := b.kb.ResolveAttributeKey(entry, keyGuess, b.opts.KeyCutoff)
	if ok {
		if value, present := entry.Attribute(key); present {
			return fmt.Sprintf("**%s** (%s) – **%s**:\n%s", entry.Name, entry.Typ, key, value)
		}
	}
	possible := b.kb.PresentKeys(entry, maxHintKeys)
	return fmt.Sprintf(
		"Ich habe **%s** gefunden, aber das Merkmal „%s“ nicht sicher zuordnen können.\n"+
			"Mögliche Merkmale sind z.B.: %s",
		entry.Name, keyGuess, strings.Join(possible, ", "),
	)
}

func (b *Bot) summaryReply(entry *domain.Entry) string {
	lines := []string{fmt.Sprintf("**%s** (%s)", entry.Name, entry.Typ)}
	for _, k := range summaryKeys {
		value, present := entry.Attribute(k)
		if !present {
			continue
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s", k, truncateAtWord(strings.TrimSpace(value), summaryValueLimit)))
	}
	lines = append(lines, summaryClosing)
	return strings.Join(lines, "\n")
}

// truncateAtWord shortens v to at most limit runes, cutting back to the last
// word boundary and appending an ellipsis when something was dropped.
func truncateAtWord(v string, limit int) string {
	runes := []rune(v)
	if len(runes) <= limit {
		return v
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
