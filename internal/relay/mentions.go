package relay

import (
	"context"
	"regexp"
)

// mentionPattern matches the platform's inline mention encoding, e.g. <@U0123ABC>.
var mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)>`)

// RewriteMentions replaces every inline user mention in text with
// "@DisplayName". Text without mention tokens passes through untouched,
// which also makes the rewrite idempotent: resolved names no longer match
// the token pattern. Unresolvable mentions degrade to "@Unknown".
func (d *Directory) RewriteMentions(ctx context.Context, text string) string {
	return mentionPattern.ReplaceAllStringFunc(text, func(token string) string {
		userID := mentionPattern.FindStringSubmatch(token)[1]
		if profile, ok := d.LookupUser(ctx, userID); ok && profile.DisplayName != "" {
			return "@" + profile.DisplayName
		}
		return "@Unknown"
	})
}
