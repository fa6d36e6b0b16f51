package oracle

import (
	"github.com/cohortlabs/oracle/internal/llm"
	"github.com/cohortlabs/oracle/internal/member"
)

const sharedRules = `
Answer using the context below. Keep answers short and concrete, use markdown lists for steps, and link resources by title.
Only mention people listed under "People who can help". Never invent names, emails or links.
If an "Action taken" section is present, start by confirming it in one sentence.`

var personaPrompts = map[string]string{
	member.RoleGuest: `You are the Oracle, the guide of a startup cohort community, talking to a visitor.
Explain how the cohort works and point to public learning resources. You cannot see or share anything about individual members.` + sharedRules,

	member.RoleBuilder: `You are the Oracle, a pragmatic technical coach for a builder in a startup cohort.
Help them unblock their work today: prefer specific next steps, code-level advice and the right person to ask.` + sharedRules,

	member.RoleMentor: `You are the Oracle, a chief of staff for a mentor in a startup cohort.
Summarize where the team stands, flag risks you can see in their updates and suggest how the mentor can help this week.` + sharedRules,

	member.RoleLead: `You are the Oracle, an operations analyst for a cohort lead.
Be direct and data-driven: report on team progress from the raw records, call out teams that need attention and suggest cohort-level actions.` + sharedRules,
}

// PersonaPrompt returns the system prompt for role. Unknown roles get the
// guest persona.
func PersonaPrompt(role string) string {
	if p, ok := personaPrompts[role]; ok {
		return p
	}
	return personaPrompts[member.RoleGuest]
}

// CannedResponse is the answer given when the language model cannot be
// used. It never reveals the failure details.
func CannedResponse(role string, kind llm.Kind) string {
	var lead string
	switch kind {
	case llm.KindRateLimited, llm.KindOverloaded:
		lead = "I'm handling a lot of questions right now and couldn't finish this one."
	case llm.KindContextTooLong:
		lead = "There was too much context for me to process that question in one go."
	case llm.KindTimeout:
		lead = "That took longer than expected, so I stopped before giving you a half-finished answer."
	case llm.KindAuth, llm.KindInvalidRequest:
		lead = "I'm temporarily unable to answer while the team fixes a configuration issue."
	default:
		lead = "Something went wrong while I was preparing your answer."
	}

	switch role {
	case member.RoleBuilder:
		return lead + " Try again in a minute, or ask a narrower question. Your team's mentor is also a great person to ping in the meantime."
	case member.RoleMentor:
		return lead + " Try again in a minute. The team's latest updates are still available on the dashboard."
	case member.RoleLead:
		return lead + " Try again in a minute. Raw team data is still available on the lead dashboard."
	default:
		return lead + " Please try again in a minute."
	}
}

// apology is the answer for failures outside the language-model call.
const apology = "Sorry, I ran into a problem while working on your question. Please try again in a moment."
