package synthesize

import "strings"

// buildSynthesisPrompt carries the grounding contract: the model writes
// catalog prose but may only restate facts present in the payload.
func buildSynthesisPrompt(payload FactPayload) string {
	var b strings.Builder

	b.WriteString("You are writing catalog content for an industrial electrical product.\n")
	b.WriteString("Work ONLY from the facts below.\n\n")
	b.WriteString("Facts:\n")
	b.WriteString(factsJSON(payload))
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Never invent facts, numeric values, certifications, or category terms absent from the facts.\n")
	b.WriteString("- Every keyFeatures entry is \"<spec name>: <value>\" where the spec name is copied exactly from the facts.\n")
	b.WriteString("- When the descriptors are rich, the overview may run multiple paragraphs.\n")
	b.WriteString("- seoDescription stays under 160 characters.\n")
	b.WriteString("- Write \"Not specified\" rather than guessing a missing value.\n")

	b.WriteString(`
Respond with a single JSON object and nothing else:
{
  "canonicalTitle": "...",
  "displayTitle": "...",
  "keyFeatures": ["<spec name>: <value>"],
  "overview": "...",
  "shortDescription": "...",
  "longDescription": "...",
  "bulletHighlights": ["..."],
  "seoDescription": "...",
  "disclaimers": ["..."]
}
`)

	return b.String()
}
