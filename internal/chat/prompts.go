package chat

import (
	"fmt"
	"strings"
)

// persona is the base system prompt of the answer call.
const persona = `You are 'Yesu Mitra' (Friend of Jesus), a deeply knowledgeable biblical scholar and devoted believer in Jesus.
You combine theological depth with warm, compassionate guidance rooted in Scripture.

CORE PRINCIPLES:
1. **Theological understanding**: reflect on the meaning, context and significance of the relevant verses before answering. Consider the original audience and historical setting, and how the passage applies today.
2. **Christ-centred reading**: point every answer to Jesus Christ. Read Old Testament passages in the light of their fulfilment in Christ.
3. **Contextual wisdom**: do not only quote verses. Explain what they mean and what they reveal about God's character and love.
4. **Pastoral care**: answer with the heart of a shepherd and notice the need behind the question.
5. **Doctrinal soundness**: stay within orthodox Christian teaching and be respectful of denominational differences.

RESPONSE STRUCTURE:
1. **Opening**: a warm greeting that acknowledges the questioner.
2. **Theological insight**: what the Bible teaches about the question.
3. **Scriptural foundation**: the relevant verses with their meaning and context.
4. **Practical application**: how the truth applies to daily life.
5. **Encouragement**: close with hope, encouragement or a short prayer.

FORMAT:
- Give 2-3 paragraphs of reflection BEFORE listing verses.
- Then add the section "**Relevant Scriptures (సంబంధిత లేఖనాలు):**" and list the verses with a short note on each.
- End with application and encouragement.`

// Mode-specific additions to the persona.
const (
	simpleLanguageSuffix    = "\n**SPECIAL: Use very simple language, like explaining to a child or new believer.**"
	historicalContextSuffix = "\n**SPECIAL: Include historical and cultural context in a dedicated section.**"
)

// referenceSystem is the system prompt of the citation call.
const referenceSystem = "You are a theological scholar selecting the most relevant Bible verses."

// Mode is a set of answer styles requested by the question.
type Mode uint8

const (
	// ModeSimpleLanguage asks for an answer a child or new believer can follow.
	ModeSimpleLanguage Mode = 1 << iota

	// ModeHistoricalContext asks for authorship, setting and cultural background.
	ModeHistoricalContext
)

// Has reports whether every bit of flag is set in m.
func (m Mode) Has(flag Mode) bool { return m&flag == flag }

// String lists the set modes, e.g. "simple_language|historical_context".
func (m Mode) String() string {
	var parts []string
	if m.Has(ModeSimpleLanguage) {
		parts = append(parts, "simple_language")
	}
	if m.Has(ModeHistoricalContext) {
		parts = append(parts, "historical_context")
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, "|")
}

var (
	simpleLanguageKeywords    = []string{"simple language", "సులభమైన భాష", "child", "beginner", "easy words"}
	historicalContextKeywords = []string{"context", "historical", "situation", "who wrote", "చారిత్రక", "సందర్భం", "background"}
)

// DetectModes matches the question against the mode keyword lists. Matching is
// case-insensitive substring search.
func DetectModes(query string) Mode {
	q := strings.ToLower(query)
	var m Mode
	if containsAny(q, simpleLanguageKeywords) {
		m |= ModeSimpleLanguage
	}
	if containsAny(q, historicalContextKeywords) {
		m |= ModeHistoricalContext
	}
	return m
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// SystemPrompt returns the persona extended by the instructions for modes.
func SystemPrompt(modes Mode) string {
	var sb strings.Builder
	sb.WriteString(persona)
	if modes.Has(ModeSimpleLanguage) {
		sb.WriteString(simpleLanguageSuffix)
	}
	if modes.Has(ModeHistoricalContext) {
		sb.WriteString(historicalContextSuffix)
	}
	return sb.String()
}

// ReferencePrompt asks for a comma-separated citation list restricted to
// bookNames.
func ReferencePrompt(query string, bookNames []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "As a biblical scholar, identify 5-7 Bible verses that deeply address this question: %q\n\n", query)
	sb.WriteString("Consider:\n")
	sb.WriteString("1. Theological relevance and depth\n")
	sb.WriteString("2. Both direct answers and related principles\n")
	sb.WriteString("3. Old Testament foundations and New Testament fulfilment\n")
	sb.WriteString("4. The teachings of Jesus where they apply\n")
	sb.WriteString("5. Pastoral wisdom for the questioner\n\n")
	sb.WriteString("List ONLY the references in English format (Book Chapter:Verse), comma-separated.\n")
	sb.WriteString("Example: John 3:16, Romans 8:28, Psalm 23:1\n\n")
	sb.WriteString("Book names must be from this list: ")
	sb.WriteString(strings.Join(bookNames, ", "))
	sb.WriteString("\n")
	return sb.String()
}

// AnswerPrompt embeds the question and the annotated verses. verses may be
// empty; the section is still rendered so the model knows none were found.
func AnswerPrompt(query, verses string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User's Question: %s\n\n", query)
	sb.WriteString("---\nTHEOLOGICAL CONTEXT - Relevant Bible Verses:\n")
	if verses != "" {
		sb.WriteString(verses)
		sb.WriteString("\n")
	}
	sb.WriteString("\n---\nINSTRUCTIONS:\n")
	sb.WriteString("1. First, think carefully about what these verses mean.\n")
	sb.WriteString("2. Consider the heart of the questioner and their spiritual need.\n")
	sb.WriteString("3. Give a warm, compassionate answer that opens with personal acknowledgement, ")
	sb.WriteString("offers 2-3 paragraphs of insight, explains what God reveals through these verses, ")
	sb.WriteString("includes the verses in a \"Relevant Scriptures\" section and ends with practical application.\n")
	return sb.String()
}
